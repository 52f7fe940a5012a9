package transcript

// Align assigns every word to the first turn, in start order, whose End is at or
// after the word's Start. Words past the end of every turn stay unassigned.
//
// There is no lower-bound check: a word that starts before the first turn
// begins is still attributed to that turn. Existing transcripts depend on this.
//
// turns must be sorted by Start. The scan keeps a cursor into turns: once a
// turn ends before a word starts it also ends before every later word, so the
// cursor only moves forward while word starts are non-decreasing. A decreasing
// start rewinds it, which keeps the result identical to a full scan per word.
func Align(words []Word, turns []Turn) []LabeledWord {
	out := make([]LabeledWord, len(words))
	cursor := 0
	prevStart := 0.0
	for i, w := range words {
		if i > 0 && w.Start < prevStart {
			cursor = 0
		}
		prevStart = w.Start
		for cursor < len(turns) && turns[cursor].End < w.Start {
			cursor++
		}
		out[i] = LabeledWord{Word: w}
		if cursor < len(turns) {
			out[i].Label = Speaking(turns[cursor].Speaker)
		}
	}
	return out
}
