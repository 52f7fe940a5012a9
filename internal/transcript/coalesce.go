package transcript

import "strings"

// Coalesce folds consecutive words with the same label into chunks. Each word is
// appended with one leading space, so every chunk text starts with a space.
// The trailing chunk is always emitted, so no words yield one empty unassigned
// chunk.
func Coalesce(words []LabeledWord) []Chunk {
	var (
		chunks  []Chunk
		current = Unassigned
		b       strings.Builder
	)
	for i, w := range words {
		if i == 0 {
			current = w.Label
		} else if w.Label != current {
			chunks = append(chunks, Chunk{Label: current, Text: b.String()})
			b.Reset()
			current = w.Label
		}
		b.WriteByte(' ')
		b.WriteString(w.Text)
	}
	return append(chunks, Chunk{Label: current, Text: b.String()})
}
