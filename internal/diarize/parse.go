package diarize

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"turnscribe/internal/transcript"
)

// ErrNoTracks is returned when diarizer output holds no intervals at all.
var ErrNoTracks = errors.New("diarizer produced no tracks")

// ParseTracks reads diarizer output in any of the accepted layouts: a JSON
// array of tracks, JSON lines, or CSV with a header naming start, end and
// speaker (or label).
func ParseTracks(r io.Reader) ([]Track, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrNoTracks
	}
	var tracks []Track
	switch data[0] {
	case '[':
		tracks, err = parseJSONArray(data)
	case '{':
		tracks, err = parseJSONLines(data)
	default:
		tracks, err = parseCSV(data)
	}
	if err != nil {
		return nil, err
	}
	if len(tracks) == 0 {
		return nil, ErrNoTracks
	}
	return tracks, nil
}

func parseJSONArray(data []byte) ([]Track, error) {
	var tracks []Track
	if err := json.Unmarshal(data, &tracks); err != nil {
		return nil, fmt.Errorf("parse tracks json: %w", err)
	}
	return tracks, nil
}

func parseJSONLines(data []byte) ([]Track, error) {
	var tracks []Track
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		var tr Track
		if err := json.Unmarshal(raw, &tr); err != nil {
			return nil, fmt.Errorf("parse tracks line %d: %w", line, err)
		}
		tracks = append(tracks, tr)
	}
	return tracks, sc.Err()
}

func parseCSV(data []byte) ([]Track, error) {
	rd := csv.NewReader(bytes.NewReader(data))
	rd.TrimLeadingSpace = true
	rows, err := rd.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse tracks csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}
	startCol := slices.Index(header, "start")
	endCol := slices.Index(header, "end")
	speakerCol := slices.Index(header, "speaker")
	if speakerCol < 0 {
		speakerCol = slices.Index(header, "label")
	}
	trackCol := slices.Index(header, "track")
	if startCol < 0 || endCol < 0 || speakerCol < 0 {
		return nil, fmt.Errorf("parse tracks csv: header %v needs start, end and speaker", rows[0])
	}

	tracks := make([]Track, 0, len(rows)-1)
	for n, row := range rows[1:] {
		start, err := strconv.ParseFloat(strings.TrimSpace(row[startCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("parse tracks csv row %d start: %w", n+2, err)
		}
		end, err := strconv.ParseFloat(strings.TrimSpace(row[endCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("parse tracks csv row %d end: %w", n+2, err)
		}
		tr := Track{
			Start:   start,
			End:     end,
			Speaker: transcript.SpeakerID(strings.TrimSpace(row[speakerCol])),
		}
		if trackCol >= 0 {
			tr.Label = strings.TrimSpace(row[trackCol])
		}
		tracks = append(tracks, tr)
	}
	return tracks, nil
}
