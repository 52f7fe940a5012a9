package transcript

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultSuffix is appended to the audio path to name the transcript file.
const DefaultSuffix = ".transcription"

// Compile resolves every chunk's speaker in order and renders one
// "<name>: <text>" line per chunk. Lines are joined by newlines with no
// trailing newline.
func Compile(chunks []Chunk, r *Resolver) (string, error) {
	lines := make([]string, 0, len(chunks))
	for _, c := range chunks {
		name, err := r.Resolve(c)
		if err != nil {
			return "", err
		}
		lines = append(lines, name+": "+c.Text)
	}
	return strings.Join(lines, "\n"), nil
}

// OutputPath names the transcript for an audio file.
func OutputPath(audioPath, suffix string) string {
	if suffix == "" {
		suffix = DefaultSuffix
	}
	return audioPath + suffix
}

// WriteFile writes the transcript through a temp file and rename, so a failed
// write never leaves a partial transcript at path.
func WriteFile(path, text string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create transcript: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.WriteString(text); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write transcript: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
