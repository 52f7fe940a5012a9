package control

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"turnscribe/internal/config"
	"turnscribe/internal/diarize"
	"turnscribe/internal/logging"
	"turnscribe/internal/transcript"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Default()
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	cfg.Paths.ModelDir = t.TempDir()
	return cfg
}

func TestNewDiarizerPrefersTurnsFile(t *testing.T) {
	cfg := testConfig(t)
	d, err := newDiarizer(cfg, "turns.csv", 0, logging.NewTestLogger())
	if err != nil {
		t.Fatalf("diarizer: %v", err)
	}
	if fd, ok := d.(diarize.FileDiarizer); !ok || fd.Path != "turns.csv" {
		t.Fatalf("got %#v", d)
	}
}

func TestNewDiarizerCommandOverrides(t *testing.T) {
	cfg := testConfig(t)
	cfg.Diarize.Command = `python3 "my diarizer.py" --embed xvec`
	cfg.Diarize.NumSpeakers = 2
	d, err := newDiarizer(cfg, "", 4, logging.NewTestLogger())
	if err != nil {
		t.Fatalf("diarizer: %v", err)
	}
	cd, ok := d.(*diarize.CommandDiarizer)
	if !ok {
		t.Fatalf("got %#v", d)
	}
	if strings.Join(cd.Argv, "|") != "python3|my diarizer.py|--embed|xvec" || cd.NumSpeakers != 4 {
		t.Fatalf("argv=%q speakers=%d", cd.Argv, cd.NumSpeakers)
	}

	cfg.Diarize.Command = "  "
	if _, err := newDiarizer(cfg, "", 0, logging.NewTestLogger()); err == nil {
		t.Fatalf("expected error for empty command")
	}
}

func TestNewNamerUsesNamesFileWithPromptFallback(t *testing.T) {
	cfg := testConfig(t)
	path := filepath.Join(t.TempDir(), "names.yaml")
	if err := os.WriteFile(path, []byte("SPEAKER_00: Alice\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg.Naming.NamesFile = path

	var out bytes.Buffer
	namer, err := newNamer(cfg, "", strings.NewReader("Bob\n"), &out)
	if err != nil {
		t.Fatalf("namer: %v", err)
	}
	if name, _ := namer.NameFor(transcript.Speaking("SPEAKER_00"), " hi"); name != "Alice" {
		t.Fatalf("mapped name = %q", name)
	}
	if name, _ := namer.NameFor(transcript.Speaking("SPEAKER_01"), " yo"); name != "Bob" {
		t.Fatalf("prompted name = %q", name)
	}
	if !strings.Contains(out.String(), "Who said this?\n yo\n") {
		t.Fatalf("prompt output = %q", out.String())
	}
}

func TestNewNamerMissingFile(t *testing.T) {
	cfg := testConfig(t)
	if _, err := newNamer(cfg, filepath.Join(t.TempDir(), "nope.yaml"), strings.NewReader(""), &bytes.Buffer{}); err == nil {
		t.Fatalf("expected error for missing names file")
	}
}

func TestResolveModelPath(t *testing.T) {
	cfg := testConfig(t)
	if got := resolveModelPath(cfg, "ggml-small-q5_1.bin"); got != filepath.Join(cfg.Paths.ModelDir, "ggml-small-q5_1.bin") {
		t.Fatalf("short name resolved to %s", got)
	}
	if got := resolveModelPath(cfg, "/opt/models/x.bin"); got != "/opt/models/x.bin" {
		t.Fatalf("path resolved to %s", got)
	}
}

func TestTailFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log")
	if err := os.WriteFile(path, []byte("a\nb\n\nc\nd\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if err := tailFile(&out, path, 3); err != nil {
		t.Fatalf("tail: %v", err)
	}
	if out.String() != "c\nd\n" {
		t.Fatalf("tail = %q", out.String())
	}
}
