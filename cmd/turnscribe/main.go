package main

import (
	"fmt"
	"os"

	"turnscribe/internal/control"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	root := &cobra.Command{
		Use:   "turnscribe",
		Short: "turnscribe — speaker-labeled transcripts from recordings",
		Long: `turnscribe transcribes a recording locally with whisper.cpp, asks a diarizer who spoke when,
and writes "<name>: <text>" lines to <audio>.transcription, asking you once per speaker for a name.

Key commands:
  transcribe <audio>        Transcribe and label speakers
  record                    Capture a timestamped WAV from the mic
  timestamps <wav>          Show when a take was recorded
  history [--json]          Recent transcripts
  mic list|set              Select microphone (alias: microphone, mics)
  doctor|setup              Check deps / download default model
  models list|download|set  Manage whisper.cpp models
  tail-log                  Show last log lines

Notable env:
  TURNSCRIBE_MODEL, TURNSCRIBE_DIARIZE_COMMAND, TURNSCRIBE_NAMES_FILE,
  TURNSCRIBE_LOG_LEVEL/FORMAT, TURNSCRIBE_HISTORY_ENABLED`,
		Example: `  turnscribe record --out ~/meetings
  turnscribe transcribe ~/meetings/audio_20240102_150405_to_20240102_151000.wav --num-speakers 2
  turnscribe transcribe interview.mp3 --turns segments.csv --names names.yaml
  turnscribe models download ggml-medium-q5_1.bin
  turnscribe history --limit 5`,
		DisableFlagsInUseLine: true,
		SilenceUsage:          true,
		SilenceErrors:         true,
	}

	root.Version = version
	root.SetVersionTemplate("turnscribe v{{.Version}}\n")

	cfgPath := root.PersistentFlags().StringP("config", "c", "", "Path to config file (TOML). Defaults to ~/.config/turnscribe/config.toml")
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(control.NewTranscribeCmd(cfgPath))
	root.AddCommand(control.NewRecordCmd(cfgPath))
	root.AddCommand(control.NewTimestampsCmd())
	root.AddCommand(control.NewHistoryCmd(cfgPath))
	root.AddCommand(control.NewMicCmd(cfgPath))
	root.AddCommand(control.NewDoctorCmd(cfgPath))
	root.AddCommand(control.NewSetupCmd(cfgPath))
	root.AddCommand(control.NewModelsCmd(cfgPath))
	root.AddCommand(control.NewTailLogCmd(cfgPath))

	applyColorHelp(root)

	return root.Execute()
}

func applyColorHelp(root *cobra.Command) {
	const (
		boldBlue = "\033[1;34m"
		green    = "\033[32m"
		bold     = "\033[1m"
		dim      = "\033[2m"
		reset    = "\033[0m"
	)
	defaultHelp := root.HelpFunc()
	root.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if cmd != root {
			defaultHelp(cmd, args)
			return
		}
		out := cmd.OutOrStdout()
		write := func(format string, args ...any) { _, _ = fmt.Fprintf(out, format, args...) }
		writeln := func(line string) { _, _ = fmt.Fprintln(out, line) }

		write("%sturnscribe%s — speaker-labeled transcripts %s(v%s)%s\n", boldBlue, reset, dim, version, reset)
		write("%sTranscribes locally, diarizes, and names each speaker once.%s\n\n", dim, reset)

		write("%sUsage%s\n", bold, reset)
		write("  turnscribe [command] [flags]\n\n")

		write("%sKey commands%s\n", bold, reset)
		writeln("  transcribe <audio>          write <audio>.transcription")
		writeln("  record [--out dir]          capture audio_<start>_to_<end>.wav")
		writeln("  timestamps <wav>            recording start/end of a take")
		writeln("  history [--limit n] [--json] recent transcripts")
		writeln("  mic list|set                select input device")
		writeln("  doctor                      check deps/model/diarizer/ffmpeg")
		writeln("  setup                       download the configured whisper model")
		writeln("  models list|download|set    manage whisper.cpp models")
		writeln("  tail-log                    show last log lines")
		writeln("")

		write("%sNotable flags & env%s\n", bold, reset)
		writeln("  --turns <file>          use existing diarizer output (JSON, JSON lines, CSV)")
		writeln("  --names <file>          YAML speaker id -> name map, prompts for the rest")
		writeln("  --num-speakers <n>      hint for the diarizer")
		writeln("  -c, --config <path>     config file (default ~/.config/turnscribe/config.toml)")
		writeln("  Env: TURNSCRIBE_MODEL=path, TURNSCRIBE_DIARIZE_COMMAND=cmd,")
		writeln("       TURNSCRIBE_LOG_LEVEL=debug, TURNSCRIBE_LOG_FORMAT=json,")
		writeln("       TURNSCRIBE_NAMES_FILE=path, TURNSCRIBE_HISTORY_ENABLED=0")
		writeln("")

		write("%sExamples%s\n", bold, reset)
		writeln("  turnscribe record --out ~/meetings")
		writeln("  turnscribe transcribe meeting.wav --num-speakers 3")
		writeln("  turnscribe transcribe interview.mp3 --turns segments.csv")
		writeln("  turnscribe models set ggml-large-v3-turbo-q8_0.bin")
		writeln("")

		write("%sCommands%s\n", bold, reset)
		for _, c := range cmd.Commands() {
			if c.Hidden {
				continue
			}
			write("  %s%-15s%s %s\n", green, c.Name(), reset, c.Short)
		}
	})
}
