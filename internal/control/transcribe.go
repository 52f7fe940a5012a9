package control

import (
	"fmt"
	"io"
	"os"
	"os/signal"

	"turnscribe/internal/asr"
	"turnscribe/internal/history"
	"turnscribe/internal/hook"
	"turnscribe/internal/media"
	"turnscribe/internal/pipeline"

	"github.com/spf13/cobra"
)

// NewTranscribeCmd writes a speaker-labeled transcript next to an audio file.
func NewTranscribeCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transcribe <audiofile>",
		Short: "Transcribe an audio file with speaker names",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadRuntime(*cfgPath)
			if err != nil {
				return err
			}
			turnsPath, _ := cmd.Flags().GetString("turns")
			namesPath, _ := cmd.Flags().GetString("names")
			numSpeakers, _ := cmd.Flags().GetInt("num-speakers")
			noHook, _ := cmd.Flags().GetBool("no-hook")

			diar, err := newDiarizer(cfg, turnsPath, numSpeakers, logger)
			if err != nil {
				return err
			}
			namer, err := newNamer(cfg, namesPath, cmd.InOrStdin(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			rec, err := asr.NewRecognizer(cfg, logger)
			if err != nil {
				return err
			}
			if c, ok := rec.(io.Closer); ok {
				defer func() { _ = c.Close() }()
			}

			p := &pipeline.Pipeline{
				Loader:        &media.Loader{SampleRate: cfg.Audio.SampleRate, TmpDir: cfg.Paths.TmpDir, Logger: logger},
				Recognizer:    rec,
				Diarizer:      diar,
				Namer:         namer,
				WindowSamples: cfg.Audio.WindowSamples,
				Suffix:        cfg.Output.Suffix,
				Logger:        logger,
			}
			if cfg.History.Enabled {
				db, err := history.Open(cfg.Paths.DBPath)
				if err != nil {
					logger.Warnf("history disabled: %v", err)
				} else {
					defer db.Close()
					p.Index = db
				}
			}
			if r := hook.NewRunner(cfg, logger); r.Enabled() && !noHook {
				p.Hook = r
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			res, err := p.Run(ctx, args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n\nwrote %s\n", res.Text, res.Output)
			return nil
		},
	}
	cmd.Flags().String("turns", "", "read speaker turns from this file instead of running the diarizer")
	cmd.Flags().String("names", "", "YAML file mapping speaker ids to names")
	cmd.Flags().Int("num-speakers", 0, "number of speakers hint for the diarizer")
	cmd.Flags().Bool("no-hook", false, "skip the configured hook")
	return cmd
}
