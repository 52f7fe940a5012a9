package control

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"turnscribe/internal/config"
	"turnscribe/internal/recorder"

	"github.com/spf13/cobra"
)

// NewRecordCmd captures a take from the microphone until Enter is pressed.
func NewRecordCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record from the microphone into a timestamped WAV",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadRuntime(*cfgPath)
			if err != nil {
				return err
			}
			outDir, _ := cmd.Flags().GetString("out")
			stream, err := recorder.Open(cfg, logger)
			if err != nil {
				return err
			}
			rec := recorder.New(stream, logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			go func() {
				_, _ = bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				rec.Stop()
			}()

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, "Recording started... Press Enter to stop recording.")
			take, err := rec.Run(ctx)
			if err != nil && len(take.Samples) == 0 {
				return err
			}
			if err != nil {
				logger.Warnf("recording ended early: %v", err)
			}
			_, _ = fmt.Fprintln(out, "Recording stopped.")
			path, err := take.Save(outDir)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "Audio saved as %s (%.1fs)\n", path, take.Duration())
			return nil
		},
	}
	cmd.Flags().String("out", ".", "directory for the recording")
	return cmd
}

// NewMicCmd groups mic subcommands.
func NewMicCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "mic",
		Aliases: []string{"microphone", "mics"},
		Short:   "Microphone management",
	}
	cmd.AddCommand(newMicListCmd())
	cmd.AddCommand(newMicSetCmd(cfgPath))
	return cmd
}

func newMicListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available microphones",
		RunE: func(cmd *cobra.Command, args []string) error {
			devs, err := recorder.Devices()
			if err != nil {
				return err
			}
			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(devs)
			}
			for _, m := range devs {
				defMark := ""
				if m.Default {
					defMark = " (default)"
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "[%d] %s%s (in %d ch, latency %.2fms)\n", m.Index, m.Name, defMark, m.Channels, m.LatencyMs)
			}
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "output JSON")
	return cmd
}

func newMicSetCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "set <name>",
		Short: "Set microphone device name in config",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			cfg.Audio.DeviceName = args[0]
			if err := config.Save(cfg, cfg.Paths.ConfigPath); err != nil {
				return err
			}
			cmd.Printf("mic set to %q in %s\n", args[0], cfg.Paths.ConfigPath)
			return nil
		},
	}
}
