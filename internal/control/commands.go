package control

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"turnscribe/internal/config"
	"turnscribe/internal/doctor"
	"turnscribe/internal/history"
	"turnscribe/internal/media"

	"github.com/spf13/cobra"
)

// NewTailLogCmd tails the main log file (simple last N lines).
func NewTailLogCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tail-log",
		Short: "Show last log lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			n, _ := cmd.Flags().GetInt("lines")
			return tailFile(cmd.OutOrStdout(), cfg.Paths.LogPath, n)
		},
	}
	cmd.Flags().IntP("lines", "n", 50, "number of lines")
	return cmd
}

func tailFile(w io.Writer, path string, n int) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	lines := strings.Split(string(data), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			_, _ = fmt.Fprintln(w, l)
		}
	}
	return nil
}

// NewDoctorCmd runs environment checks.
func NewDoctorCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check dependencies and config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			results := doctor.Run(cfg)
			exitCode := 0
			for _, r := range results {
				status := "ok"
				if !r.Pass {
					status = "fail"
					exitCode = 1
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%-16s %-4s %s\n", r.Name, status, r.Detail)
			}
			if exitCode != 0 {
				return fmt.Errorf("doctor found issues")
			}
			return nil
		},
	}
}

// NewTimestampsCmd prints the recording window stored in a take.
func NewTimestampsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "timestamps <wavfile>",
		Short: "Show recording start/end stored in a WAV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := media.ReadTimestamps(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Start timestamp: %s\n", rec.Start.Format(time.RFC3339))
			_, _ = fmt.Fprintf(out, "End timestamp: %s\n", rec.End.Format(time.RFC3339))
			return nil
		},
	}
}

// NewHistoryCmd lists recent transcription runs.
func NewHistoryCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent transcripts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			if err := config.MustStatePaths(cfg); err != nil {
				return err
			}
			db, err := history.Open(cfg.Paths.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()
			limit, _ := cmd.Flags().GetInt("limit")
			runs, err := db.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				if runs == nil {
					runs = []history.Run{}
				}
				return json.NewEncoder(cmd.OutOrStdout()).Encode(runs)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "WHEN\tLENGTH\tSPEAKERS\tWORDS\tTRANSCRIPT")
			for _, r := range runs {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n",
					r.CreatedAt.Local().Format("2006-01-02 15:04"),
					(time.Duration(r.DurationSec * float64(time.Second))).Round(time.Second),
					r.Speakers, r.Words, r.Transcript)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().Int("limit", 20, "maximum runs to show")
	cmd.Flags().Bool("json", false, "output JSON")
	return cmd
}
