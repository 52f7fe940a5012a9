package hook

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"turnscribe/internal/config"

	"github.com/google/shlex"
	"github.com/sirupsen/logrus"
)

// Job represents a hook invocation request.
type Job struct {
	Audio      string
	Transcript string // path of the written transcript
	Text       string
	Timestamp  time.Time
}

// Runner executes the post-transcript hook.
type Runner struct {
	cfg    *config.Config
	logger *logrus.Logger
}

func NewRunner(cfg *config.Config, logger *logrus.Logger) *Runner {
	return &Runner{cfg: cfg, logger: logger}
}

// Enabled reports whether a hook command is configured.
func (r *Runner) Enabled() bool {
	return strings.TrimSpace(r.cfg.Hook.Command) != ""
}

// Run executes the configured command with the transcript path as the last
// argument and the transcript text in the environment.
func (r *Runner) Run(ctx context.Context, job Job) error {
	argv, err := ParseArgs(r.cfg.Hook.Command)
	if err != nil {
		return fmt.Errorf("hook.command: %w", err)
	}
	if len(argv) == 0 {
		return fmt.Errorf("no hook.command configured")
	}
	args := append(argv[1:], r.cfg.Hook.Args...)
	args = append(args, job.Transcript)

	text := job.Text
	if r.cfg.Hook.RedactPII {
		text = redactPII(text)
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if r.cfg.Hook.TimeoutSec > 0 {
		runCtx, cancel = context.WithTimeout(ctx, time.Duration(float64(time.Second)*r.cfg.Hook.TimeoutSec))
		defer cancel()
	}
	cmd := exec.CommandContext(runCtx, argv[0], args...)
	cmd.Env = os.Environ()
	for k, v := range r.cfg.Hook.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}
	cmd.Env = append(cmd.Env,
		fmt.Sprintf("TURNSCRIBE_TRANSCRIPT=%s", job.Transcript),
		fmt.Sprintf("TURNSCRIBE_AUDIO=%s", job.Audio),
		fmt.Sprintf("TURNSCRIBE_TEXT=%s", text),
	)

	out, err := cmd.CombinedOutput()
	if len(out) > 0 {
		r.logger.Infof("hook output: %s", strings.TrimSpace(string(out)))
	}
	if err != nil {
		return fmt.Errorf("hook failed: %w", err)
	}
	return nil
}

// ParseArgs splits a command line with shell quoting rules.
func ParseArgs(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return []string{}, nil
	}
	return shlex.Split(raw)
}

var (
	emailRE = regexp.MustCompile(`[\w.+-]+@[\w.-]+\.[A-Za-z]{2,}`)
	phoneRE = regexp.MustCompile(`\+?\d[\d\s\-\(\)]{6,}\d`)
)

func redactPII(s string) string {
	s = emailRE.ReplaceAllString(s, "[redacted-email]")
	s = phoneRE.ReplaceAllString(s, "[redacted-phone]")
	return s
}
