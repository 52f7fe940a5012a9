//go:build !whisper

package recorder

import (
	"turnscribe/internal/config"

	"github.com/sirupsen/logrus"
)

// Device describes an input device.
type Device struct {
	Index     int     `json:"index"`
	Name      string  `json:"name"`
	Channels  int     `json:"channels"`
	LatencyMs float64 `json:"latency_ms"`
	Default   bool    `json:"default"`
}

func Open(*config.Config, *logrus.Logger) (Stream, error) { return nil, ErrNotBuilt }

func Devices() ([]Device, error) { return nil, ErrNotBuilt }
