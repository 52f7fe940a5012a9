//go:build whisper

package recorder

import (
	"errors"
	"fmt"
	"strings"

	"turnscribe/internal/config"

	"github.com/gordonklaus/portaudio"
	"github.com/sirupsen/logrus"
)

type paStream struct {
	stream *portaudio.Stream
	buf    []int16
	rate   int
	logger *logrus.Logger
}

// Open starts capturing from the configured input device.
func Open(cfg *config.Config, logger *logrus.Logger) (Stream, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio init: %w", err)
	}
	dev, err := SelectDevice(cfg.Audio.DeviceName)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}
	rate := cfg.Audio.SampleRate
	frames := rate / 10
	s := &paStream{buf: make([]int16, frames), rate: rate, logger: logger}
	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: 1,
			Latency:  dev.DefaultLowInputLatency,
		},
		SampleRate:      float64(rate),
		FramesPerBuffer: frames,
	}, &s.buf)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("open stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("start stream: %w", err)
	}
	s.stream = stream
	logger.Infof("recording from %s @ %d Hz", dev.Name, rate)
	return s, nil
}

func (s *paStream) Read() ([]int16, error) {
	for {
		err := s.stream.Read()
		if err == nil {
			return s.buf, nil
		}
		if !errors.Is(err, portaudio.InputOverflowed) {
			return nil, fmt.Errorf("stream read: %w", err)
		}
		s.logger.Warn("input overflow")
	}
}

func (s *paStream) SampleRate() int { return s.rate }

func (s *paStream) Close() error {
	defer portaudio.Terminate()
	_ = s.stream.Stop()
	return s.stream.Close()
}

// SelectDevice picks the first input device whose name contains preferred,
// else the default input.
func SelectDevice(preferred string) (*portaudio.DeviceInfo, error) {
	devs, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	if preferred != "" {
		for _, d := range devs {
			if d.MaxInputChannels > 0 && strings.Contains(strings.ToLower(d.Name), strings.ToLower(preferred)) {
				return d, nil
			}
		}
	}
	if def, err := portaudio.DefaultInputDevice(); err == nil && def != nil {
		return def, nil
	}
	for _, d := range devs {
		if d.MaxInputChannels > 0 {
			return d, nil
		}
	}
	return nil, fmt.Errorf("no input devices found")
}

// Device describes an input device.
type Device struct {
	Index     int     `json:"index"`
	Name      string  `json:"name"`
	Channels  int     `json:"channels"`
	LatencyMs float64 `json:"latency_ms"`
	Default   bool    `json:"default"`
}

// Devices lists input devices.
func Devices() ([]Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio init: %w", err)
	}
	defer portaudio.Terminate()
	devs, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	def, _ := portaudio.DefaultInputDevice()
	out := []Device{}
	for i, d := range devs {
		if d.MaxInputChannels < 1 {
			continue
		}
		out = append(out, Device{
			Index:     i,
			Name:      d.Name,
			Channels:  d.MaxInputChannels,
			LatencyMs: d.DefaultLowInputLatency.Seconds() * 1000,
			Default:   def != nil && d.Name == def.Name,
		})
	}
	return out, nil
}
