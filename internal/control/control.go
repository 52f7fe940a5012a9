package control

import (
	"turnscribe/internal/config"
	"turnscribe/internal/logging"

	"github.com/sirupsen/logrus"
)

// loadRuntime loads config and configures logging for a command.
func loadRuntime(cfgPath string) (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.Configure(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
