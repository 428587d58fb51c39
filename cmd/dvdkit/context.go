package main

import (
	"os"
	"strings"
	"sync"

	"github.com/bgrewell/dvd-kit"
	"github.com/bgrewell/dvd-kit/pkg/config"
	"github.com/bgrewell/dvd-kit/pkg/logging"
	"github.com/bgrewell/dvd-kit/pkg/option"
	"github.com/mattn/go-isatty"
	"github.com/spf13/afero"
)

type commandContext struct {
	configFlag string
	deviceFlag string
	verbosity  int

	configOnce sync.Once
	config     *config.Config
	configErr  error
	log        *logging.Logger
}

func (c *commandContext) configPath() (string, error) {
	if path := strings.TrimSpace(c.configFlag); path != "" {
		return path, nil
	}
	return config.DefaultPath()
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		path, err := c.configPath()
		if err != nil {
			c.configErr = err
			return
		}
		cfg, _, err := config.Load(afero.NewOsFs(), path)
		if err != nil {
			c.configErr = err
			return
		}
		if device := strings.TrimSpace(c.deviceFlag); device != "" {
			cfg.Device = device
		}
		switch {
		case c.verbosity > 1:
			cfg.LogLevel = "trace"
		case c.verbosity == 1:
			cfg.LogLevel = "debug"
		}
		c.config = cfg
		c.log = cfg.Logger(os.Stderr, isTerminal(os.Stderr))
	})
	return c.config, c.configErr
}

func (c *commandContext) openDisc(opts ...option.OpenOption) (*dvd.Disc, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return dvd.Open(cfg.Device, append(cfg.OpenOptions(c.log), opts...)...)
}

func isTerminal(file *os.File) bool {
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
