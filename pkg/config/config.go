// Package config loads the TOML configuration file of the command line tools and converts
// it into library options.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bgrewell/dvd-kit/pkg/consts"
	"github.com/bgrewell/dvd-kit/pkg/logging"
	"github.com/bgrewell/dvd-kit/pkg/option"
	"github.com/go-logr/logr"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
)

const (
	defaultDevice = "/dev/dvd"
	// DefaultFileName is the name of the configuration file in the user config directory.
	DefaultFileName = "dvdkit.toml"
)

// Config is the content of the configuration file.
type Config struct {
	Device          string `toml:"device"`
	BadSectorPolicy string `toml:"bad_sector_policy"`
	NavPackPolicy   string `toml:"nav_pack_policy"`
	KeyCachePolicy  string `toml:"key_cache_policy"`
	TransferSize    int    `toml:"transfer_size"`
	MinBufferSize   int    `toml:"min_buffer_size"`
	LogLevel        string `toml:"log_level"`
	Color           bool   `toml:"color"`
	ExclusiveLock   bool   `toml:"exclusive_lock"`
}

// Default returns the configuration used when there is no file.
func Default() Config {
	return Config{
		Device:          defaultDevice,
		BadSectorPolicy: option.SkipBadSectors.String(),
		NavPackPolicy:   option.NavPackFix.String(),
		KeyCachePolicy:  option.KeyOnFileChange.String(),
		TransferSize:    consts.DEFAULT_TRANSFER_SIZE,
		MinBufferSize:   consts.DEFAULT_MIN_BUFFER_SIZE,
		LogLevel:        "info",
		Color:           true,
	}
}

// DefaultPath returns the configuration file in the user config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config directory: %w", err)
	}
	return filepath.Join(dir, "dvdkit", DefaultFileName), nil
}

// Load reads the configuration file at path. A missing file yields the defaults, exists
// reports whether the file was found.
func Load(fs afero.Fs, path string) (cfg *Config, exists bool, err error) {
	c := Default()
	file, err := fs.Open(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, false, fmt.Errorf("open config: %w", err)
	default:
		defer file.Close()
		exists = true
		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&c); err != nil {
			return nil, true, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	c.normalize()
	if err := c.Validate(); err != nil {
		return nil, exists, err
	}
	return &c, exists, nil
}

// Save writes the configuration in TOML format.
func (c *Config) Save(fs afero.Fs, path string) error {
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return afero.WriteFile(fs, path, data, 0o644)
}

func (c *Config) normalize() {
	c.Device = strings.TrimSpace(c.Device)
	if c.Device == "" {
		c.Device = defaultDevice
	}
	c.BadSectorPolicy = strings.ToLower(strings.TrimSpace(c.BadSectorPolicy))
	if c.BadSectorPolicy == "" {
		c.BadSectorPolicy = option.SkipBadSectors.String()
	}
	c.NavPackPolicy = strings.ToLower(strings.TrimSpace(c.NavPackPolicy))
	c.KeyCachePolicy = strings.ToLower(strings.TrimSpace(c.KeyCachePolicy))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.TransferSize == 0 {
		c.TransferSize = consts.DEFAULT_TRANSFER_SIZE
	}
	if c.MinBufferSize == 0 {
		c.MinBufferSize = consts.DEFAULT_MIN_BUFFER_SIZE
	}
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if _, err := option.ParseBadSectorPolicy(c.BadSectorPolicy); err != nil {
		return fmt.Errorf("bad_sector_policy: %w", err)
	}
	if _, err := option.ParseNavPackPolicy(c.NavPackPolicy); err != nil {
		return fmt.Errorf("nav_pack_policy: %w", err)
	}
	if _, err := option.ParseKeyCachePolicy(c.KeyCachePolicy); err != nil {
		return fmt.Errorf("key_cache_policy: %w", err)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if c.TransferSize < consts.DVD_SECTOR_SIZE {
		return fmt.Errorf("transfer_size: %d is smaller than one sector (%d bytes)", c.TransferSize, consts.DVD_SECTOR_SIZE)
	}
	if c.MinBufferSize < 0 {
		return fmt.Errorf("min_buffer_size: %d is negative", c.MinBufferSize)
	}
	return nil
}

// Logger returns a logger writing to w at the configured level.
func (c *Config) Logger(w io.Writer, useColor bool) *logging.Logger {
	level, _ := logging.ParseLevel(c.LogLevel)
	return logging.NewLogger(logr.New(logging.NewSimpleLogSink(w, level, c.Color && useColor)))
}

// OpenOptions returns the device options of the configuration.
func (c *Config) OpenOptions(log *logging.Logger) []option.OpenOption {
	keys, _ := option.ParseKeyCachePolicy(c.KeyCachePolicy)
	return []option.OpenOption{
		option.WithKeyCachePolicy(keys),
		option.WithExclusiveLock(c.ExclusiveLock),
		option.WithLogger(log),
	}
}

// DemuxOptions returns the demux options of the configuration.
func (c *Config) DemuxOptions(log *logging.Logger) []option.DemuxOption {
	policy, _ := option.ParseNavPackPolicy(c.NavPackPolicy)
	return []option.DemuxOption{
		option.WithNavPackPolicy(policy),
		option.WithTransferSize(c.TransferSize),
		option.WithDemuxLogger(log),
	}
}

// TransferOptions returns the transfer options of the configuration.
func (c *Config) TransferOptions(log *logging.Logger) []option.TransferOption {
	policy, _ := option.ParseBadSectorPolicy(c.BadSectorPolicy)
	return []option.TransferOption{
		option.WithMinBufferSize(c.MinBufferSize),
		option.WithReadSize(c.TransferSize),
		option.WithBadSectorPolicy(policy),
		option.WithTransferLogger(log),
	}
}
