package config

import (
	"bytes"
	"testing"

	"github.com/bgrewell/dvd-kit/pkg/consts"
	"github.com/bgrewell/dvd-kit/pkg/option"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, exists, err := Load(afero.NewMemMapFs(), "/etc/dvdkit.toml")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, Default(), *cfg)
}

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/dvdkit.toml", []byte(`
device = " /dev/sr1 "
bad_sector_policy = "Zero"
nav_pack_policy = "remove"
key_cache_policy = "cached"
transfer_size = 65536
log_level = "debug"
color = false
`), 0o644))

	cfg, exists, err := Load(fs, "/dvdkit.toml")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, "/dev/sr1", cfg.Device)
	assert.Equal(t, "zero", cfg.BadSectorPolicy)
	assert.Equal(t, "remove", cfg.NavPackPolicy)
	assert.Equal(t, "cached", cfg.KeyCachePolicy)
	assert.Equal(t, 65536, cfg.TransferSize)
	assert.Equal(t, consts.DEFAULT_MIN_BUFFER_SIZE, cfg.MinBufferSize)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.False(t, cfg.Color)

	demux := option.ApplyDemux(cfg.DemuxOptions(nil)...)
	assert.Equal(t, option.NavPackRemove, demux.NavPackPolicy)
	assert.Equal(t, 65536, demux.TransferSize)

	transfer := option.ApplyTransfer(cfg.TransferOptions(nil)...)
	assert.Equal(t, option.ReadBadSectorsAsZero, transfer.BadSectorPolicy)
	assert.Equal(t, consts.DEFAULT_MIN_BUFFER_SIZE, transfer.MinBufferSize)

	open := option.ApplyOpen(cfg.OpenOptions(nil)...)
	assert.Equal(t, option.KeyCached, open.KeyCachePolicy)
	assert.False(t, open.ExclusiveLock)
}

func TestLoadErrors(t *testing.T) {
	tests := map[string]string{
		"syntax":            `device = `,
		"unknown key":       `speed = 4`,
		"bad sector policy": `bad_sector_policy = "retry"`,
		"nav pack policy":   `nav_pack_policy = "strip"`,
		"key cache policy":  `key_cache_policy = "never"`,
		"log level":         `log_level = "verbose"`,
		"transfer size":     `transfer_size = 100`,
		"min buffer size":   `min_buffer_size = -1`,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, "/dvdkit.toml", []byte(content), 0o644))
			_, _, err := Load(fs, "/dvdkit.toml")
			assert.Error(t, err)
		})
	}
}

func TestSave(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg := Default()
	cfg.Device = "/tmp/movie.iso"
	cfg.NavPackPolicy = "unchanged"
	require.NoError(t, cfg.Save(fs, "/home/user/.config/dvdkit/dvdkit.toml"))

	loaded, exists, err := Load(fs, "/home/user/.config/dvdkit/dvdkit.toml")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, cfg, *loaded)
}

func TestLogger(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "debug"
	buf := &bytes.Buffer{}
	log := cfg.Logger(buf, false)
	log.Debug("Opened DVD media", "device", cfg.Device)
	log.Trace("hidden")
	assert.Contains(t, buf.String(), "[DEBUG] Opened DVD media")
	assert.NotContains(t, buf.String(), "hidden")
}
