package css

import (
	"bytes"
	"testing"

	"github.com/bgrewell/dvd-kit/pkg/consts"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func writeImage(t *testing.T, fs afero.Fs, name string, sectors int) {
	t.Helper()
	data := make([]byte, sectors*consts.DVD_SECTOR_SIZE)
	for i := 0; i < sectors; i++ {
		data[i*consts.DVD_SECTOR_SIZE] = byte(i)
	}
	require.NoError(t, afero.WriteFile(fs, name, data, 0o644))
}

func TestImageService(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeImage(t, fs, "/disc.iso", 10)
	svc := NewImageService(fs)

	h, err := svc.Open("/disc.iso")
	require.NoError(t, err)
	defer h.Close()

	require.False(t, h.IsScrambled())
	require.Equal(t, 10, h.SizeInSectors())

	t.Run("seek and read", func(t *testing.T) {
		pos, err := h.Seek(3, SeekMPEG)
		require.NoError(t, err)
		require.Equal(t, 3, pos)

		buf := make([]byte, 2*consts.DVD_SECTOR_SIZE)
		n, err := h.Read(buf, 2, ReadDecrypt)
		require.NoError(t, err)
		require.Equal(t, 2, n)
		require.Equal(t, byte(3), buf[0])
		require.Equal(t, byte(4), buf[consts.DVD_SECTOR_SIZE])
	})

	t.Run("read is capped at end of medium", func(t *testing.T) {
		_, err := h.Seek(8, NoSeekFlags)
		require.NoError(t, err)
		buf := make([]byte, 4*consts.DVD_SECTOR_SIZE)
		n, err := h.Read(buf, 4, NoReadFlags)
		require.NoError(t, err)
		require.Equal(t, 2, n)

		n, err = h.Read(buf, 1, NoReadFlags)
		require.NoError(t, err)
		require.Zero(t, n)
	})

	t.Run("seek out of bounds", func(t *testing.T) {
		_, err := h.Seek(11, NoSeekFlags)
		require.Error(t, err)
	})

	t.Run("short buffer", func(t *testing.T) {
		_, err := h.Seek(0, NoSeekFlags)
		require.NoError(t, err)
		_, err = h.Read(make([]byte, 10), 1, NoReadFlags)
		require.Error(t, err)
	})
}

func TestImageServiceErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/VIDEO_TS", 0o755))
	svc := NewImageService(fs)

	_, err := svc.Open("/missing.iso")
	require.Error(t, err)

	_, err = svc.Open("/VIDEO_TS")
	require.Error(t, err)

	require.NoError(t, afero.WriteFile(fs, "/partial.iso", bytes.Repeat([]byte{1}, consts.DVD_SECTOR_SIZE+100), 0o644))
	h, err := svc.Open("/partial.iso")
	require.NoError(t, err)
	require.Equal(t, 1, h.SizeInSectors())
	require.NoError(t, h.Close())
}
