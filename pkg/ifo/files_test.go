package ifo

import (
	"testing"

	dvdtest "github.com/bgrewell/dvd-kit/internal/testing"
	"github.com/bgrewell/dvd-kit/pkg/consts"
	"github.com/bgrewell/dvd-kit/pkg/device"
	"github.com/bgrewell/dvd-kit/pkg/option"
	"github.com/bgrewell/dvd-kit/pkg/volume"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsTitleSetFileName(t *testing.T) {
	for name, expected := range map[string]bool{
		"VTS_01_0.IFO":               true,
		"/mnt/VIDEO_TS/vts_03_0.ifo": true,
		"VTS_01_1.VOB":               true,
		"VTS_01_0.VOB":               true,
		"VTS_01_1.IFO":               false,
		"VTS_01_0.BUP":               false,
		"VIDEO_TS.IFO":               false,
		"VTS_01_X.VOB":               false,
		"_1.VOB":                     false,
	} {
		assert.Equal(t, expected, IsTitleSetFileName(name), name)
	}
}

func writeTitleSet(t *testing.T, fs afero.Fs, dir string, vobs int) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, dir+"/VTS_02_0.IFO", sampleIfo().Build(), 0o644))
	for i := 1; i <= vobs; i++ {
		require.NoError(t, afero.WriteFile(fs, dir+"/"+volume.VtsVideoFileName(2, i), make([]byte, i*consts.DVD_SECTOR_SIZE), 0o644))
	}
}

func TestBuildFileNames(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeTitleSet(t, fs, "/dvd/VIDEO_TS", 3)
	require.NoError(t, afero.WriteFile(fs, "/dvd/VIDEO_TS/VTS_02_5.VOB", []byte{0}, 0o644))

	files, err := BuildFileNames(fs, "/dvd/VIDEO_TS/VTS_02_2.VOB")
	require.NoError(t, err)
	assert.Equal(t, 2, files.VtsNumber)
	assert.Equal(t, "/dvd/VIDEO_TS/VTS_02_0.IFO", files.IfoFileName)
	assert.Equal(t, []string{
		"/dvd/VIDEO_TS/VTS_02_1.VOB",
		"/dvd/VIDEO_TS/VTS_02_2.VOB",
		"/dvd/VIDEO_TS/VTS_02_3.VOB",
	}, files.VobFileNames)
	assert.Equal(t, int64(6*consts.DVD_SECTOR_SIZE), files.VobSizeInBytes)

	t.Run("not a title set", func(t *testing.T) {
		_, err := BuildFileNames(fs, "/dvd/VIDEO_TS/VIDEO_TS.IFO")
		assert.Error(t, err)
	})

	t.Run("no VOB", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/VTS_01_0.IFO", sampleIfo().Build(), 0o644))
		_, err := BuildFileNames(fs, "/VTS_01_0.IFO")
		assert.Error(t, err)
	})

	t.Run("no IFO", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/VTS_01_1.VOB", []byte{0}, 0o644))
		_, err := BuildFileNames(fs, "/VTS_01_1.VOB")
		assert.Error(t, err)
	})
}

func TestLoadFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeTitleSet(t, fs, "/dvd/VIDEO_TS", 2)

	ts, err := LoadFile(fs, "/dvd/VIDEO_TS/VTS_02_0.IFO", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, ts.VtsNumber())
	assert.Equal(t, "/dvd/VIDEO_TS/VTS_02_0.IFO", ts.IfoFileName())
	assert.Len(t, ts.VobFileNames(), 2)
	assert.Equal(t, -1, ts.VobStartSector())
	assert.False(t, ts.IsEncrypted())
	assert.Empty(t, ts.DeviceName())
	assert.Equal(t, 3723, ts.LongestDurationInSeconds())
}

func TestLoadFromVolume(t *testing.T) {
	b := dvdtest.NewImage("MOVIE")
	b.AddFile("VIDEO_TS/VIDEO_TS.IFO", make([]byte, consts.DVD_SECTOR_SIZE))
	b.AddFile("VIDEO_TS/VTS_01_0.IFO", sampleIfo().Build())
	b.AddFile("VIDEO_TS/VTS_01_0.VOB", make([]byte, consts.DVD_SECTOR_SIZE))
	b.AddFileAfterGap("VIDEO_TS/VTS_01_1.VOB", make([]byte, 40*consts.DVD_SECTOR_SIZE), 2)
	b.AddFile("VIDEO_TS/VTS_01_2.VOB", make([]byte, 10*consts.DVD_SECTOR_SIZE))

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/disc.iso", b.Build(), 0o644))
	dev, err := device.Open("/disc.iso", option.WithFs(fs))
	require.NoError(t, err)
	defer dev.Close()
	vol, err := volume.Read(dev, nil)
	require.NoError(t, err)

	ts, err := LoadFromVolume(dev, vol, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, b.File("VIDEO_TS/VTS_01_1.VOB").Start, ts.VobStartSector())
	assert.Equal(t, []string{"VIDEO_TS/VTS_01_1.VOB", "VIDEO_TS/VTS_01_2.VOB"}, ts.VobFileNames())
	assert.Equal(t, int64(50*consts.DVD_SECTOR_SIZE), ts.VobSizeInBytes())
	assert.Equal(t, "/disc.iso", ts.DeviceName())
	assert.Equal(t, "MOVIE", ts.VolumeID())
	assert.Equal(t, 1, ts.VtsNumber())
	require.NotNil(t, ts.Title(1))

	_, err = LoadFromVolume(dev, vol, 2, nil)
	assert.Error(t, err)
}
