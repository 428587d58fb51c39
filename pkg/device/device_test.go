package device

import (
	"errors"
	"path/filepath"
	"testing"

	dvdtest "github.com/bgrewell/dvd-kit/internal/testing"
	"github.com/bgrewell/dvd-kit/pkg/consts"
	"github.com/bgrewell/dvd-kit/pkg/css"
	"github.com/bgrewell/dvd-kit/pkg/errs"
	"github.com/bgrewell/dvd-kit/pkg/option"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// numberedMedium returns a medium where the first byte of each sector is its number.
func numberedMedium(sectors int) *dvdtest.FakeMedium {
	data := make([]byte, sectors*consts.DVD_SECTOR_SIZE)
	for i := 0; i < sectors; i++ {
		data[i*consts.DVD_SECTOR_SIZE] = byte(i)
		data[i*consts.DVD_SECTOR_SIZE+1] = 0xFF
	}
	return &dvdtest.FakeMedium{Data: data, Bad: map[int]bool{}}
}

func openFake(t *testing.T, m *dvdtest.FakeMedium, opts ...option.OpenOption) *Device {
	t.Helper()
	opts = append([]option.OpenOption{option.WithService(dvdtest.NewFakeService("/dev/sr0", m))}, opts...)
	d, err := Open("/dev/sr0", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func sectorNumbers(buf []byte, n int) []int {
	var out []int
	for i := 0; i < n; i++ {
		s := buf[i*consts.DVD_SECTOR_SIZE:]
		if s[1] == 0 {
			out = append(out, -1)
		} else {
			out = append(out, int(s[0]))
		}
	}
	return out
}

func TestOpen(t *testing.T) {
	t.Run("unknown device", func(t *testing.T) {
		_, err := Open("/dev/sr1", option.WithService(dvdtest.NewFakeService("/dev/sr0", numberedMedium(1))))
		require.True(t, errors.Is(err, errs.ErrDevice))
	})

	t.Run("image through afero", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/disc.iso", make([]byte, 4*consts.DVD_SECTOR_SIZE), 0o644))
		d, err := Open("/disc.iso", option.WithFs(fs))
		require.NoError(t, err)
		require.Equal(t, 4, d.SizeInSectors())
		require.False(t, d.IsScrambled())
		require.Equal(t, "/disc.iso", d.Name())
		require.NoError(t, d.Close())
		require.Error(t, d.Close())
	})

	t.Run("exclusive lock", func(t *testing.T) {
		dir := t.TempDir()
		name := filepath.Join(dir, "disc.iso")
		fs := afero.NewOsFs()
		require.NoError(t, afero.WriteFile(fs, name, make([]byte, 2*consts.DVD_SECTOR_SIZE), 0o644))

		first, err := Open(name, option.WithExclusiveLock(true))
		require.NoError(t, err)
		_, err = Open(name, option.WithExclusiveLock(true))
		require.True(t, errors.Is(err, errs.ErrDevice))
		require.NoError(t, first.Close())

		again, err := Open(name, option.WithExclusiveLock(true))
		require.NoError(t, err)
		require.NoError(t, again.Close())
	})
}

func TestReadSectors(t *testing.T) {
	t.Run("sequential reads", func(t *testing.T) {
		d := openFake(t, numberedMedium(10))
		buf := make([]byte, 4*consts.DVD_SECTOR_SIZE)

		n, err := d.ReadSectors(buf, 4, 2, option.ErrorOnBadSectors)
		require.NoError(t, err)
		require.Equal(t, []int{2, 3, 4, 5}, sectorNumbers(buf, n))
		require.Equal(t, 6, d.NextSector())

		n, err = d.ReadSectors(buf, 4, CurrentPosition, option.ErrorOnBadSectors)
		require.NoError(t, err)
		require.Equal(t, []int{6, 7, 8, 9}, sectorNumbers(buf, n))

		n, err = d.ReadSectors(buf, 4, CurrentPosition, option.ErrorOnBadSectors)
		require.NoError(t, err)
		require.Zero(t, n)
	})

	t.Run("fail policy returns partial count and error", func(t *testing.T) {
		m := numberedMedium(10)
		m.Bad[5] = true
		d := openFake(t, m)
		buf := make([]byte, 10*consts.DVD_SECTOR_SIZE)

		n, err := d.ReadSectors(buf, 10, 0, option.ErrorOnBadSectors)
		require.True(t, errors.Is(err, errs.ErrDevice))
		require.Equal(t, 5, n)
		require.Equal(t, 5, d.NextSector())
	})

	t.Run("skip policy omits bad sectors", func(t *testing.T) {
		m := numberedMedium(10)
		m.Bad[5] = true
		m.Bad[6] = true
		d := openFake(t, m)
		buf := make([]byte, 10*consts.DVD_SECTOR_SIZE)

		n, err := d.ReadSectors(buf, 10, 0, option.SkipBadSectors)
		require.NoError(t, err)
		require.Equal(t, []int{0, 1, 2, 3, 4, 7, 8, 9}, sectorNumbers(buf, n))
		require.Equal(t, 10, d.NextSector())
	})

	t.Run("zero policy keeps the layout", func(t *testing.T) {
		m := numberedMedium(10)
		m.Bad[5] = true
		d := openFake(t, m)
		buf := make([]byte, 10*consts.DVD_SECTOR_SIZE)

		n, err := d.ReadSectors(buf, 10, 0, option.ReadBadSectorsAsZero)
		require.NoError(t, err)
		require.Equal(t, []int{0, 1, 2, 3, 4, -1, 6, 7, 8, 9}, sectorNumbers(buf, n))
	})

	t.Run("too many consecutive bad sectors", func(t *testing.T) {
		m := numberedMedium(100)
		for s := 10; s < 10+consts.DVD_BAD_SECTOR_RETRY+1; s++ {
			m.Bad[s] = true
		}
		d := openFake(t, m)
		buf := make([]byte, 100*consts.DVD_SECTOR_SIZE)

		n, err := d.ReadSectors(buf, 100, 0, option.SkipBadSectors)
		require.True(t, errors.Is(err, errs.ErrDevice))
		require.Equal(t, 10, n)
		require.Equal(t, 10+consts.DVD_BAD_SECTOR_RETRY, d.NextSector())
	})

	t.Run("position after the read", func(t *testing.T) {
		m := numberedMedium(10)
		m.Bad[4] = true
		d := openFake(t, m)
		buf := make([]byte, 3*consts.DVD_SECTOR_SIZE)

		n, next, err := d.ReadSectorsAt(buf, 3, 2, option.SkipBadSectors)
		require.NoError(t, err)
		require.Equal(t, []int{2, 3, 5}, sectorNumbers(buf, n))
		require.Equal(t, 6, next)

		m.ResetCalls()
		n, next, err = d.ReadSectorsAt(buf, 2, 6, option.ErrorOnBadSectors)
		require.NoError(t, err)
		require.Equal(t, []int{6, 7}, sectorNumbers(buf, n))
		require.Equal(t, 8, next)
		require.Empty(t, m.Seeks())
	})

	t.Run("short buffer", func(t *testing.T) {
		d := openFake(t, numberedMedium(4))
		_, err := d.ReadSectors(make([]byte, 100), 1, 0, option.ErrorOnBadSectors)
		require.Error(t, err)
	})
}

func scrambledLayout() []Extent {
	return []Extent{
		{Path: "", Start: 0, End: 16},
		{Path: "VIDEO_TS/VTS_01_0.IFO", Start: 16, End: 18},
		{Path: "VIDEO_TS/VTS_01_1.VOB", Start: 18, End: 24, Vob: true},
		{Path: "VIDEO_TS/VTS_01_2.VOB", Start: 24, End: 30, Vob: true},
	}
}

func TestLayoutAwareReads(t *testing.T) {
	t.Run("reads stop at file boundaries and decrypt VOBs", func(t *testing.T) {
		m := numberedMedium(30)
		m.Scrambled = true
		d := openFake(t, m)
		d.SetLayout(scrambledLayout(), 30)
		require.True(t, d.HasLayout())
		require.True(t, d.IsScrambled())
		m.ResetCalls()

		buf := make([]byte, 12*consts.DVD_SECTOR_SIZE)
		n, err := d.ReadSectors(buf, 12, 14, option.ErrorOnBadSectors)
		require.NoError(t, err)
		require.Equal(t, []int{14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24, 25}, sectorNumbers(buf, n))

		require.Equal(t, []dvdtest.Read{
			{Sector: 14, Count: 2, Flags: css.NoReadFlags},
			{Sector: 16, Count: 2, Flags: css.NoReadFlags},
			{Sector: 18, Count: 6, Flags: css.ReadDecrypt},
			{Sector: 24, Count: 2, Flags: css.ReadDecrypt},
		}, m.Reads())

		var keySeeks []int
		for _, s := range m.Seeks() {
			if s.Flags == css.SeekKey {
				keySeeks = append(keySeeks, s.Sector)
			}
		}
		require.Equal(t, []int{18, 24}, keySeeks)
	})

	t.Run("every seek policy requests a key on explicit seeks", func(t *testing.T) {
		m := numberedMedium(30)
		m.Scrambled = true
		d := openFake(t, m, option.WithKeyCachePolicy(option.KeyOnEverySeek))
		d.SetLayout(scrambledLayout(), 30)

		require.NoError(t, d.Seek(20))
		m.ResetCalls()
		require.NoError(t, d.Seek(21))
		require.Equal(t, []dvdtest.Seek{{Sector: 21, Flags: css.SeekKey}}, m.Seeks())
	})

	t.Run("cached policy never requests keys", func(t *testing.T) {
		m := numberedMedium(30)
		m.Scrambled = true
		d := openFake(t, m, option.WithKeyCachePolicy(option.KeyCached))
		d.SetLayout(scrambledLayout(), 30)
		m.ResetCalls()

		buf := make([]byte, 12*consts.DVD_SECTOR_SIZE)
		_, err := d.ReadSectors(buf, 12, 16, option.ErrorOnBadSectors)
		require.NoError(t, err)
		for _, s := range m.Seeks() {
			require.NotEqual(t, css.SeekKey, s.Flags)
		}
	})

	t.Run("unscrambled media never request keys", func(t *testing.T) {
		m := numberedMedium(30)
		d := openFake(t, m)
		d.SetLayout(scrambledLayout(), 30)
		m.ResetCalls()

		buf := make([]byte, 12*consts.DVD_SECTOR_SIZE)
		_, err := d.ReadSectors(buf, 12, 16, option.ErrorOnBadSectors)
		require.NoError(t, err)
		for _, r := range m.Reads() {
			require.Equal(t, css.NoReadFlags, r.Flags)
		}
	})

	t.Run("reads stop at the volume end", func(t *testing.T) {
		d := openFake(t, numberedMedium(30))
		d.SetLayout(scrambledLayout()[:3], 24)
		buf := make([]byte, 10*consts.DVD_SECTOR_SIZE)
		n, err := d.ReadSectors(buf, 10, 20, option.ErrorOnBadSectors)
		require.NoError(t, err)
		require.Equal(t, 4, n)
	})
}

func TestSeekOutOfRange(t *testing.T) {
	m := numberedMedium(30)
	d := openFake(t, m)
	buf := make([]byte, consts.DVD_SECTOR_SIZE)

	require.True(t, errors.Is(d.Seek(-2), errs.ErrSectorNotFound))
	for _, sector := range []int{30, 31} {
		_, err := d.ReadSectors(buf, 1, sector, option.ErrorOnBadSectors)
		require.True(t, errors.Is(err, errs.ErrSectorNotFound), "sector %d", sector)
	}

	d.SetLayout(scrambledLayout()[:3], 30)
	m.ResetCalls()
	require.True(t, errors.Is(d.Seek(26), errs.ErrSectorNotFound))
	require.Empty(t, m.Seeks())
	require.NoError(t, d.Seek(23))
}

func TestLoadKeys(t *testing.T) {
	m := numberedMedium(30)
	m.Scrambled = true
	d := openFake(t, m)
	require.NoError(t, d.Seek(3))
	m.ResetCalls()

	require.NoError(t, d.LoadKeys([]int{18, 24}))
	require.Equal(t, []dvdtest.Seek{
		{Sector: 18, Flags: css.SeekKey},
		{Sector: 24, Flags: css.SeekKey},
		{Sector: 3, Flags: css.SeekMPEG},
	}, m.Seeks())

	err := d.LoadKeys([]int{99})
	require.True(t, errors.Is(err, errs.ErrDevice))
}
