package descriptor

import (
	"errors"
	"testing"
	"time"

	dvdtest "github.com/bgrewell/dvd-kit/internal/testing"
	"github.com/bgrewell/dvd-kit/pkg/consts"
	"github.com/bgrewell/dvd-kit/pkg/errs"
	"github.com/stretchr/testify/require"
)

func primarySector(t *testing.T) []byte {
	t.Helper()
	image := dvdtest.NewImage("MY_MOVIE").AddFile("VIDEO_TS/VIDEO_TS.IFO", make([]byte, 100)).Build()
	start := consts.ISO9660_SYSTEM_AREA_SECTORS * consts.ISO9660_SECTOR_SIZE
	return append([]byte(nil), image[start:start+consts.ISO9660_SECTOR_SIZE]...)
}

func TestVolumeDescriptorHeader_Unmarshal(t *testing.T) {
	h := &VolumeDescriptorHeader{}
	require.NoError(t, h.Unmarshal([]byte{0xFF, 'C', 'D', '0', '0', '1', 1}))
	require.Equal(t, TYPE_TERMINATOR_DESCRIPTOR, h.Type())
	require.Equal(t, "terminator", h.Type().String())

	err := h.Unmarshal([]byte{0x01, 'B', 'E', 'A', '0', '1', 1})
	require.True(t, errors.Is(err, errs.ErrInvalidVolume))
	require.Contains(t, err.Error(), `"BEA01"`)

	err = h.Unmarshal([]byte{0x01, 'C'})
	require.True(t, errors.Is(err, errs.ErrInvalidVolume))
}

func TestPrimaryVolumeDescriptor_Unmarshal(t *testing.T) {
	t.Run("happy path", func(t *testing.T) {
		pvd := &PrimaryVolumeDescriptor{}
		require.NoError(t, pvd.Unmarshal(primarySector(t)))
		require.Equal(t, "MY_MOVIE", pvd.VolumeIdentifier)
		require.Equal(t, uint32(21), pvd.VolumeSpaceSize)
		require.NotNil(t, pvd.RootDirectoryRecord)
		require.Equal(t, uint32(18), pvd.RootDirectoryRecord.LocationOfExtent)
		require.Equal(t, uint32(2048), pvd.RootDirectoryRecord.DataLength)
		require.True(t, pvd.RootDirectoryRecord.IsDirectory())
		require.True(t, pvd.VolumeCreationDate.IsZero())
	})

	t.Run("volume dates", func(t *testing.T) {
		created := time.Date(2003, time.October, 12, 9, 30, 0, 0, time.UTC)
		b := dvdtest.NewImage("MY_MOVIE").AddFile("VIDEO_TS/VIDEO_TS.IFO", make([]byte, 100))
		b.Created = created
		image := b.Build()
		start := consts.ISO9660_SYSTEM_AREA_SECTORS * consts.ISO9660_SECTOR_SIZE
		data := image[start : start+consts.ISO9660_SECTOR_SIZE]

		pvd := &PrimaryVolumeDescriptor{}
		require.NoError(t, pvd.Unmarshal(data))
		require.True(t, created.Equal(pvd.VolumeCreationDate))
		require.True(t, created.Equal(pvd.VolumeModificationDate))

		copy(data[consts.ISO9660_PVD_CREATION_DATE_OFFSET:], "20031399")
		require.NoError(t, pvd.Unmarshal(data))
		require.True(t, pvd.VolumeCreationDate.IsZero())
	})

	t.Run("not a primary descriptor", func(t *testing.T) {
		data := primarySector(t)
		data[0] = byte(TYPE_SUPPLEMENTARY_DESCRIPTOR)
		err := (&PrimaryVolumeDescriptor{}).Unmarshal(data)
		require.True(t, errors.Is(err, errs.ErrInvalidVolume))
	})

	t.Run("bad root record length", func(t *testing.T) {
		data := primarySector(t)
		data[consts.ISO9660_PVD_ROOT_RECORD_OFFSET] = 33
		err := (&PrimaryVolumeDescriptor{}).Unmarshal(data)
		require.True(t, errors.Is(err, errs.ErrNoRootDirectory))
	})

	t.Run("short sector", func(t *testing.T) {
		err := (&PrimaryVolumeDescriptor{}).Unmarshal(make([]byte, 100))
		require.True(t, errors.Is(err, errs.ErrInvalidVolume))
	})
}
