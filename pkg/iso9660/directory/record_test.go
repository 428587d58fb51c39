package directory

import (
	"testing"
	"time"

	dvdtest "github.com/bgrewell/dvd-kit/internal/testing"
	"github.com/bgrewell/dvd-kit/pkg/iso9660/encoding"
	"github.com/stretchr/testify/require"
)

func TestDirectoryRecord_Unmarshal(t *testing.T) {
	t.Run("file with version suffix", func(t *testing.T) {
		buf := make([]byte, 64)
		n := dvdtest.DirectoryRecord(buf, "VTS_01_1.VOB;1", 300, 5000, false)

		dr := &DirectoryRecord{}
		require.NoError(t, dr.Unmarshal(buf[:n]))
		require.Equal(t, uint8(n), dr.LengthOfDirectoryRecord)
		require.Equal(t, uint32(300), dr.LocationOfExtent)
		require.Equal(t, uint32(5000), dr.DataLength)
		require.False(t, dr.IsDirectory())
		require.False(t, dr.IsSpecial())
		require.Equal(t, "VTS_01_1.VOB;1", dr.FileIdentifier)
		require.Equal(t, "VTS_01_1.VOB", dr.Name())
		require.Equal(t, 3, dr.SectorCount())
		require.True(t, dr.RecordingDateAndTime.IsZero())
	})

	t.Run("recording date", func(t *testing.T) {
		buf := make([]byte, 64)
		recorded := time.Date(2001, time.May, 2, 14, 0, 5, 0, time.FixedZone("", 3600))
		require.NoError(t, encoding.PutRecordingDateTime(buf[18:], recorded))
		n := dvdtest.DirectoryRecord(buf, "VIDEO_TS.BUP;1", 25, 2048, false)

		dr := &DirectoryRecord{}
		require.NoError(t, dr.Unmarshal(buf[:n]))
		require.True(t, recorded.Equal(dr.RecordingDateAndTime))
	})

	t.Run("self and parent records", func(t *testing.T) {
		buf := make([]byte, 34)
		dvdtest.DirectoryRecord(buf, "\x00", 18, 2048, true)
		dr := &DirectoryRecord{}
		require.NoError(t, dr.Unmarshal(buf))
		require.True(t, dr.IsDirectory())
		require.True(t, dr.IsSpecial())

		dvdtest.DirectoryRecord(buf, "\x01", 18, 2048, true)
		require.NoError(t, dr.Unmarshal(buf))
		require.True(t, dr.IsSpecial())
	})

	t.Run("record shorter than the header", func(t *testing.T) {
		buf := make([]byte, 40)
		buf[0] = 20
		err := (&DirectoryRecord{}).Unmarshal(buf)
		require.Error(t, err)
		require.Contains(t, err.Error(), "less than the minimum")
	})

	t.Run("truncated data", func(t *testing.T) {
		buf := make([]byte, 64)
		n := dvdtest.DirectoryRecord(buf, "VIDEO_TS.IFO;1", 20, 100, false)
		err := (&DirectoryRecord{}).Unmarshal(buf[:n-4])
		require.Error(t, err)
	})

	t.Run("identifier overflows the record", func(t *testing.T) {
		buf := make([]byte, 64)
		dvdtest.DirectoryRecord(buf, "A", 20, 100, false)
		buf[32] = 20
		err := (&DirectoryRecord{}).Unmarshal(buf)
		require.Error(t, err)
		require.Contains(t, err.Error(), "insufficient data for File Identifier")
	})
}

func TestStripVersion(t *testing.T) {
	require.Equal(t, "VIDEO_TS.IFO", StripVersion("VIDEO_TS.IFO;1"))
	require.Equal(t, "AUDIO_TS", StripVersion("AUDIO_TS"))
	require.Equal(t, "A", StripVersion("A;;2"))
}

func TestUnmarshalFileFlags(t *testing.T) {
	ff := UnmarshalFileFlags(0x83 | 0x60)
	require.True(t, ff.Hidden)
	require.True(t, ff.Directory)
	require.False(t, ff.AssociatedFile)
	require.True(t, ff.MultiExtent)
}
