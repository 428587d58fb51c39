package ifo

import (
	"encoding/binary"
	"errors"
	"testing"

	dvdtest "github.com/bgrewell/dvd-kit/internal/testing"
	"github.com/bgrewell/dvd-kit/pkg/consts"
	"github.com/bgrewell/dvd-kit/pkg/errs"
	"github.com/bgrewell/dvd-kit/pkg/sector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleIfo() *dvdtest.IfoBuilder {
	var palette [consts.PGC_PALETTE_SIZE]byte
	copy(palette[:], []byte{0, 0x10, 0x80, 0x80, 0, 0xEB, 0x80, 0x80})
	return &dvdtest.IfoBuilder{
		Standard:   1,
		Aspect:     3,
		Resolution: 0,
		Audio: []dvdtest.IfoAudio{
			{Coding: dvdtest.AudioMPEG1, Channels: 2, Language: "fr"},
			{Coding: dvdtest.AudioLPCM, Channels: 2},
			{Coding: dvdtest.AudioAC3, Channels: 6, Language: "en", Type: 3},
		},
		Subpictures: []dvdtest.IfoSubpicture{
			{Language: "en"}, {Language: "fr", Type: 1}, {}, {}, {Type: 13}, {Language: "de", Type: 9},
		},
		PGCs: []dvdtest.IfoPGC{{
			Title:    1,
			Duration: dvdtest.BCD(1, 2, 3, 15),
			Palette:  palette,
			Programs: []int{1, 3},
			Cells: []dvdtest.IfoCell{
				{Duration: dvdtest.BCD(0, 0, 10, 0), First: 0, Last: 9, VobID: 1, CellID: 1},
				{Duration: dvdtest.BCD(0, 1, 0, 0), First: 10, Last: 24, VobID: 1, CellID: 2},
				{Duration: dvdtest.BCD(0, 0, 5, 0), First: 30, Last: 39, VobID: 2, CellID: 1},
			},
		}},
		Addresses: []dvdtest.IfoAddress{
			{VobID: 1, CellID: 1, First: 0, Last: 9},
			{VobID: 1, CellID: 2, First: 10, Last: 19},
			{VobID: 1, CellID: 2, First: 20, Last: 24},
			{VobID: 2, CellID: 1, First: 30, Last: 39},
		},
	}
}

func TestDecodeStreams(t *testing.T) {
	ts, err := Decode(sampleIfo().Build(), nil)
	require.NoError(t, err)

	video := ts.VideoStream()
	assert.Equal(t, StreamVideo, video.Type)
	assert.Equal(t, 0x01E0, video.ID)
	assert.Equal(t, 720, video.Width)
	assert.Equal(t, 576, video.Height)
	assert.InDelta(t, 16.0/9.0, video.DisplayAspectRatio, 1e-9)

	audio := ts.AudioStreams()
	require.Len(t, audio, 3)
	assert.Equal(t, 0xC0, audio[0].ID)
	assert.Equal(t, "fr", audio[0].Language)
	assert.Equal(t, 0xA1, audio[1].ID)
	assert.Empty(t, audio[1].Language)
	assert.Equal(t, 0x82, audio[2].ID)
	assert.Equal(t, 6, audio[2].Channels)
	assert.True(t, audio[2].Commentary)
	assert.Equal(t, "English", audio[2].LanguageName())

	subs := ts.SubtitleStreams()
	require.Len(t, subs, 6)
	for i, s := range subs {
		assert.Equal(t, 0x20+i, s.ID)
	}
	assert.Equal(t, 0x25, subs[5].ID)
	assert.True(t, subs[5].Forced)
	assert.Equal(t, "German", subs[5].LanguageName())
	assert.True(t, subs[1].Impaired)
	assert.True(t, subs[4].Commentary)
	assert.False(t, subs[0].Impaired)

	streams := ts.Streams()
	require.Len(t, streams, 10)
	assert.Same(t, video, streams[0])
	assert.Equal(t, StreamAudio, streams[1].Type)
	assert.Equal(t, StreamSubtitle, streams[9].Type)
}

func TestDecodeVideoFormats(t *testing.T) {
	tests := []struct {
		standard, aspect, resolution byte
		width, height                int
		dar                          float64
	}{
		{0, 0, 0, 720, 480, 4.0 / 3.0},
		{0, 3, 1, 704, 480, 16.0 / 9.0},
		{0, 0, 3, 352, 240, 4.0 / 3.0},
		{1, 0, 2, 352, 576, 4.0 / 3.0},
		{1, 1, 3, 352, 288, 352.0 / 288.0},
	}
	for _, tt := range tests {
		b := sampleIfo()
		b.Standard, b.Aspect, b.Resolution = tt.standard, tt.aspect, tt.resolution
		ts, err := Decode(b.Build(), nil)
		require.NoError(t, err)
		v := ts.VideoStream()
		assert.Equal(t, tt.width, v.Width)
		assert.Equal(t, tt.height, v.Height)
		assert.InDelta(t, tt.dar, v.DisplayAspectRatio, 1e-9)
	}
}

func TestDecodeProgramChain(t *testing.T) {
	ts, err := Decode(sampleIfo().Build(), nil)
	require.NoError(t, err)
	require.Equal(t, 1, ts.TitleCount())
	assert.Equal(t, 2, ts.OriginalVobCount())
	assert.Len(t, ts.OriginalCells(), 4)

	pgc := ts.Title(1)
	require.NotNil(t, pgc)
	assert.Equal(t, 1, pgc.TitleNumber())
	assert.Equal(t, 3723, pgc.DurationInSeconds())
	assert.Equal(t, 30, pgc.FrameRate())
	assert.Zero(t, pgc.AngleCount())

	cells := pgc.Cells()
	require.Len(t, cells, 3)
	assert.Equal(t, sector.List{{First: 0, Last: 9}}, cells[0].Sectors)
	assert.Equal(t, sector.List{{First: 10, Last: 24}}, cells[1].Sectors)
	assert.Equal(t, 2, cells[2].OriginalVobID)
	assert.Equal(t, 1, cells[2].OriginalCellID)
	assert.Equal(t, 60, cells[1].DurationInSeconds)
	assert.Equal(t, 35, pgc.TotalSectorCount(0))

	assert.Equal(t, []Chapter{
		{Number: 1, FirstCell: 1, LastCell: 2},
		{Number: 2, FirstCell: 3, LastCell: 3},
	}, pgc.Chapters())
	assert.Equal(t, 70, pgc.Chapters()[0].DurationInSeconds(pgc))
	assert.Equal(t, 5, pgc.Chapters()[1].DurationInSeconds(pgc))

	assert.Nil(t, pgc.Cell(0))
	assert.Nil(t, pgc.Cell(4))
	assert.Equal(t, 3, pgc.Cell(3).ID)

	assert.Len(t, pgc.Palette(), 64)
	assert.Equal(t, []byte{0, 0x10, 0x10, 0x10}, pgc.RGBPalette()[:4])
	assert.Equal(t, "101010,ebebeb,", pgc.PaletteString()[:14])
}

func TestCellWithoutOriginalCell(t *testing.T) {
	b := sampleIfo()
	b.Addresses = b.Addresses[:1]
	ts, err := Decode(b.Build(), nil)
	require.NoError(t, err)
	assert.Equal(t, sector.List{{First: 30, Last: 39}}, ts.Title(1).Cell(3).Sectors)
}

func TestAngles(t *testing.T) {
	b := sampleIfo()
	b.PGCs[0].Programs = []int{1}
	b.PGCs[0].Cells = []dvdtest.IfoCell{
		{Category: 0x00, First: 0, Last: 9, VobID: 1, CellID: 1},
		{Category: 0x50, First: 10, Last: 14, VobID: 1, CellID: 2},
		{Category: 0x90, First: 15, Last: 19, VobID: 1, CellID: 3},
		{Category: 0xD0, First: 20, Last: 24, VobID: 1, CellID: 4},
		{Category: 0x00, First: 25, Last: 29, VobID: 1, CellID: 5},
	}
	b.Addresses = nil
	ts, err := Decode(b.Build(), nil)
	require.NoError(t, err)

	pgc := ts.Title(1)
	var angles []int
	for _, c := range pgc.Cells() {
		angles = append(angles, c.AngleID)
	}
	assert.Equal(t, []int{0, 1, 2, 3, 0}, angles)
	assert.Equal(t, 3, pgc.AngleCount())
	assert.Equal(t, 30, pgc.TotalSectorCount(0))
	assert.Equal(t, 20, pgc.TotalSectorCount(2))
	assert.True(t, pgc.Cell(1).InAngle(2))
	assert.False(t, pgc.Cell(2).InAngle(2))
}

func TestAnglesWithoutFirstCell(t *testing.T) {
	b := sampleIfo()
	b.PGCs[0].Programs = []int{1}
	b.PGCs[0].Cells = []dvdtest.IfoCell{
		{Category: 0x90, First: 0, Last: 4, VobID: 1, CellID: 1},
		{Category: 0xD0, First: 5, Last: 9, VobID: 1, CellID: 2},
		{Category: 0x50, First: 10, Last: 14, VobID: 1, CellID: 3},
		{Category: 0xD0, First: 15, Last: 19, VobID: 1, CellID: 4},
		{Category: 0x90, First: 20, Last: 24, VobID: 1, CellID: 5},
		{Category: 0xD0, First: 25, Last: 29, VobID: 1, CellID: 6},
	}
	b.Addresses = nil
	ts, err := Decode(b.Build(), nil)
	require.NoError(t, err)

	pgc := ts.Title(1)
	var angles []int
	for _, c := range pgc.Cells() {
		angles = append(angles, c.AngleID)
	}
	assert.Equal(t, []int{0, 0, 1, 2, 0, 0}, angles)
	assert.Equal(t, 2, pgc.AngleCount())
}

func TestAllTitles(t *testing.T) {
	b := sampleIfo()
	cells := b.PGCs[0].Cells
	b.PGCs = []dvdtest.IfoPGC{
		{Title: 1, Next: 2, Duration: dvdtest.BCD(0, 0, 10, 0), Programs: []int{1}, Cells: cells},
		{Title: 2, Previous: 1, Next: 3, Duration: dvdtest.BCD(0, 0, 20, 0), Programs: []int{1}, Cells: cells},
		{Title: 3, Previous: 2, Next: 1, Duration: dvdtest.BCD(0, 0, 30, 0), Programs: []int{1}, Cells: cells},
		{Title: 4, Duration: dvdtest.BCD(0, 0, 50, 0), Programs: []int{1}, Cells: cells},
	}
	ts, err := Decode(b.Build(), nil)
	require.NoError(t, err)
	require.Equal(t, 4, ts.TitleCount())

	titles := func(n int) []int {
		var out []int
		for _, pgc := range ts.AllTitles(n) {
			out = append(out, pgc.TitleNumber())
		}
		return out
	}
	assert.Equal(t, []int{1, 2, 3}, titles(2))
	assert.Equal(t, []int{1, 2, 3}, titles(1))
	assert.Equal(t, []int{1, 2, 3}, titles(3))
	assert.Equal(t, []int{4}, titles(4))
	assert.Empty(t, titles(5))

	assert.Equal(t, 60, ts.AllTitlesDurationInSeconds(2))
	assert.Equal(t, 50, ts.AllTitlesDurationInSeconds(4))
	assert.Equal(t, 60, ts.LongestDurationInSeconds())
}

func TestSkippedDescriptors(t *testing.T) {
	b := sampleIfo()
	b.PGCs = append(b.PGCs, b.PGCs[0])
	b.PGCs[1].Title = 2
	b.PGCs[1].Invalid = true
	ts, err := Decode(b.Build(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, ts.TitleCount())

	// Title number out of range.
	data := sampleIfo().Build()
	desc := consts.DVD_SECTOR_SIZE + consts.IFO_PGCI_HEADER_SIZE
	data[desc] = 0x80 | 0x05
	ts, err = Decode(data, nil)
	require.NoError(t, err)
	assert.Zero(t, ts.TitleCount())
	assert.Nil(t, ts.Title(1))
}

func TestDecodeErrors(t *testing.T) {
	malformed := func(t *testing.T, data []byte) *errs.IfoError {
		t.Helper()
		_, err := Decode(data, nil)
		require.True(t, errors.Is(err, errs.ErrMalformedIfo), "%v", err)
		var ifoErr *errs.IfoError
		require.True(t, errors.As(err, &ifoErr))
		return ifoErr
	}

	t.Run("identifier", func(t *testing.T) {
		data := sampleIfo().Build()
		copy(data, "DVDVIDEO-VMG")
		assert.Zero(t, malformed(t, data).Offset)
	})

	t.Run("short", func(t *testing.T) {
		malformed(t, sampleIfo().Build()[:0x100])
	})

	t.Run("no program chain", func(t *testing.T) {
		b := sampleIfo()
		b.PGCs = nil
		malformed(t, b.Build())
	})

	t.Run("PGCI beyond end", func(t *testing.T) {
		data := sampleIfo().Build()
		binary.BigEndian.PutUint32(data[consts.IFO_VTS_PGCI_OFFSET:], 100)
		assert.Equal(t, consts.IFO_VTS_PGCI_OFFSET, malformed(t, data).Offset)
	})

	t.Run("C_ADT beyond end", func(t *testing.T) {
		data := sampleIfo().Build()
		binary.BigEndian.PutUint32(data[consts.IFO_VTS_C_ADT_OFFSET:], 100)
		assert.Equal(t, consts.IFO_VTS_C_ADT_OFFSET, malformed(t, data).Offset)
	})

	t.Run("PGC beyond end", func(t *testing.T) {
		data := sampleIfo().Build()
		desc := consts.DVD_SECTOR_SIZE + consts.IFO_PGCI_HEADER_SIZE
		binary.BigEndian.PutUint32(data[desc+4:], uint32(len(data)))
		_, err := Decode(data, nil)
		require.True(t, errors.Is(err, errs.ErrMalformedIfo))
		assert.Contains(t, err.Error(), "title 1")
	})

	t.Run("chapter beyond cells", func(t *testing.T) {
		b := sampleIfo()
		b.PGCs[0].Programs = []int{1, 4}
		malformed(t, b.Build())
	})

	t.Run("chapters out of order", func(t *testing.T) {
		b := sampleIfo()
		b.PGCs[0].Programs = []int{1, 3, 2}
		malformed(t, b.Build())
	})

	t.Run("cell sectors", func(t *testing.T) {
		b := sampleIfo()
		b.PGCs[0].Cells[1].First = 30
		malformed(t, b.Build())
	})

	t.Run("BCD duration", func(t *testing.T) {
		b := sampleIfo()
		b.PGCs[0].Duration = 0x0A000000
		malformed(t, b.Build())
	})
}

func TestDecodeBCDDuration(t *testing.T) {
	seconds, fps, err := DecodeBCDDuration(dvdtest.BCD(1, 2, 3, 4))
	require.NoError(t, err)
	assert.Equal(t, 3723, seconds)
	assert.Equal(t, 30, fps)

	seconds, fps, err = DecodeBCDDuration(0x00594540 | 0x12)
	require.NoError(t, err)
	assert.Equal(t, 59*60+45, seconds)
	assert.Equal(t, 25, fps)

	_, fps, err = DecodeBCDDuration(0)
	require.NoError(t, err)
	assert.Zero(t, fps)

	_, _, err = DecodeBCDDuration(0x00F00000)
	assert.Error(t, err)
}

func TestYUVToRGB(t *testing.T) {
	assert.Equal(t, []byte{0, 173, 0, 16}, YUVToRGB([]byte{0, 0x10, 0xF0, 0x80}))
	assert.Equal(t, []byte{0, 75, 255, 255}, YUVToRGB([]byte{0, 0xFF, 0x00, 0x80}))
	assert.Equal(t, []byte{0, 0x10, 0x10, 0x10, 9}, YUVToRGB([]byte{0, 0x10, 0x80, 0x80, 9}))

	in := []byte{0, 0x10, 0x80, 0x80}
	YUVToRGB(in)
	assert.Equal(t, []byte{0, 0x10, 0x80, 0x80}, in)

	t.Run("total", func(t *testing.T) {
		entry := make([]byte, 4)
		for y := 0; y < 256; y++ {
			for cr := 0; cr < 256; cr++ {
				for cb := 0; cb < 256; cb++ {
					entry[1], entry[2], entry[3] = byte(y), byte(cr), byte(cb)
					if rgb := YUVToRGB(entry); len(rgb) != 4 {
						t.Fatalf("YUV %v converted to %v", entry, rgb)
					}
				}
			}
		}
	})
}

func TestPaletteString(t *testing.T) {
	assert.Equal(t, "102030,a0b0c0", PaletteString([]byte{0, 0x10, 0x20, 0x30, 0, 0xA0, 0xB0, 0xC0, 0}))
	assert.Empty(t, PaletteString(nil))
}
