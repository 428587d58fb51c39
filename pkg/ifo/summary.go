package ifo

// Summary is a plain view of a title set for YAML and JSON dumps.
type Summary struct {
	VtsNumber      int            `json:"vts" yaml:"vts"`
	Device         string         `json:"device,omitempty" yaml:"device,omitempty"`
	VolumeID       string         `json:"volume_id,omitempty" yaml:"volume_id,omitempty"`
	Encrypted      bool           `json:"encrypted" yaml:"encrypted"`
	IfoFile        string         `json:"ifo_file,omitempty" yaml:"ifo_file,omitempty"`
	VobFiles       []string       `json:"vob_files,omitempty" yaml:"vob_files,omitempty"`
	VobSize        int64          `json:"vob_size" yaml:"vob_size"`
	VobStartSector int            `json:"vob_start_sector" yaml:"vob_start_sector"`
	Streams        []*Stream      `json:"streams" yaml:"streams"`
	Titles         []TitleSummary `json:"titles" yaml:"titles"`
}

// TitleSummary is a plain view of a program chain.
type TitleSummary struct {
	Number    int       `json:"number" yaml:"number"`
	Next      int       `json:"next,omitempty" yaml:"next,omitempty"`
	Previous  int       `json:"previous,omitempty" yaml:"previous,omitempty"`
	Parent    int       `json:"parent,omitempty" yaml:"parent,omitempty"`
	Duration  int       `json:"duration" yaml:"duration"`
	FrameRate int       `json:"frame_rate" yaml:"frame_rate"`
	Angles    int       `json:"angles,omitempty" yaml:"angles,omitempty"`
	Palette   string    `json:"palette" yaml:"palette"`
	Chapters  []Chapter `json:"chapters" yaml:"chapters"`
	Cells     []Cell    `json:"cells" yaml:"cells"`
}

func (ts *TitleSet) Summary() Summary {
	s := Summary{
		VtsNumber:      ts.vtsNumber,
		Device:         ts.deviceName,
		VolumeID:       ts.volumeID,
		Encrypted:      ts.isEncrypted,
		IfoFile:        ts.ifoFileName,
		VobFiles:       ts.vobFileNames,
		VobSize:        ts.vobSizeInBytes,
		VobStartSector: ts.vobStartSector,
		Streams:        ts.streams,
	}
	for _, pgc := range ts.pgcs {
		if pgc == nil {
			continue
		}
		s.Titles = append(s.Titles, TitleSummary{
			Number:    pgc.title,
			Next:      pgc.next,
			Previous:  pgc.previous,
			Parent:    pgc.parent,
			Duration:  pgc.duration,
			FrameRate: pgc.frameRate,
			Angles:    pgc.angleCount,
			Palette:   pgc.PaletteString(),
			Chapters:  pgc.chapters,
			Cells:     pgc.cells,
		})
	}
	return s
}
