package ifo

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// StreamType is the kind of an elementary stream. The order of the values is the
// presentation order of the streams.
type StreamType int

const (
	StreamVideo StreamType = iota
	StreamAudio
	StreamSubtitle
)

func (t StreamType) String() string {
	switch t {
	case StreamVideo:
		return "video"
	case StreamAudio:
		return "audio"
	case StreamSubtitle:
		return "subtitle"
	default:
		return "unknown"
	}
}

func (t StreamType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Display aspect ratios of DVD video.
const (
	DisplayAspectRatio4x3  = 4.0 / 3.0
	DisplayAspectRatio16x9 = 16.0 / 9.0
)

// Stream describes one elementary stream of a title set, as declared in the IFO.
type Stream struct {
	Type StreamType `json:"type" yaml:"type"`
	// ID is the stream id in the MPEG-PS: 0x01E0 for video, codec dependent for audio,
	// 0x20 + index for subpictures.
	ID int `json:"id" yaml:"id"`
	// Language is the ISO-639 code, empty when not specified.
	Language           string  `json:"language,omitempty" yaml:"language,omitempty"`
	Channels           int     `json:"channels,omitempty" yaml:"channels,omitempty"`
	Impaired           bool    `json:"impaired,omitempty" yaml:"impaired,omitempty"`
	Commentary         bool    `json:"commentary,omitempty" yaml:"commentary,omitempty"`
	Forced             bool    `json:"forced,omitempty" yaml:"forced,omitempty"`
	Width              int     `json:"width,omitempty" yaml:"width,omitempty"`
	Height             int     `json:"height,omitempty" yaml:"height,omitempty"`
	DisplayAspectRatio float64 `json:"display_aspect_ratio,omitempty" yaml:"display_aspect_ratio,omitempty"`
}

// LanguageName returns the English name of the stream language, or the raw code when
// it is not a known ISO-639 code.
func (s *Stream) LanguageName() string {
	if s.Language == "" {
		return ""
	}
	tag, err := language.Parse(strings.ToLower(s.Language))
	if err != nil {
		return s.Language
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return s.Language
}

func (s *Stream) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s 0x%02X", s.Type, s.ID)
	switch s.Type {
	case StreamVideo:
		fmt.Fprintf(&b, ", %dx%d, DAR %.2f", s.Width, s.Height, s.DisplayAspectRatio)
	case StreamAudio:
		fmt.Fprintf(&b, ", %d channels", s.Channels)
	}
	if s.Language != "" {
		fmt.Fprintf(&b, ", %s", s.LanguageName())
	}
	if s.Impaired {
		b.WriteString(", impaired")
	}
	if s.Commentary {
		b.WriteString(", commentary")
	}
	if s.Forced {
		b.WriteString(", forced")
	}
	return b.String()
}

// streamLess orders streams by type, then in their order on the DVD. Audio streams
// carry their logical index in the low-order 3 bits of the id.
func streamLess(s1, s2 *Stream) bool {
	if s1.Type != s2.Type {
		return s1.Type < s2.Type
	}
	id1, id2 := s1.ID, s2.ID
	if s1.Type == StreamAudio {
		id1 &= 0x07
		id2 &= 0x07
	}
	return id1 < id2
}

// SortStreams sorts streams in presentation order.
func SortStreams(streams []*Stream) {
	sort.SliceStable(streams, func(i, j int) bool { return streamLess(streams[i], streams[j]) })
}
