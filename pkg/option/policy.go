package option

import (
	"fmt"
	"strings"
)

// BadSectorPolicy selects what happens when a sector cannot be read.
type BadSectorPolicy int

const (
	// ErrorOnBadSectors aborts the read.
	ErrorOnBadSectors BadSectorPolicy = iota
	// SkipBadSectors resynchronizes after the bad sector and omits it from the output.
	SkipBadSectors
	// ReadBadSectorsAsZero replaces the bad sector with zeroes, keeping the sector layout.
	ReadBadSectorsAsZero
)

func (p BadSectorPolicy) String() string {
	switch p {
	case ErrorOnBadSectors:
		return "fail"
	case SkipBadSectors:
		return "skip"
	case ReadBadSectorsAsZero:
		return "zero"
	default:
		return fmt.Sprintf("BadSectorPolicy(%d)", int(p))
	}
}

// ParseBadSectorPolicy accepts "fail", "skip" or "zero".
func ParseBadSectorPolicy(s string) (BadSectorPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fail", "error":
		return ErrorOnBadSectors, nil
	case "skip":
		return SkipBadSectors, nil
	case "zero":
		return ReadBadSectorsAsZero, nil
	default:
		return ErrorOnBadSectors, fmt.Errorf("invalid bad sector policy %q (fail, skip, zero)", s)
	}
}

// KeyCachePolicy selects when a seek asks the CSS service for a title key.
type KeyCachePolicy int

const (
	// KeyOnFileChange requests the key when the read position enters another VOB file.
	KeyOnFileChange KeyCachePolicy = iota
	// KeyOnEverySeek also requests the key on every explicit seek inside a VOB file.
	KeyOnEverySeek
	// KeyCached relies on the keys loaded in bulk when the medium was opened.
	KeyCached
)

func (p KeyCachePolicy) String() string {
	switch p {
	case KeyOnFileChange:
		return "vob-boundary"
	case KeyOnEverySeek:
		return "every-seek"
	case KeyCached:
		return "cached"
	default:
		return fmt.Sprintf("KeyCachePolicy(%d)", int(p))
	}
}

// ParseKeyCachePolicy accepts "vob-boundary", "every-seek" or "cached".
func ParseKeyCachePolicy(s string) (KeyCachePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "vob-boundary":
		return KeyOnFileChange, nil
	case "every-seek":
		return KeyOnEverySeek, nil
	case "cached":
		return KeyCached, nil
	default:
		return KeyOnFileChange, fmt.Errorf("invalid key cache policy %q (vob-boundary, every-seek, cached)", s)
	}
}

// NavPackPolicy selects what the demuxer does with navigation packs.
type NavPackPolicy int

const (
	// NavPackFix rewrites the LBA fields of navigation packs to their output position.
	NavPackFix NavPackPolicy = iota
	// NavPackUnchanged passes navigation packs through.
	NavPackUnchanged
	// NavPackRemove drops navigation packs from the output.
	NavPackRemove
)

func (p NavPackPolicy) String() string {
	switch p {
	case NavPackFix:
		return "fix"
	case NavPackUnchanged:
		return "unchanged"
	case NavPackRemove:
		return "remove"
	default:
		return fmt.Sprintf("NavPackPolicy(%d)", int(p))
	}
}

// ParseNavPackPolicy accepts "fix", "unchanged" or "remove".
func ParseNavPackPolicy(s string) (NavPackPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fix":
		return NavPackFix, nil
	case "unchanged":
		return NavPackUnchanged, nil
	case "remove":
		return NavPackRemove, nil
	default:
		return NavPackFix, fmt.Errorf("invalid navigation pack policy %q (fix, unchanged, remove)", s)
	}
}
