package ifo

import (
	"fmt"
	"strings"

	"github.com/bgrewell/dvd-kit/pkg/consts"
)

// YUVToRGB converts a palette of (0, Y, Cr, Cb) entries into (0, R, G, B) entries. The
// integer shifts approximate r = y + 1.402 cr, g = y - 0.344 cb - 0.714 cr, b = y + 1.772 cb.
// A trailing partial entry is copied unchanged.
func YUVToRGB(palette []byte) []byte {
	rgb := make([]byte, len(palette))
	copy(rgb, palette)
	for base := 0; base+consts.PALETTE_ENTRY_SIZE <= len(rgb); base += consts.PALETTE_ENTRY_SIZE {
		y := int(rgb[base+1])
		cr := int(rgb[base+2]) - 128
		cb := int(rgb[base+3]) - 128
		r := y + cr + (cr >> 2) + (cr >> 3) + (cr >> 5)
		g := y - ((cb >> 2) + (cb >> 4) + (cb >> 5)) - ((cr >> 1) + (cr >> 3) + (cr >> 4) + (cr >> 5))
		b := y + cb + (cb >> 1) + (cb >> 2) + (cb >> 6)
		rgb[base+1] = clampByte(r)
		rgb[base+2] = clampByte(g)
		rgb[base+3] = clampByte(b)
	}
	return rgb
}

func clampByte(v int) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

// PaletteString formats a YUV or RGB palette as "rrggbb,rrggbb,...", the format used by
// subtitle tools.
func PaletteString(palette []byte) string {
	entries := make([]string, 0, len(palette)/consts.PALETTE_ENTRY_SIZE)
	for base := 0; base+consts.PALETTE_ENTRY_SIZE <= len(palette); base += consts.PALETTE_ENTRY_SIZE {
		entries = append(entries, fmt.Sprintf("%02x%02x%02x", palette[base+1], palette[base+2], palette[base+3]))
	}
	return strings.Join(entries, ",")
}
