// Package encoding reads and writes the ISO-9660 field encodings found in volume
// descriptors and directory records.
package encoding

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"time"
)

// Sizes of the date and time fields.
const (
	DateTimeSize          = 17
	RecordingDateTimeSize = 7
)

// PutBothByteOrders32 writes val into the 8-byte field dst, little-endian first.
func PutBothByteOrders32(dst []byte, val uint32) {
	binary.LittleEndian.PutUint32(dst[0:4], val)
	binary.BigEndian.PutUint32(dst[4:8], val)
}

// PutBothByteOrders16 writes val into the 4-byte field dst, little-endian first.
func PutBothByteOrders16(dst []byte, val uint16) {
	binary.LittleEndian.PutUint16(dst[0:2], val)
	binary.BigEndian.PutUint16(dst[2:4], val)
}

// BothByteOrders32 decodes an 8-byte both-byte-order field. Some mastering tools only fill
// the little-endian half, so that half is returned and consistent reports whether the
// big-endian half agrees.
func BothByteOrders32(src []byte) (val uint32, consistent bool) {
	val = binary.LittleEndian.Uint32(src[0:4])
	return val, val == binary.BigEndian.Uint32(src[4:8])
}

// PutString writes s into dst padded with spaces. Longer strings are cut.
func PutString(dst []byte, s string) {
	n := copy(dst, s)
	for i := n; i < len(dst); i++ {
		dst[i] = ' '
	}
}

// PutDateTime writes t as a 17-byte volume descriptor date: 16 ASCII digits
// YYYYMMDDhhmmsscc followed by the offset from GMT in 15 minute units. The zero time is
// written as "unspecified", all digits zero.
func PutDateTime(dst []byte, t time.Time) error {
	if t.IsZero() {
		for i := 0; i < 16; i++ {
			dst[i] = '0'
		}
		dst[16] = 0
		return nil
	}
	if t.Year() < 1 || t.Year() > 9999 {
		return fmt.Errorf("year %d does not fit a volume date", t.Year())
	}
	digits := fmt.Sprintf("%04d%02d%02d%02d%02d%02d%02d", t.Year(), t.Month(), t.Day(),
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond()/10_000_000)
	copy(dst, digits)
	_, offset := t.Zone()
	dst[16] = byte(int8(offset / 900))
	return nil
}

// DateTime decodes a 17-byte volume descriptor date. The unspecified date, all digits
// zero or all blanks, decodes as the zero time.
func DateTime(src []byte) (time.Time, error) {
	if len(src) < DateTimeSize {
		return time.Time{}, fmt.Errorf("volume date needs %d bytes, got %d", DateTimeSize, len(src))
	}
	unspecified := true
	for _, c := range src[:16] {
		if c != '0' && c != 0 && c != ' ' {
			unspecified = false
			break
		}
	}
	if unspecified {
		return time.Time{}, nil
	}

	fields := [7]int{}
	widths := [7]int{4, 2, 2, 2, 2, 2, 2}
	pos := 0
	for i, w := range widths {
		v, err := strconv.Atoi(string(src[pos : pos+w]))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid volume date %q", src[:16])
		}
		fields[i] = v
		pos += w
	}
	if fields[1] < 1 || fields[1] > 12 || fields[2] < 1 || fields[2] > 31 {
		return time.Time{}, fmt.Errorf("invalid volume date %q", src[:16])
	}
	loc := time.FixedZone("", int(int8(src[16]))*900)
	return time.Date(fields[0], time.Month(fields[1]), fields[2], fields[3], fields[4], fields[5],
		fields[6]*10_000_000, loc), nil
}

// PutRecordingDateTime writes t as a 7-byte directory record date: years since 1900,
// month, day, hour, minute, second and the offset from GMT in 15 minute units.
func PutRecordingDateTime(dst []byte, t time.Time) error {
	if t.IsZero() {
		clear(dst[:RecordingDateTimeSize])
		return nil
	}
	if t.Year() < 1900 || t.Year() > 1900+255 {
		return fmt.Errorf("year %d does not fit a recording date", t.Year())
	}
	dst[0] = byte(t.Year() - 1900)
	dst[1] = byte(t.Month())
	dst[2] = byte(t.Day())
	dst[3] = byte(t.Hour())
	dst[4] = byte(t.Minute())
	dst[5] = byte(t.Second())
	_, offset := t.Zone()
	dst[6] = byte(int8(offset / 900))
	return nil
}

// RecordingDateTime decodes a 7-byte directory record date. A date without month or day,
// as written by tools that leave the field blank, decodes as the zero time.
func RecordingDateTime(src []byte) time.Time {
	if len(src) < RecordingDateTimeSize || src[1] == 0 || src[2] == 0 {
		return time.Time{}
	}
	loc := time.FixedZone("", int(int8(src[6]))*900)
	return time.Date(1900+int(src[0]), time.Month(src[1]), int(src[2]),
		int(src[3]), int(src[4]), int(src[5]), 0, loc)
}
