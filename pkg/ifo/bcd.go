package ifo

import "fmt"

// DecodeBCDDuration decodes a BCD playback time hh:mm:ss:ff. The two high bits of the
// frame byte select the frame rate: 11 = 30 fps, 01 = 25 fps, other values are illegal
// and give a zero rate. Frames are dropped, the result is in whole seconds.
func DecodeBCDDuration(v uint32) (seconds int, fps int, err error) {
	digits := [6]int{
		int(v>>28) & 0x0F, int(v>>24) & 0x0F,
		int(v>>20) & 0x0F, int(v>>16) & 0x0F,
		int(v>>12) & 0x0F, int(v>>8) & 0x0F,
	}
	for _, d := range digits {
		if d > 9 {
			return 0, 0, fmt.Errorf("invalid BCD playback time 0x%08X", v)
		}
	}
	hours := digits[0]*10 + digits[1]
	minutes := digits[2]*10 + digits[3]
	secs := digits[4]*10 + digits[5]

	switch (v >> 6) & 0x03 {
	case 3:
		fps = 30
	case 1:
		fps = 25
	}
	return hours*3600 + minutes*60 + secs, fps, nil
}
