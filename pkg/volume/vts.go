package volume

import (
	"fmt"
	"strconv"
	"strings"
)

// VtsInformationFileName returns the name of the IFO file of a video title set.
func VtsInformationFileName(vtsNumber int) string {
	return fmt.Sprintf("VTS_%02d_0.IFO", vtsNumber)
}

// VtsVideoFileName returns the name of a VOB file of a video title set. Part 0 is the
// menu VOB, parts 1 to 9 hold the titles.
func VtsVideoFileName(vtsNumber, part int) string {
	return fmt.Sprintf("VTS_%02d_%d.VOB", vtsNumber, part)
}

// VtsInformationFileNumber returns the title set number of a VTS_nn_0.IFO file name, or
// -1 if name is not a title set IFO.
func VtsInformationFileNumber(name string) int {
	name = strings.ToUpper(name)
	if len(name) != len("VTS_nn_0.IFO") || !strings.HasPrefix(name, "VTS_") || !strings.HasSuffix(name, "_0.IFO") {
		return -1
	}
	n, err := strconv.Atoi(name[4:6])
	if err != nil || n < 1 || n > 99 {
		return -1
	}
	return n
}

// VtsInformationFiles returns the VTS_nn_0.IFO files of the VIDEO_TS directory.
func (v *Volume) VtsInformationFiles() []*File {
	videoTS, ok := v.VideoTSDirectory()
	if !ok {
		return nil
	}
	var result []*File
	for _, f := range videoTS.files {
		if VtsInformationFileNumber(f.Name()) > 0 {
			result = append(result, f)
		}
	}
	return result
}

// VtsCount returns the number of video title sets of the DVD.
func (v *Volume) VtsCount() int {
	return len(v.VtsInformationFiles())
}

// KeySectors returns the start sectors of the VOB files whose title key is needed to
// descramble the medium: menu VOBs and the first title VOB of each title set.
func (v *Volume) KeySectors() []int {
	var sectors []int
	for _, f := range v.allFiles {
		name := strings.ToUpper(f.Name())
		if strings.HasSuffix(name, "_TS.VOB") || strings.HasSuffix(name, "_0.VOB") || strings.HasSuffix(name, "_1.VOB") {
			sectors = append(sectors, f.start)
		}
	}
	return sectors
}
