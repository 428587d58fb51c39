package ifo

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bgrewell/dvd-kit/pkg/consts"
	"github.com/bgrewell/dvd-kit/pkg/logging"
	"github.com/bgrewell/dvd-kit/pkg/volume"
	"github.com/spf13/afero"
)

// FileNames are the files of a title set in a directory.
type FileNames struct {
	VtsNumber      int
	IfoFileName    string
	VobFileNames   []string
	VobSizeInBytes int64
}

// IsTitleSetFileName reports whether name looks like a title set IFO (VTS_nn_0.IFO) or
// VOB (VTS_nn_n.VOB). The directory part is ignored.
func IsTitleSetFileName(name string) bool {
	base := filepath.Base(name)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	switch strings.ToUpper(ext) {
	case ".IFO":
		return strings.HasSuffix(stem, "_0")
	case ".VOB":
		n := len(stem)
		return n > 2 && stem[n-2] == '_' && stem[n-1] >= '0' && stem[n-1] <= '9'
	default:
		return false
	}
}

// BuildFileNames locates all files of the title set of name, any IFO or VOB of the set.
// Title VOBs VTS_nn_1.VOB to VTS_nn_9.VOB are taken while they exist, at least one is
// required, and so is VTS_nn_0.IFO.
func BuildFileNames(fs afero.Fs, name string) (*FileNames, error) {
	if !IsTitleSetFileName(name) {
		return nil, fmt.Errorf("%s is not a DVD title set file", name)
	}
	dir := filepath.Dir(name)
	stem := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	stem = stem[:len(stem)-2]

	files := &FileNames{VtsNumber: -1}
	if i := strings.LastIndexByte(stem, '_'); i >= 0 {
		if n, err := strconv.Atoi(stem[i+1:]); err == nil && n >= 0 && n <= 99 {
			files.VtsNumber = n
		}
	}

	for part := 1; part <= consts.DVD_MAX_VOB_PARTS; part++ {
		vob := filepath.Join(dir, fmt.Sprintf("%s_%d.VOB", stem, part))
		info, err := fs.Stat(vob)
		if err != nil {
			break
		}
		files.VobFileNames = append(files.VobFileNames, vob)
		files.VobSizeInBytes += info.Size()
	}
	if len(files.VobFileNames) == 0 {
		return nil, fmt.Errorf("no VOB file for %s", name)
	}

	files.IfoFileName = filepath.Join(dir, stem+"_0.IFO")
	if _, err := fs.Stat(files.IfoFileName); err != nil {
		return nil, fmt.Errorf("DVD IFO file not found: %w", err)
	}
	return files, nil
}

// LoadFile decodes the title set of name, any IFO or VOB of the set, from a filesystem.
func LoadFile(fs afero.Fs, name string, log *logging.Logger) (*TitleSet, error) {
	files, err := BuildFileNames(fs, name)
	if err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(fs, files.IfoFileName)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", files.IfoFileName, err)
	}
	ts, err := Decode(data, log)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", files.IfoFileName, err)
	}
	ts.vtsNumber = files.VtsNumber
	ts.ifoFileName = files.IfoFileName
	ts.vobFileNames = files.VobFileNames
	ts.vobSizeInBytes = files.VobSizeInBytes
	return ts, nil
}

// Medium is a device holding a DVD volume.
type Medium interface {
	volume.SectorReader
	Name() string
	IsScrambled() bool
}

// LoadFromVolume decodes title set vtsNumber from the VIDEO_TS directory of a volume. The
// file names are paths in the volume and VobStartSector is set.
func LoadFromVolume(medium Medium, vol *volume.Volume, vtsNumber int, log *logging.Logger) (*TitleSet, error) {
	ifoName := "VIDEO_TS/" + volume.VtsInformationFileName(vtsNumber)
	ifoFile, ok := vol.SearchPath(ifoName)
	if !ok {
		return nil, fmt.Errorf("DVD IFO file not found: %s on %s", ifoName, medium.Name())
	}

	files := &FileNames{VtsNumber: vtsNumber, IfoFileName: ifoFile.Path()}
	var firstVob *volume.File
	for part := 1; part <= consts.DVD_MAX_VOB_PARTS; part++ {
		vob, ok := vol.SearchPath("VIDEO_TS/" + volume.VtsVideoFileName(vtsNumber, part))
		if !ok {
			break
		}
		if firstVob == nil {
			firstVob = vob
		}
		files.VobFileNames = append(files.VobFileNames, vob.Path())
		files.VobSizeInBytes += vob.SizeInBytes()
	}
	if firstVob == nil {
		return nil, fmt.Errorf("no VOB file for %s on %s", ifoName, medium.Name())
	}

	data, err := vol.ReadFile(medium, ifoFile)
	if err != nil {
		return nil, err
	}
	ts, err := Decode(data, log)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ifoName, err)
	}
	ts.deviceName = medium.Name()
	ts.volumeID = vol.ID()
	ts.isEncrypted = medium.IsScrambled()
	ts.vtsNumber = files.VtsNumber
	ts.ifoFileName = files.IfoFileName
	ts.vobFileNames = files.VobFileNames
	ts.vobSizeInBytes = files.VobSizeInBytes
	ts.vobStartSector = firstVob.StartSector()
	return ts, nil
}
