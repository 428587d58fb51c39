package directory

import (
	"fmt"
	"strings"
	"time"

	"github.com/bgrewell/dvd-kit/pkg/consts"
	"github.com/bgrewell/dvd-kit/pkg/iso9660/encoding"
)

// Field offsets in a directory record.
const (
	offsetLocationOfExtent  = 2
	offsetDataLength        = 10
	offsetRecordingDate     = 18
	offsetFileFlags         = 25
	offsetLengthOfFileIdent = 32
	offsetFileIdentifier    = 33
)

// DirectoryRecord is the subset of an ECMA-119 §9.1 directory record used to walk a DVD.
type DirectoryRecord struct {
	// Length Of Directory Record specifies the length of the directory record in bytes.
	// A zero length marks the end of the records in the current sector.
	LengthOfDirectoryRecord uint8 `json:"length_of_directory_record"`
	// Location of Extent specifies the Logical Block Number of the first Logical Block allocated to the Extent.
	//  | Encoding: BothByteOrder, the little-endian half is used
	LocationOfExtent uint32 `json:"location_of_extent"`
	// Data Length specifies the data length of the File Section.
	//  | Encoding: BothByteOrder, the little-endian half is used
	DataLength uint32 `json:"data_length"`
	// Recording Date and Time of the extent, zero when not recorded.
	RecordingDateAndTime time.Time `json:"recording_date_and_time"`
	// File Flags is an 8-bit field that records flags related to the Directory Record.
	FileFlags FileFlags `json:"file_flags"`
	// Length of File Identifier specifies the length in bytes of the File Identifier field of the Directory Record.
	LengthOfFileIdentifier uint8 `json:"length_of_file_identifier"`
	// File Identifier as recorded, including the ";version" suffix of files. Directories
	// may use the special single byte identifiers 0x00 (self) and 0x01 (parent).
	FileIdentifier string `json:"file_identifier"`
}

// IsDirectory checks if the entry is a Directory
func (dr *DirectoryRecord) IsDirectory() bool {
	return dr.FileFlags.Directory
}

// IsSpecial checks for "." or ".."
func (dr *DirectoryRecord) IsSpecial() bool {
	return dr.FileIdentifier == "\x00" || dr.FileIdentifier == "\x01"
}

// Name returns the file identifier without its ";version" suffix.
func (dr *DirectoryRecord) Name() string {
	return StripVersion(dr.FileIdentifier)
}

// SectorCount returns the number of sectors of the extent.
func (dr *DirectoryRecord) SectorCount() int {
	return int((uint64(dr.DataLength) + consts.ISO9660_SECTOR_SIZE - 1) / consts.ISO9660_SECTOR_SIZE)
}

// StripVersion removes a trailing ";version" from an ISO-9660 file identifier.
func StripVersion(name string) string {
	if i := strings.IndexByte(name, ';'); i >= 0 {
		return name[:i]
	}
	return name
}

// Unmarshal decodes a DirectoryRecord from the provided byte slice.
// It expects that data contains at least LengthOfDirectoryRecord bytes.
func (dr *DirectoryRecord) Unmarshal(data []byte) error {
	if len(data) < 1 {
		return fmt.Errorf("data too short to contain a DirectoryRecord")
	}
	recordLength := int(data[0])
	if recordLength < consts.ISO9660_DIRECTORY_RECORD_SIZE {
		return fmt.Errorf("record length %d is less than the minimum %d", recordLength, consts.ISO9660_DIRECTORY_RECORD_SIZE)
	}
	if len(data) < recordLength {
		return fmt.Errorf("data length %d is less than expected record length %d", len(data), recordLength)
	}

	dr.LengthOfDirectoryRecord = uint8(recordLength)
	dr.LocationOfExtent, _ = encoding.BothByteOrders32(data[offsetLocationOfExtent:])
	dr.DataLength, _ = encoding.BothByteOrders32(data[offsetDataLength:])
	dr.RecordingDateAndTime = encoding.RecordingDateTime(data[offsetRecordingDate:])
	dr.FileFlags = UnmarshalFileFlags(data[offsetFileFlags])
	dr.LengthOfFileIdentifier = data[offsetLengthOfFileIdent]

	fiLen := int(dr.LengthOfFileIdentifier)
	if offsetFileIdentifier+fiLen > recordLength {
		return fmt.Errorf("insufficient data for File Identifier: %d bytes at offset %d in a %d-byte record",
			fiLen, offsetFileIdentifier, recordLength)
	}
	dr.FileIdentifier = string(data[offsetFileIdentifier : offsetFileIdentifier+fiLen])
	return nil
}
