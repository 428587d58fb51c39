package descriptor

import (
	"fmt"
	"strings"
	"time"

	"github.com/bgrewell/dvd-kit/pkg/consts"
	"github.com/bgrewell/dvd-kit/pkg/errs"
	"github.com/bgrewell/dvd-kit/pkg/iso9660/directory"
	"github.com/bgrewell/dvd-kit/pkg/iso9660/encoding"
)

// PrimaryVolumeDescriptor holds the fields of the primary volume descriptor which are
// needed to locate the content of a DVD.
type PrimaryVolumeDescriptor struct {
	VolumeDescriptorHeader
	// Volume Identifier identifies the volume (BP 41 to 72), space padded.
	VolumeIdentifier string `json:"volume_identifier"`
	// Volume Space Size is the number of logical blocks of the volume (BP 81 to 88).
	//  | Encoding: BothByteOrder, the little-endian half is used
	VolumeSpaceSize uint32 `json:"volume_space_size"`
	// Root Directory Record is the 34-byte directory record of the root directory (BP 157 to 190).
	RootDirectoryRecord *directory.DirectoryRecord `json:"root_directory_record"`
	// Volume Creation Date and Time (BP 814 to 830). Zero when unspecified or unreadable.
	VolumeCreationDate time.Time `json:"volume_creation_date"`
	// Volume Modification Date and Time (BP 831 to 847). Zero when unspecified or unreadable.
	VolumeModificationDate time.Time `json:"volume_modification_date"`
}

// Unmarshal decodes a full volume descriptor sector. The header must already describe a
// primary descriptor.
func (pvd *PrimaryVolumeDescriptor) Unmarshal(data []byte) error {
	if len(data) < consts.ISO9660_SECTOR_SIZE {
		return fmt.Errorf("%w: primary volume descriptor needs %d bytes, got %d",
			errs.ErrInvalidVolume, consts.ISO9660_SECTOR_SIZE, len(data))
	}
	if err := pvd.VolumeDescriptorHeader.Unmarshal(data); err != nil {
		return err
	}
	if pvd.VolumeDescriptorType != TYPE_PRIMARY_DESCRIPTOR {
		return fmt.Errorf("%w: expected a primary volume descriptor, got type %d",
			errs.ErrInvalidVolume, pvd.VolumeDescriptorType)
	}

	id := data[consts.ISO9660_PVD_VOLUME_ID_OFFSET : consts.ISO9660_PVD_VOLUME_ID_OFFSET+consts.ISO9660_PVD_VOLUME_ID_SIZE]
	pvd.VolumeIdentifier = strings.TrimSpace(strings.TrimRight(string(id), "\x00"))
	pvd.VolumeSpaceSize, _ = encoding.BothByteOrders32(data[consts.ISO9660_PVD_VOLUME_SIZE_OFFSET:])
	// Many discs carry garbage dates, they are informational only.
	pvd.VolumeCreationDate, _ = encoding.DateTime(data[consts.ISO9660_PVD_CREATION_DATE_OFFSET:])
	pvd.VolumeModificationDate, _ = encoding.DateTime(data[consts.ISO9660_PVD_MODIFICATION_DATE_OFFSET:])

	root := data[consts.ISO9660_PVD_ROOT_RECORD_OFFSET : consts.ISO9660_PVD_ROOT_RECORD_OFFSET+consts.ISO9660_DIRECTORY_RECORD_SIZE]
	if int(root[0]) != consts.ISO9660_DIRECTORY_RECORD_SIZE {
		return fmt.Errorf("%w: root directory record length is %d, expected %d",
			errs.ErrNoRootDirectory, root[0], consts.ISO9660_DIRECTORY_RECORD_SIZE)
	}
	record := &directory.DirectoryRecord{}
	if err := record.Unmarshal(root); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrNoRootDirectory, err)
	}
	pvd.RootDirectoryRecord = record
	return nil
}
