package descriptor

import (
	"fmt"

	"github.com/bgrewell/dvd-kit/pkg/consts"
	"github.com/bgrewell/dvd-kit/pkg/errs"
)

type VolumeDescriptorHeader struct {
	// Volume Descriptor Types.
	//  | 0 = Boot Record
	//  | 1 = Primary
	//  | 2 = Supplementary
	//  | 3 = Partition
	//  | 4 - 254 = Reserved
	//  | 255 = Terminator
	VolumeDescriptorType VolumeDescriptorType `json:"volume_descriptor_type"`
	// Standard Identifier should always be 'CD001' as a string or 0x4344303031.
	StandardIdentifier string `json:"standard_identifier"`
	// Volume Descriptor Version. The contents and interpretation depend on the Volume Descriptor Type field.
	VolumeDescriptorVersion uint8 `json:"volume_descriptor_version"`
}

func (h *VolumeDescriptorHeader) Type() VolumeDescriptorType {
	return h.VolumeDescriptorType
}

// Unmarshal parses the 7-byte header at the start of a volume descriptor sector.
// A standard identifier other than "CD001" is reported as errs.ErrInvalidVolume.
func (vdh *VolumeDescriptorHeader) Unmarshal(data []byte) error {
	if len(data) < consts.ISO9660_VOLUME_DESC_HEADER_SIZE {
		return fmt.Errorf("%w: volume descriptor header needs %d bytes, got %d",
			errs.ErrInvalidVolume, consts.ISO9660_VOLUME_DESC_HEADER_SIZE, len(data))
	}
	vdh.VolumeDescriptorType = VolumeDescriptorType(data[0])
	vdh.StandardIdentifier = string(data[1:6])
	vdh.VolumeDescriptorVersion = data[6]

	if vdh.StandardIdentifier != consts.ISO9660_STD_IDENTIFIER {
		return fmt.Errorf("%w: unexpected standard identifier %q, expected %q",
			errs.ErrInvalidVolume, vdh.StandardIdentifier, consts.ISO9660_STD_IDENTIFIER)
	}
	return nil
}
