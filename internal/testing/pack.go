package testing

import (
	"encoding/binary"

	"github.com/bgrewell/dvd-kit/pkg/consts"
)

// ContentPack returns a 2048-byte MPEG-PS pack which is not a navigation pack. The payload
// is filled with marker so that tests can identify the sector in an output stream.
func ContentPack(marker byte) []byte {
	pack := make([]byte, consts.DVD_SECTOR_SIZE)
	for i := range pack {
		pack[i] = marker
	}
	binary.BigEndian.PutUint32(pack[0:], consts.PACK_START_CODE)
	return pack
}

// NavPack returns a navigation pack carrying the given original VOB and cell ids and LBA.
func NavPack(vobID, cellID int, lba uint32) []byte {
	pack := make([]byte, consts.DVD_SECTOR_SIZE)
	binary.BigEndian.PutUint32(pack[0:], consts.PACK_START_CODE)
	binary.BigEndian.PutUint32(pack[consts.NAV_SYSTEM_HEADER_OFFSET:], consts.SYSTEM_HEADER_START_CODE)
	binary.BigEndian.PutUint32(pack[0x26:], consts.PRIVATE_STREAM_2_CODE)
	binary.BigEndian.PutUint32(pack[consts.NAV_PCI_LBA_OFFSET:], lba)
	binary.BigEndian.PutUint32(pack[consts.NAV_DSI_PACKET_OFFSET:], consts.PRIVATE_STREAM_2_CODE)
	pack[consts.NAV_DSI_SUBSTREAM_OFFSET] = consts.NAV_DSI_SUBSTREAM_ID
	binary.BigEndian.PutUint32(pack[consts.NAV_DSI_LBA_OFFSET:], lba)
	binary.BigEndian.PutUint16(pack[consts.NAV_DSI_VOB_ID_OFFSET:], uint16(vobID))
	pack[consts.NAV_DSI_CELL_ID_OFFSET] = byte(cellID)
	return pack
}

// Concat concatenates sectors.
func Concat(sectors ...[]byte) []byte {
	var out []byte
	for _, s := range sectors {
		out = append(out, s...)
	}
	return out
}
