package demux

import (
	"encoding/binary"

	"github.com/bgrewell/dvd-kit/pkg/consts"
)

// A VOB sector is an MPEG-2 program stream pack (ISO 13818-1 §2.5.3.3). A navigation pack
// is laid out as follows:
//
//	0x0000 pack header, 14 bytes, start code 0x000001BA
//	0x000E system header, 24 bytes, start code 0x000001BB
//	0x0026 PCI packet, private stream 2 (0x000001BF), substream 0x00
//	0x0400 DSI packet, private stream 2 (0x000001BF), substream 0x01
//
// The PCI and DSI both carry the LBA of the pack, the DSI carries the original VOB and
// cell ids of the VOBU.

// HasPackStartCode reports whether sector starts with an MPEG-PS pack header.
func HasPackStartCode(sector []byte) bool {
	return len(sector) >= 4 && binary.BigEndian.Uint32(sector) == consts.PACK_START_CODE
}

// IsNavPack reports whether sector is a navigation pack.
func IsNavPack(sector []byte) bool {
	if len(sector) < consts.DVD_SECTOR_SIZE || !HasPackStartCode(sector) {
		return false
	}
	return binary.BigEndian.Uint32(sector[consts.NAV_SYSTEM_HEADER_OFFSET:]) == consts.SYSTEM_HEADER_START_CODE &&
		binary.BigEndian.Uint32(sector[consts.NAV_DSI_PACKET_OFFSET:]) == consts.PRIVATE_STREAM_2_CODE &&
		sector[consts.NAV_DSI_SUBSTREAM_OFFSET] == consts.NAV_DSI_SUBSTREAM_ID
}

// NavPackIDs returns the original VOB and cell ids of a navigation pack.
func NavPackIDs(sector []byte) (vobID, cellID int) {
	return int(binary.BigEndian.Uint16(sector[consts.NAV_DSI_VOB_ID_OFFSET:])), int(sector[consts.NAV_DSI_CELL_ID_OFFSET])
}

// NavPackLBA returns the LBA recorded in the PCI and in the DSI of a navigation pack.
func NavPackLBA(sector []byte) (pci, dsi uint32) {
	return binary.BigEndian.Uint32(sector[consts.NAV_PCI_LBA_OFFSET:]), binary.BigEndian.Uint32(sector[consts.NAV_DSI_LBA_OFFSET:])
}

// FixNavPack sets the LBA of a navigation pack, in both the PCI and the DSI.
func FixNavPack(sector []byte, lba uint32) {
	binary.BigEndian.PutUint32(sector[consts.NAV_PCI_LBA_OFFSET:], lba)
	binary.BigEndian.PutUint32(sector[consts.NAV_DSI_LBA_OFFSET:], lba)
}
