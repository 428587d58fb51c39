package consts

const (
	// Number of system area sectors. The volume descriptor set starts right after them.
	ISO9660_SYSTEM_AREA_SECTORS = 16

	// Standard ISO9660 identifier.
	ISO9660_STD_IDENTIFIER = "CD001"

	// ISO9660 default sector size. DVD media always use 2048-byte sectors.
	ISO9660_SECTOR_SIZE = 2048

	// ISO9660 volume descriptor header size
	ISO9660_VOLUME_DESC_HEADER_SIZE = 7

	// Maximum number of volume descriptors read before giving up on a primary descriptor.
	ISO9660_MAX_VOLUME_DESCRIPTORS = 8

	// Size of a directory record without its file identifier. Also the size of the root
	// directory record embedded in the primary volume descriptor.
	ISO9660_DIRECTORY_RECORD_SIZE = 34

	// Maximum depth of the directory tree. Deeper structures are treated as corrupted
	// (usually a directory which references one of its parents).
	ISO9660_MAX_DIRECTORY_DEPTH = 256

	// Offsets in the primary volume descriptor.
	ISO9660_PVD_VOLUME_ID_OFFSET         = 40
	ISO9660_PVD_VOLUME_ID_SIZE           = 32
	ISO9660_PVD_VOLUME_SIZE_OFFSET       = 80
	ISO9660_PVD_ROOT_RECORD_OFFSET       = 156
	ISO9660_PVD_CREATION_DATE_OFFSET     = 813
	ISO9660_PVD_MODIFICATION_DATE_OFFSET = 830

	// DVD sector size, same as ISO9660_SECTOR_SIZE, named for readability in DVD code.
	DVD_SECTOR_SIZE = ISO9660_SECTOR_SIZE

	// Number of consecutive bad sectors which can be skipped or zeroed before failing.
	DVD_BAD_SECTOR_RETRY = 64

	// DVD 1x transfer rate in bytes/second.
	DVD_BASE_BANDWIDTH = 1385000

	// Default transfer chunk and low-water buffer size.
	DEFAULT_TRANSFER_SIZE   = 512 * 1024
	DEFAULT_MIN_BUFFER_SIZE = 128 * 1024

	// Maximum number of VOB parts in a title set (VTS_nn_1.VOB to VTS_nn_9.VOB).
	DVD_MAX_VOB_PARTS = 9
)

// VTS IFO layout.
// See http://dvd.sourceforge.net/dvdinfo/ifo.html
const (
	IFO_VTS_IDENTIFIER      = "DVDVIDEO-VTS"
	IFO_HEADER_SIZE         = 0x03D8
	IFO_LAST_SECTOR_OFFSET  = 0x000C
	IFO_VOB_START_OFFSET    = 0x00C4
	IFO_VTS_PGCI_OFFSET     = 0x00CC
	IFO_VTS_C_ADT_OFFSET    = 0x00E0
	IFO_VIDEO_ATTR_OFFSET   = 0x0200
	IFO_AUDIO_COUNT_OFFSET  = 0x0202
	IFO_AUDIO_ATTR_OFFSET   = 0x0204
	IFO_AUDIO_ATTR_SIZE     = 8
	IFO_AUDIO_MAX_COUNT     = 8
	IFO_SUBPIC_COUNT_OFFSET = 0x0254
	IFO_SUBPIC_ATTR_OFFSET  = 0x0256
	IFO_SUBPIC_ATTR_SIZE    = 6
	IFO_SUBPIC_MAX_COUNT    = 32

	// Cell address table.
	IFO_ADT_HEADER_SIZE = 8
	IFO_ADT_ENTRY_SIZE  = 12

	// Program chain information table.
	IFO_PGCI_HEADER_SIZE     = 8
	IFO_PGCI_DESCRIPTOR_SIZE = 8

	// Program chain body.
	PGC_MIN_SIZE           = 0x00EC
	PGC_PROGRAM_COUNT      = 0x0002
	PGC_CELL_COUNT         = 0x0003
	PGC_DURATION           = 0x0004
	PGC_NEXT_PGC           = 0x009C
	PGC_PREVIOUS_PGC       = 0x009E
	PGC_PARENT_PGC         = 0x00A0
	PGC_PALETTE            = 0x00A4
	PGC_PALETTE_SIZE       = 64
	PGC_PROGRAM_MAP        = 0x00E6
	PGC_CELL_PLAYBACK      = 0x00E8
	PGC_CELL_PLAYBACK_SIZE = 0x0018
	PGC_CELL_POSITION      = 0x00EA
	PGC_CELL_POSITION_SIZE = 4
	CELL_PLAYBACK_DURATION = 0x0004
	CELL_PLAYBACK_FIRST    = 0x0008
	CELL_PLAYBACK_LAST     = 0x0014
	PALETTE_ENTRY_COUNT    = 16
	PALETTE_ENTRY_SIZE     = 4

	// Stream ids in the MPEG-PS.
	VIDEO_STREAM_ID           = 0x01E0
	SUBPICTURE_STREAM_ID_BASE = 0x20
)

// MPEG-PS navigation pack layout, relative to the start of the sector.
// 0000: pack header, start code 0x000001BA
// 000E: system header, start code 0x000001BB
// 0026: PCI packet, private stream 2, substream 0x00
// 0400: DSI packet, private stream 2, substream 0x01
const (
	PACK_START_CODE          = 0x000001BA
	SYSTEM_HEADER_START_CODE = 0x000001BB
	PRIVATE_STREAM_2_CODE    = 0x000001BF
	NAV_SYSTEM_HEADER_OFFSET = 0x000E
	NAV_DSI_PACKET_OFFSET    = 0x0400
	NAV_DSI_SUBSTREAM_OFFSET = 0x0406
	NAV_DSI_SUBSTREAM_ID     = 0x01
	NAV_PCI_LBA_OFFSET       = 0x002D
	NAV_DSI_LBA_OFFSET       = 0x040B
	NAV_DSI_VOB_ID_OFFSET    = 0x041F
	NAV_DSI_CELL_ID_OFFSET   = 0x0422
)
