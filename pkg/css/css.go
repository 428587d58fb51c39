// Package css is the boundary with the decrypting block device service.
//
// The DVD structural engine never derives CSS keys itself. It talks to a Service which opens
// a device or an image and returns a Handle with dvdcss-like semantics: positions and counts
// are expressed in 2048-byte sectors, a seek may request a title key derivation and a read
// may request decryption. ImageService is the built-in Service for unscrambled media.
package css

// SeekFlags modify the behavior of Handle.Seek.
type SeekFlags int

const (
	// NoSeekFlags performs a plain seek.
	NoSeekFlags SeekFlags = 0
	// SeekMPEG hints that the seek lands inside MPEG content.
	SeekMPEG SeekFlags = 1 << 0
	// SeekKey forces the derivation (or cache lookup) of the title key at the new position.
	SeekKey SeekFlags = 1 << 1
)

// ReadFlags modify the behavior of Handle.Read.
type ReadFlags int

const (
	// NoReadFlags reads sectors as they are on the medium.
	NoReadFlags ReadFlags = 0
	// ReadDecrypt decrypts scrambled sectors with the current title key.
	ReadDecrypt ReadFlags = 1 << 0
)

// Service opens decrypting handles on devices or image files.
type Service interface {
	Open(name string) (Handle, error)
}

// Handle is an open device.
type Handle interface {
	// Seek moves to the given sector and returns the new position.
	Seek(sector int, flags SeekFlags) (int, error)
	// Read reads at most count sectors into buf (len(buf) >= count*2048) and returns the
	// number of sectors read. Zero sectors and a nil error means end of medium.
	Read(buf []byte, count int, flags ReadFlags) (int, error)
	// IsScrambled reports whether the medium uses CSS.
	IsScrambled() bool
	// SizeInSectors returns the size of the medium, or -1 when unknown.
	SizeInSectors() int
	Close() error
}
