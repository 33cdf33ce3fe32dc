// Package flash emulates a NOR-flash medium as a set of fixed-size
// erasable sectors.
//
// The emulation enforces the two physical rules that shape everything the
// storage engine above it does:
//
//   - Erase works on whole sectors only and resets every byte to 0xFF.
//   - Program (write) can only clear bits. Any write that would turn a 0
//     back into a 1 fails with ErrProgramConflict and changes nothing.
//
// Each sector keeps an erase counter so integrators can watch wear.
package flash

import "sync"

// ErasedByte is the value every byte holds after a sector erase.
const ErasedByte = 0xFF

// Config describes the medium geometry.
type Config struct {
	// SectorSize is the size of one erasable sector in bytes.
	SectorSize int
	// SectorCount is the number of sectors on the medium.
	SectorCount int
}

// DefaultConfig returns the geometry of the reference target:
// two sectors of 64 KiB.
func DefaultConfig() Config {
	return Config{
		SectorSize:  64 * 1024,
		SectorCount: 2,
	}
}

// Area is an emulated flash region. All methods are safe for use by a
// single owner; a mutex guards the buffer so diagnostic readers (image
// dumps, erase counters) see consistent state.
type Area struct {
	mu          sync.Mutex
	sectorSize  int
	sectorCount int
	buf         []byte
	eraseCounts []uint64
}

// New creates a fully erased medium with the given geometry.
func New(config Config) (*Area, error) {
	if config.SectorSize <= 0 || config.SectorSize%4 != 0 {
		return nil, ErrBadGeometry
	}
	if config.SectorCount < 2 {
		return nil, ErrBadGeometry
	}

	a := &Area{
		sectorSize:  config.SectorSize,
		sectorCount: config.SectorCount,
		buf:         make([]byte, config.SectorSize*config.SectorCount),
		eraseCounts: make([]uint64, config.SectorCount),
	}
	for i := range a.buf {
		a.buf[i] = ErasedByte
	}
	return a, nil
}

// SectorSize returns the size of one sector in bytes.
func (a *Area) SectorSize() int {
	return a.sectorSize
}

// SectorCount returns the number of sectors on the medium.
func (a *Area) SectorCount() int {
	return a.sectorCount
}

// Erase resets every byte of the given sector to 0xFF and bumps its erase
// counter. This is the only way to bring a cleared bit back to 1.
func (a *Area) Erase(sector int) error {
	if sector < 0 || sector >= a.sectorCount {
		return ErrOutOfRange
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	base := sector * a.sectorSize
	for i := base; i < base+a.sectorSize; i++ {
		a.buf[i] = ErasedByte
	}
	a.eraseCounts[sector]++
	return nil
}

// Program writes data into the sector at the given offset.
//
// Every byte is checked first: for old contents o and new contents n,
// o&n == n must hold (programming only clears bits). On a conflict nothing
// is written and ErrProgramConflict is returned.
func (a *Area) Program(sector, offset int, data []byte) error {
	if sector < 0 || sector >= a.sectorCount {
		return ErrOutOfRange
	}
	if offset < 0 || offset+len(data) > a.sectorSize {
		return ErrOutOfRange
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	base := sector*a.sectorSize + offset
	for i, b := range data {
		if a.buf[base+i]&b != b {
			return ErrProgramConflict
		}
	}
	copy(a.buf[base:], data)
	return nil
}

// Read copies length bytes out of the sector starting at offset.
func (a *Area) Read(sector, offset, length int) ([]byte, error) {
	if sector < 0 || sector >= a.sectorCount {
		return nil, ErrOutOfRange
	}
	if offset < 0 || length < 0 || offset+length > a.sectorSize {
		return nil, ErrOutOfRange
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	base := sector*a.sectorSize + offset
	out := make([]byte, length)
	copy(out, a.buf[base:])
	return out, nil
}

// Sector returns a copy of the whole sector.
func (a *Area) Sector(sector int) ([]byte, error) {
	return a.Read(sector, 0, a.sectorSize)
}

// EraseCount returns how many times the sector has been erased over the
// lifetime of the Area.
func (a *Area) EraseCount(sector int) (uint64, error) {
	if sector < 0 || sector >= a.sectorCount {
		return 0, ErrOutOfRange
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.eraseCounts[sector], nil
}

// EraseCounts returns a copy of all per-sector erase counters.
func (a *Area) EraseCounts() []uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]uint64, len(a.eraseCounts))
	copy(out, a.eraseCounts)
	return out
}

// Image returns the whole medium as one byte slice, sector 0 first.
func (a *Area) Image() []byte {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]byte, len(a.buf))
	copy(out, a.buf)
	return out
}

// LoadImage replaces the medium contents with a previously captured image.
// The image must be exactly SectorCount*SectorSize bytes. Erase counters
// are not part of the image and are left untouched.
func (a *Area) LoadImage(data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(data) != len(a.buf) {
		return ErrImageSize
	}
	copy(a.buf, data)
	return nil
}
