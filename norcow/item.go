package norcow

import (
	"encoding/binary"
	"errors"
)

// On-flash layout constants. These are bit-exact and shared with every
// other implementation reading the same flash image.
const (
	// Magic marks an initialized sector at offset 0.
	Magic = "NRCW"

	// KeyFree is the free/terminator key. Reading it during a scan means
	// the rest of the sector is unwritten.
	KeyFree uint16 = 0xFFFF

	// KeyTombstone marks a dead record. Tombstones never match lookups and
	// are dropped by compaction.
	KeyTombstone uint16 = 0x0000

	magicLen   = len(Magic)
	headerSize = 4 // 2-byte key + 2-byte length, both little-endian
)

// errEndOfLog signals normal scan termination: the free sentinel was read,
// or the sector boundary was reached. Not an error condition for callers.
var errEndOfLog = errors.New("norcow: end of item log")

// item is one decoded record of the active log.
type item struct {
	key    uint16
	value  []byte
	offset int // start of the record within the sector
}

// size returns the record's total on-flash length.
func (it item) size() int {
	return itemSize(len(it.value))
}

// itemSize returns the on-flash length of a record holding valueLen bytes:
// header, payload, and zero padding up to a 4-byte boundary.
func itemSize(valueLen int) int {
	return headerSize + valueLen + align4(valueLen)
}

func align4(n int) int {
	return (4 - n%4) % 4
}

// encodeItem builds the on-flash representation of a record.
func encodeItem(key uint16, value []byte) []byte {
	buf := make([]byte, itemSize(len(value)))
	binary.LittleEndian.PutUint16(buf[0:], key)
	binary.LittleEndian.PutUint16(buf[2:], uint16(len(value)))
	copy(buf[headerSize:], value)
	// Padding bytes stay zero.
	return buf
}

// readItem decodes the record starting at offset in sector. It returns
// errEndOfLog when the free sentinel is read, when fewer than headerSize
// bytes remain, or when the declared length runs past the sector boundary
// (a torn final append; the log before it is still valid).
func readItem(sector []byte, offset int) (item, error) {
	if offset+headerSize > len(sector) {
		return item{}, errEndOfLog
	}
	key := binary.LittleEndian.Uint16(sector[offset:])
	if key == KeyFree {
		return item{}, errEndOfLog
	}
	length := int(binary.LittleEndian.Uint16(sector[offset+2:]))
	if offset+headerSize+length > len(sector) {
		return item{}, errEndOfLog
	}

	value := make([]byte, length)
	copy(value, sector[offset+headerSize:])
	return item{key: key, value: value, offset: offset}, nil
}

// scanLog decodes every record of a sector's log in offset order.
func scanLog(sector []byte) []item {
	var items []item
	offset := magicLen
	for {
		it, err := readItem(sector, offset)
		if err != nil {
			return items
		}
		items = append(items, it)
		offset += it.size()
	}
}

// logEnd returns the offset of the first free byte after the last valid
// record, i.e. the append cursor for this sector.
func logEnd(sector []byte) int {
	offset := magicLen
	for {
		it, err := readItem(sector, offset)
		if err != nil {
			return offset
		}
		offset += it.size()
	}
}
