package norcow

import (
	"sync"

	"github.com/matteso1/norcow/flash"
)

// Config configures a store and the medium beneath it.
type Config struct {
	// Flash describes the medium geometry. The on-flash record layout does
	// not depend on it; smaller sectors are useful in tests.
	Flash flash.Config
}

// DefaultConfig returns the reference geometry: two 64 KiB sectors.
func DefaultConfig() Config {
	return Config{Flash: flash.DefaultConfig()}
}

// Store is the flash-native key-value engine. One sector is active at a
// time and holds the item log; the other is the spare compaction target.
//
// All operations are serialized by a single mutex. There are no background
// goroutines: compaction runs inline on the append that needs it.
type Store struct {
	mu           sync.Mutex
	area         *flash.Area
	activeSector int
	activeOffset int
	stats        storeStats
}

// New creates a store over a fresh, fully erased medium and initializes
// sector 0 as the active sector.
func New(config Config) (*Store, error) {
	area, err := flash.New(config.Flash)
	if err != nil {
		return nil, err
	}
	return Open(area)
}

// Open adopts an existing medium, recovering the active sector and append
// cursor from its contents. A blank medium is initialized like New.
func Open(area *flash.Area) (*Store, error) {
	s := &Store{area: area}
	if err := s.Init(); err != nil {
		return nil, err
	}
	return s, nil
}

// Init derives the store state from the medium. A sector carrying the
// magic marker becomes active and the append cursor is re-derived by
// scanning its log. Compaction zeroes the retired sector's marker, so
// normally exactly one sector carries it; both markers present means power
// was lost during compaction before the old sector was retired, and the
// old sector's longer log (the intact pre-compaction state) wins. A fully
// erased medium is cold-started by wiping sector 0. Anything else is not a
// flash image this store understands.
func (s *Store) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := -1
	activeEnd := 0
	blank := true
	for sec := 0; sec < s.area.SectorCount(); sec++ {
		data, err := s.area.Sector(sec)
		if err != nil {
			return err
		}
		if string(data[:magicLen]) == Magic {
			blank = false
			if end := logEnd(data); active < 0 || end > activeEnd {
				active = sec
				activeEnd = end
			}
			continue
		}
		for _, b := range data {
			if b != flash.ErasedByte {
				blank = false
				break
			}
		}
	}

	if active >= 0 {
		s.activeSector = active
		s.activeOffset = activeEnd
		return nil
	}
	if !blank {
		return ErrNoMagic
	}
	return s.wipeLocked(0)
}

// Wipe erases the given sector, writes the magic marker, and makes it the
// active sector with an empty log. Used when rotating or resetting
// storage state; all prior content of that sector is destroyed.
func (s *Store) Wipe(sector int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wipeLocked(sector)
}

func (s *Store) wipeLocked(sector int) error {
	if err := s.area.Erase(sector); err != nil {
		return err
	}
	if err := s.area.Program(sector, 0, []byte(Magic)); err != nil {
		return err
	}
	s.activeSector = sector
	s.activeOffset = magicLen
	return nil
}

// Get returns the current value for key, or ErrNotFound. A stored
// zero-length value is returned as an empty slice with a nil error;
// absence is only ever reported through the error.
func (s *Store) Get(key uint16) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.gets.Add(1)
	it, ok, err := s.findLocked(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return it.value, nil
}

// Set stores value under key. When the stored value can be reached by
// clearing bits only (same length, old&new == new for every byte), the
// record is rewritten in place and the log does not grow. Otherwise the
// old record is tombstoned and the new value appended, compacting into
// the spare sector first if the active one is full.
//
// A failed Set leaves the store unmodified: the rewrite path checks that
// the new value will fit even in the post-compaction worst case before it
// destroys the old record.
func (s *Store) Set(key uint16, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if key == KeyFree || key == KeyTombstone {
		return ErrReservedKey
	}
	if len(value) > 0xFFFF || itemSize(len(value)) > s.area.SectorSize()-magicLen {
		return ErrItemTooBig
	}
	s.stats.sets.Add(1)

	it, ok, err := s.findLocked(key)
	if err != nil {
		return err
	}
	if ok {
		if updatable(it.value, value) {
			s.stats.inPlaceUpdates.Add(1)
			return s.writeRecordLocked(it.offset, key, value)
		}
		// Compaction can free at most the non-live bytes plus the record
		// being replaced. If the new value does not fit even then, fail
		// now, before the tombstone destroys the old value.
		live, err := s.liveBytesLocked()
		if err != nil {
			return err
		}
		if magicLen+live-it.size()+itemSize(len(value)) > s.area.SectorSize() {
			return ErrStoreFull
		}
		if err := s.tombstoneLocked(it); err != nil {
			return err
		}
	}
	return s.appendLocked(key, value)
}

// Replace rewrites the value of an existing record in place, key and
// length unchanged, without the bit-clearing check. The caller guarantees
// the write is physically legal (or has wiped beforehand); a write that
// sets a cleared bit surfaces as flash.ErrProgramConflict.
func (s *Store) Replace(key uint16, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if key == KeyFree || key == KeyTombstone {
		return ErrReservedKey
	}

	it, ok, err := s.findLocked(key)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	if len(it.value) != len(value) {
		return ErrLengthMismatch
	}
	s.stats.replaces.Add(1)
	return s.writeRecordLocked(it.offset, key, value)
}

// findLocked scans the active log for key and returns the most recent
// matching record. Tombstones never match.
func (s *Store) findLocked(key uint16) (item, bool, error) {
	sector, err := s.area.Sector(s.activeSector)
	if err != nil {
		return item{}, false, err
	}

	var found item
	ok := false
	for _, it := range scanLog(sector) {
		if it.key == KeyTombstone {
			continue
		}
		if it.key == key {
			found = it
			ok = true
		}
	}
	return found, ok, nil
}

// liveBytesLocked returns the total on-flash size of the active log's
// non-tombstone records: the log length compaction would produce.
func (s *Store) liveBytesLocked() (int, error) {
	sector, err := s.area.Sector(s.activeSector)
	if err != nil {
		return 0, err
	}

	live := 0
	for _, it := range scanLog(sector) {
		if it.key != KeyTombstone {
			live += it.size()
		}
	}
	return live, nil
}

// appendLocked writes a new record at the append cursor, compacting first
// when it would not fit.
func (s *Store) appendLocked(key uint16, value []byte) error {
	size := itemSize(len(value))
	if s.activeOffset+size > s.area.SectorSize() {
		if err := s.compactLocked(); err != nil {
			return err
		}
		if s.activeOffset+size > s.area.SectorSize() {
			return ErrStoreFull
		}
	}

	if err := s.writeRecordLocked(s.activeOffset, key, value); err != nil {
		return err
	}
	s.activeOffset += size
	s.stats.appends.Add(1)
	return nil
}

// tombstoneLocked kills a record in place: key zeroed, value zero-filled,
// length unchanged. Zeroing only clears bits, so this is always legal.
func (s *Store) tombstoneLocked(it item) error {
	s.stats.tombstones.Add(1)
	return s.writeRecordLocked(it.offset, KeyTombstone, make([]byte, len(it.value)))
}

func (s *Store) writeRecordLocked(offset int, key uint16, value []byte) error {
	return s.area.Program(s.activeSector, offset, encodeItem(key, value))
}

// updatable reports whether new can be written over old in place: equal
// length and every bit set in new already set in old.
func updatable(old, new []byte) bool {
	if len(old) != len(new) {
		return false
	}
	for i := range old {
		if old[i]&new[i] != new[i] {
			return false
		}
	}
	return true
}

// ActiveSector returns the index of the sector currently holding the log.
func (s *Store) ActiveSector() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeSector
}

// ActiveOffset returns the append cursor within the active sector.
func (s *Store) ActiveOffset() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeOffset
}

// Area exposes the underlying medium for image capture and diagnostics.
func (s *Store) Area() *flash.Area {
	return s.area
}

// Item is one record of the active log as reported by Items.
type Item struct {
	Key       uint16
	Value     []byte
	Offset    int
	Tombstone bool
}

// Items returns every record of the active log in offset order, tombstones
// included. This is a diagnostic readout for tooling, not a query API.
func (s *Store) Items() ([]Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sector, err := s.area.Sector(s.activeSector)
	if err != nil {
		return nil, err
	}

	var out []Item
	for _, it := range scanLog(sector) {
		out = append(out, Item{
			Key:       it.key,
			Value:     it.value,
			Offset:    it.offset,
			Tombstone: it.key == KeyTombstone,
		})
	}
	return out, nil
}
