package norcow

// compactLocked copies every live record of the active sector into the
// spare sector and swaps roles. Records are copied in offset order, so a
// key written several times keeps its later entries later and lookup
// recency is preserved. Tombstones and nothing else are dropped.
//
// Once the copy is complete the old sector's magic marker is zeroed
// (clearing bits, so no erase is needed) and the sector is retired: its
// log bytes stay behind until it is wiped as a future compaction target,
// but recovery will never adopt it. A power loss before the marker is
// zeroed leaves both markers in place, and recovery then prefers the old
// sector's longer log: the pre-compaction state, still intact because
// nothing in it was modified.
func (s *Store) compactLocked() error {
	source := s.activeSector
	sector, err := s.area.Sector(source)
	if err != nil {
		return err
	}

	all := scanLog(sector)
	live := all[:0]
	for _, it := range all {
		if it.key != KeyTombstone {
			live = append(live, it)
		}
	}
	dropped := len(all) - len(live)

	target := (s.activeSector + 1) % s.area.SectorCount()
	if err := s.wipeLocked(target); err != nil {
		return err
	}

	// Survivors came out of a same-sized sector, so they always fit in the
	// freshly wiped one; only the append that triggered compaction can
	// still run out of space.
	for _, it := range live {
		if err := s.writeRecordLocked(s.activeOffset, it.key, it.value); err != nil {
			return err
		}
		s.activeOffset += it.size()
	}

	// Retire the source sector only after every survivor is in place.
	if err := s.area.Program(source, 0, make([]byte, magicLen)); err != nil {
		return err
	}

	s.stats.compactions.Add(1)
	s.stats.compactedDrops.Add(uint64(dropped))
	return nil
}
