package norcow

import "sync/atomic"

// storeStats collects operation counters. Counters are atomic so a
// diagnostic reader can snapshot them without taking the store mutex.
type storeStats struct {
	gets           atomic.Uint64
	sets           atomic.Uint64
	replaces       atomic.Uint64
	inPlaceUpdates atomic.Uint64
	appends        atomic.Uint64
	tombstones     atomic.Uint64
	compactions    atomic.Uint64
	compactedDrops atomic.Uint64
}

// Stats is a point-in-time snapshot of store activity.
//
// SectorErases is the wear signal: NOR flash sectors survive a bounded
// number of erase cycles, and every compaction or wipe costs one.
type Stats struct {
	Gets           uint64
	Sets           uint64
	Replaces       uint64
	InPlaceUpdates uint64
	Appends        uint64
	Tombstones     uint64
	Compactions    uint64
	// CompactedDrops counts records discarded by compaction (tombstones
	// and nothing else; superseded records were already tombstoned).
	CompactedDrops uint64
	// SectorErases holds the erase counter of each sector.
	SectorErases []uint64
}

// Stats returns a snapshot of the store's operation and wear counters.
func (s *Store) Stats() Stats {
	return Stats{
		Gets:           s.stats.gets.Load(),
		Sets:           s.stats.sets.Load(),
		Replaces:       s.stats.replaces.Load(),
		InPlaceUpdates: s.stats.inPlaceUpdates.Load(),
		Appends:        s.stats.appends.Load(),
		Tombstones:     s.stats.tombstones.Load(),
		Compactions:    s.stats.compactions.Load(),
		CompactedDrops: s.stats.compactedDrops.Load(),
		SectorErases:   s.area.EraseCounts(),
	}
}
