// Package norcow implements a log-structured key-value store for
// NOR-flash media, where writes can only clear bits and restoring a bit
// requires erasing a whole sector.
//
// Two sectors exist at any time: one active, one spare. The active sector
// holds a sequential item log behind a 4-byte magic marker:
//
//	┌──────────────────────── sector ────────────────────────┐
//	│ "NRCW" │ item │ item │ item │ ... │ 0xFF...(erased)     │
//	└────────┴──────┴──────┴──────┴─────┴─────────────────────┘
//
//	item: key (2 bytes LE) │ length (2 bytes LE) │ value │ pad to 4
//
// Updates that only clear bits relative to the stored value are written in
// place. Anything else tombstones the old record (key zeroed, value
// zero-filled) and appends a fresh one, so within a sector the last record
// for a key wins. When an append would overflow the active sector, the
// live records are copied into the spare sector and the sectors swap
// roles, reclaiming the space held by tombstones and superseded records.
//
// Key components:
//   - Item codec: fixed 4-byte header plus padded payload (item.go)
//   - Lookup: a linear scan of the active log, last match wins (store.go)
//   - Write path: in-place update legality, tombstoning, appends (store.go)
//   - Compaction: sector-to-sector copy of survivors (compact.go)
//
// The store serializes all operations; there is no background work. Keys
// 0x0000 (tombstone) and 0xFFFF (free/terminator) are reserved.
package norcow
