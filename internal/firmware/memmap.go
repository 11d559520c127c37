package firmware

import (
	"encoding/binary"
	"fmt"
)

// Memory map entry types, matching the values reported to guests.
const (
	E820Usable      uint32 = 1
	E820Reserved    uint32 = 2
	E820ACPIReclaim uint32 = 3
	E820ACPINVS     uint32 = 4
	E820Unusable    uint32 = 5
)

const (
	// E820EntrySize is the fixed wire encoding of one map entry:
	// little-endian u64 base, u64 length, u32 type.
	E820EntrySize = 20

	// MaxE820Entries bounds the server-side table.
	MaxE820Entries = 32

	// MapSignature is the magic constant enumeration callers must present
	// and which is echoed back to them ("SMAP").
	MapSignature uint32 = 0x534D4150
)

// Entry is one physical memory map record. Entries are immutable once the
// map is built.
type Entry struct {
	Base   uint64
	Length uint64
	Type   uint32
}

// Encode returns the fixed 20-byte wire representation of the entry.
func (e Entry) Encode() [E820EntrySize]byte {
	var buf [E820EntrySize]byte
	binary.LittleEndian.PutUint64(buf[0:], e.Base)
	binary.LittleEndian.PutUint64(buf[8:], e.Length)
	binary.LittleEndian.PutUint32(buf[16:], e.Type)
	return buf
}

// MemoryMap is the fixed physical memory map table populated once at
// platform bring-up. Enumeration never mutates it.
type MemoryMap struct {
	entries []Entry
}

// NewMemoryMap builds an immutable map from the given entries.
func NewMemoryMap(entries []Entry) (*MemoryMap, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("firmware: memory map must contain at least one entry")
	}
	if len(entries) > MaxE820Entries {
		return nil, fmt.Errorf("firmware: too many memory map entries (%d > %d)", len(entries), MaxE820Entries)
	}
	copied := make([]Entry, len(entries))
	copy(copied, entries)
	return &MemoryMap{entries: copied}, nil
}

// DefaultMemoryMap builds the conventional PC layout for a flat RAM of the
// given size: low memory up to the extended BIOS data area, the video/ROM
// hole, and extended memory above 1 MiB.
func DefaultMemoryMap(ramSize uint64) (*MemoryMap, error) {
	const (
		ebdaStart = 0x0009FC00
		lowMemEnd = 0x000A0000
		biosStart = 0x000F0000
		oneMiB    = 0x00100000
	)
	if ramSize <= oneMiB {
		return NewMemoryMap([]Entry{
			{Base: 0, Length: ebdaStart, Type: E820Usable},
			{Base: ebdaStart, Length: lowMemEnd - ebdaStart, Type: E820Reserved},
			{Base: biosStart, Length: oneMiB - biosStart, Type: E820Reserved},
		})
	}
	return NewMemoryMap([]Entry{
		{Base: 0, Length: ebdaStart, Type: E820Usable},
		{Base: ebdaStart, Length: lowMemEnd - ebdaStart, Type: E820Reserved},
		{Base: biosStart, Length: oneMiB - biosStart, Type: E820Reserved},
		{Base: oneMiB, Length: ramSize - oneMiB, Type: E820Usable},
	})
}

// Len returns the number of entries in the map.
func (m *MemoryMap) Len() int { return len(m.entries) }

// Entries returns a copy of the table in enumeration order.
func (m *MemoryMap) Entries() []Entry {
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Next returns the entry at the given cursor along with the continuation
// cursor for the following call.
//
// A returned cursor of zero means the enumeration is complete. This is the
// legacy convention: callers stop when the continuation equals zero, which
// makes "finished" indistinguishable from a genuine zero cursor. That quirk
// is load-bearing for compatibility and is preserved here, not fixed.
func (m *MemoryMap) Next(cursor uint32, recordSize uint32) (Entry, uint32, error) {
	if recordSize != E820EntrySize {
		return Entry{}, 0, fmt.Errorf("%w: got %d, want %d", ErrUnsupportedRecordSize, recordSize, E820EntrySize)
	}
	if cursor >= uint32(len(m.entries)) {
		return Entry{}, 0, fmt.Errorf("%w: %d (table has %d entries)", ErrInvalidCursor, cursor, len(m.entries))
	}

	next := cursor + 1
	if next >= uint32(len(m.entries)) {
		next = 0
	}
	return m.entries[cursor], next, nil
}
