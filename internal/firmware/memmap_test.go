package firmware

import (
	"encoding/binary"
	"errors"
	"testing"
)

func testMap(t *testing.T) *MemoryMap {
	t.Helper()
	m, err := NewMemoryMap([]Entry{
		{Base: 0, Length: 0x9FC00, Type: E820Usable},
		{Base: 0x9FC00, Length: 0x400, Type: E820Reserved},
		{Base: 0xF0000, Length: 0x10000, Type: E820Reserved},
		{Base: 0x100000, Length: 0x700000, Type: E820Usable},
	})
	if err != nil {
		t.Fatalf("NewMemoryMap: %v", err)
	}
	return m
}

func TestMemoryMapFullTraversal(t *testing.T) {
	m := testMap(t)

	cursor := uint32(0)
	var seen []Entry
	for {
		entry, next, err := m.Next(cursor, E820EntrySize)
		if err != nil {
			t.Fatalf("Next(%d): %v", cursor, err)
		}
		seen = append(seen, entry)
		if next == 0 {
			break
		}
		if next != cursor+1 {
			t.Fatalf("cursor %d: continuation = %d, want %d", cursor, next, cursor+1)
		}
		cursor = next
	}

	if len(seen) != m.Len() {
		t.Fatalf("traversed %d entries, want %d", len(seen), m.Len())
	}

	// A second full traversal returns identical entries.
	for i, want := range seen {
		got, _, err := m.Next(uint32(i), E820EntrySize)
		if err != nil {
			t.Fatalf("Next(%d) second pass: %v", i, err)
		}
		if got != want {
			t.Fatalf("entry %d changed between traversals: %+v != %+v", i, got, want)
		}
	}
}

func TestMemoryMapValidation(t *testing.T) {
	m := testMap(t)

	if _, _, err := m.Next(0, E820EntrySize-1); !errors.Is(err, ErrUnsupportedRecordSize) {
		t.Fatalf("small record size: got %v, want ErrUnsupportedRecordSize", err)
	}
	if _, _, err := m.Next(0, E820EntrySize+4); !errors.Is(err, ErrUnsupportedRecordSize) {
		t.Fatalf("large record size: got %v, want ErrUnsupportedRecordSize", err)
	}
	if _, _, err := m.Next(uint32(m.Len()), E820EntrySize); !errors.Is(err, ErrInvalidCursor) {
		t.Fatalf("cursor == len: got %v, want ErrInvalidCursor", err)
	}

	// Record size is validated before the cursor.
	if _, _, err := m.Next(uint32(m.Len()), 7); !errors.Is(err, ErrUnsupportedRecordSize) {
		t.Fatalf("validation order: got %v, want ErrUnsupportedRecordSize", err)
	}
}

func TestEntryEncode(t *testing.T) {
	e := Entry{Base: 0x100000, Length: 0x700000, Type: E820Usable}
	buf := e.Encode()

	if got := binary.LittleEndian.Uint64(buf[0:]); got != e.Base {
		t.Fatalf("base = %#x, want %#x", got, e.Base)
	}
	if got := binary.LittleEndian.Uint64(buf[8:]); got != e.Length {
		t.Fatalf("length = %#x, want %#x", got, e.Length)
	}
	if got := binary.LittleEndian.Uint32(buf[16:]); got != e.Type {
		t.Fatalf("type = %d, want %d", got, e.Type)
	}
}

func TestDefaultMemoryMap(t *testing.T) {
	m, err := DefaultMemoryMap(8 << 20)
	if err != nil {
		t.Fatalf("DefaultMemoryMap: %v", err)
	}

	entries := m.Entries()
	last := entries[len(entries)-1]
	if last.Base != 1<<20 || last.Length != 7<<20 || last.Type != E820Usable {
		t.Fatalf("extended memory entry = %+v", last)
	}

	// 1 MiB machines have no extended entry.
	small, err := DefaultMemoryMap(1 << 20)
	if err != nil {
		t.Fatalf("DefaultMemoryMap small: %v", err)
	}
	for _, e := range small.Entries() {
		if e.Base >= 1<<20 {
			t.Fatalf("unexpected extended entry %+v for 1 MiB machine", e)
		}
	}
}

func TestMemoryMapCapacity(t *testing.T) {
	entries := make([]Entry, MaxE820Entries+1)
	for i := range entries {
		entries[i] = Entry{Base: uint64(i) << 20, Length: 1 << 20, Type: E820Usable}
	}
	if _, err := NewMemoryMap(entries); err == nil {
		t.Fatal("expected error for oversized map")
	}
	if _, err := NewMemoryMap(nil); err == nil {
		t.Fatal("expected error for empty map")
	}
}
