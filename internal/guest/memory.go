package guest

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Memory is guest physical memory. Offsets passed to ReadAt/WriteAt are guest
// physical addresses.
type Memory interface {
	io.ReaderAt
	io.WriterAt

	Size() uint64
}

// ReadWord reads a little-endian 16-bit word at the given physical address.
func ReadWord(mem Memory, addr uint64) (uint16, error) {
	var buf [2]byte
	if _, err := mem.ReadAt(buf[:], int64(addr)); err != nil {
		return 0, fmt.Errorf("guest: read word at 0x%x: %w", addr, err)
	}
	return binary.LittleEndian.Uint16(buf[:]), nil
}

// WriteWord writes a little-endian 16-bit word at the given physical address.
func WriteWord(mem Memory, addr uint64, value uint16) error {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], value)
	if _, err := mem.WriteAt(buf[:], int64(addr)); err != nil {
		return fmt.Errorf("guest: write word at 0x%x: %w", addr, err)
	}
	return nil
}

// ReadUint64 reads a little-endian 64-bit value at the given physical address.
func ReadUint64(mem Memory, addr uint64) (uint64, error) {
	var buf [8]byte
	if _, err := mem.ReadAt(buf[:], int64(addr)); err != nil {
		return 0, fmt.Errorf("guest: read u64 at 0x%x: %w", addr, err)
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// WriteUint64 writes a little-endian 64-bit value at the given physical address.
func WriteUint64(mem Memory, addr uint64, value uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], value)
	if _, err := mem.WriteAt(buf[:], int64(addr)); err != nil {
		return fmt.Errorf("guest: write u64 at 0x%x: %w", addr, err)
	}
	return nil
}
