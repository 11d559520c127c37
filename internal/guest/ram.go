package guest

import (
	"fmt"
)

// RAM is a flat guest physical memory region starting at address zero.
type RAM struct {
	buf     []byte
	release func([]byte) error
}

// NewRAM allocates a zero-filled guest memory region of the requested size.
// On Linux the backing is an anonymous mapping; elsewhere it is heap memory.
func NewRAM(size uint64) (*RAM, error) {
	maxInt := uint64(^uint(0) >> 1)
	if size == 0 || size > maxInt {
		return nil, fmt.Errorf("guest: invalid RAM size %d", size)
	}
	buf, release, err := allocate(int(size))
	if err != nil {
		return nil, fmt.Errorf("guest: allocate RAM: %w", err)
	}
	return &RAM{buf: buf, release: release}, nil
}

// Size implements Memory.
func (r *RAM) Size() uint64 { return uint64(len(r.buf)) }

// ReadAt implements Memory.
func (r *RAM) ReadAt(p []byte, off int64) (n int, err error) {
	if r.buf == nil {
		return 0, fmt.Errorf("guest: ReadAt after close")
	}
	if off < 0 || off >= int64(len(r.buf)) {
		return 0, fmt.Errorf("guest: ReadAt address 0x%x out of bounds", off)
	}
	n = copy(p, r.buf[off:])
	if n < len(p) {
		err = fmt.Errorf("guest: ReadAt short read at 0x%x", off)
	}
	return n, err
}

// WriteAt implements Memory.
func (r *RAM) WriteAt(p []byte, off int64) (n int, err error) {
	if r.buf == nil {
		return 0, fmt.Errorf("guest: WriteAt after close")
	}
	if off < 0 || off >= int64(len(r.buf)) {
		return 0, fmt.Errorf("guest: WriteAt address 0x%x out of bounds", off)
	}
	n = copy(r.buf[off:], p)
	if n < len(p) {
		err = fmt.Errorf("guest: WriteAt short write at 0x%x", off)
	}
	return n, err
}

// Close releases the backing memory. The RAM must not be used afterwards.
func (r *RAM) Close() error {
	if r.buf == nil {
		return nil
	}
	buf := r.buf
	r.buf = nil
	if r.release != nil {
		return r.release(buf)
	}
	return nil
}

var _ Memory = (*RAM)(nil)
