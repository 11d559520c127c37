package firmware

import (
	"fmt"

	"github.com/tinyrange/legacybios/internal/guest"
)

// A20Gate controls the address line mask that decides whether physical
// addresses above 1 MiB are reachable.
type A20Gate interface {
	// SetGate sets the gate and reports the previous state.
	SetGate(enable bool) bool
	// GateEnabled reports the current state.
	GateEnabled() bool
}

// PrivilegedCopier performs the protected-mode word copy at the heart of
// the block move service. Implementations are handed fully decoded source
// and destination descriptors and must copy exactly the requested number
// of 16-bit words in ascending address order, or fail without copying.
//
// On real hardware this is the CPU mode switch plus rep movsw; here it is
// the one seam where an emulator or test can substitute its own copy.
type PrivilegedCopier interface {
	CopyWords(src, dst SegmentDescriptor, words uint16) error
}

// InterruptGuard suppresses maskable interrupts for the duration of the
// mode transition. An interrupt delivered mid-transition would observe an
// inconsistent vector configuration, so the guard must be held across the
// whole copy.
type InterruptGuard interface {
	// Suppress masks interrupts and returns the function that restores
	// the previous configuration.
	Suppress() (restore func())
}

type noopInterruptGuard struct{}

func (noopInterruptGuard) Suppress() func() { return func() {} }

// GuestCopier is the standard PrivilegedCopier: it copies through guest
// physical memory, applying the A20 wrap (bit 20 forced low) while the
// gate is disabled.
type GuestCopier struct {
	Mem  guest.Memory
	Gate A20Gate
}

const a20WrapMask = ^uint64(1 << 20)

func (c *GuestCopier) CopyWords(src, dst SegmentDescriptor, words uint16) error {
	if words == 0 {
		return nil
	}

	byteLen := uint64(words) * 2
	if src.ByteLength() < byteLen {
		return fmt.Errorf("%w: source limit 0x%x below copy length 0x%x", ErrModeTransition, src.Limit, byteLen)
	}
	if dst.ByteLength() < byteLen {
		return fmt.Errorf("%w: destination limit 0x%x below copy length 0x%x", ErrModeTransition, dst.Limit, byteLen)
	}

	wrap := c.Gate == nil || !c.Gate.GateEnabled()
	if end := c.addr(uint64(src.Base)+byteLen-1, wrap); end >= c.Mem.Size() {
		return fmt.Errorf("%w: source region 0x%x+0x%x outside guest RAM", ErrModeTransition, src.Base, byteLen)
	}
	if end := c.addr(uint64(dst.Base)+byteLen-1, wrap); end >= c.Mem.Size() {
		return fmt.Errorf("%w: destination region 0x%x+0x%x outside guest RAM", ErrModeTransition, dst.Base, byteLen)
	}

	var word [2]byte
	for i := uint64(0); i < uint64(words); i++ {
		srcAddr := c.addr(uint64(src.Base)+2*i, wrap)
		dstAddr := c.addr(uint64(dst.Base)+2*i, wrap)
		if _, err := c.Mem.ReadAt(word[:], int64(srcAddr)); err != nil {
			return fmt.Errorf("%w: %v", ErrModeTransition, err)
		}
		if _, err := c.Mem.WriteAt(word[:], int64(dstAddr)); err != nil {
			return fmt.Errorf("%w: %v", ErrModeTransition, err)
		}
	}
	return nil
}

func (c *GuestCopier) addr(a uint64, wrap bool) uint64 {
	if wrap {
		return a & a20WrapMask
	}
	return a
}

var _ PrivilegedCopier = (*GuestCopier)(nil)
