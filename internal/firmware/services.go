package firmware

import (
	"fmt"
	"sync"

	"github.com/tinyrange/legacybios/internal/guest"
)

// Services implements the legacy system services: A20 gate control, the
// protected-mode block move, memory map enumeration and the extended
// memory size reports.
//
// The services are synchronous, single-shot and hold no per-caller state.
// The block move is serialized internally so two callers cannot interleave
// gate toggles (the single-caller contract of the original firmware,
// expressed as a mutex).
type Services struct {
	mem     guest.Memory
	gate    A20Gate
	memmap  *MemoryMap
	ramSize uint64

	copier PrivilegedCopier
	irq    InterruptGuard

	moveMu sync.Mutex
}

// ServicesOption customises a Services instance.
type ServicesOption func(*Services)

// WithPrivilegedCopier substitutes the protected-mode copy implementation.
func WithPrivilegedCopier(c PrivilegedCopier) ServicesOption {
	return func(s *Services) {
		if c != nil {
			s.copier = c
		}
	}
}

// WithInterruptGuard substitutes the interrupt suppression hook held
// across the block move critical section.
func WithInterruptGuard(g InterruptGuard) ServicesOption {
	return func(s *Services) {
		if g != nil {
			s.irq = g
		}
	}
}

// NewServices wires the system services to guest memory, the A20 gate
// device and the platform memory map.
func NewServices(mem guest.Memory, gate A20Gate, memmap *MemoryMap, ramSize uint64, opts ...ServicesOption) (*Services, error) {
	if mem == nil {
		return nil, fmt.Errorf("firmware: guest memory is nil")
	}
	if gate == nil {
		return nil, fmt.Errorf("firmware: A20 gate is nil")
	}
	if memmap == nil {
		return nil, fmt.Errorf("firmware: memory map is nil")
	}
	s := &Services{
		mem:     mem,
		gate:    gate,
		memmap:  memmap,
		ramSize: ramSize,
		irq:     noopInterruptGuard{},
	}
	s.copier = &GuestCopier{Mem: mem, Gate: gate}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SetA20 sets the A20 gate and reports the previous state.
func (s *Services) SetA20(enable bool) bool {
	return s.gate.SetGate(enable)
}

// A20Enabled reports the current gate state.
func (s *Services) A20Enabled() bool {
	return s.gate.GateEnabled()
}

// MemoryMap returns the installed physical memory map.
func (s *Services) MemoryMap() *MemoryMap { return s.memmap }

// NextMapEntry returns the memory map entry at cursor together with the
// continuation cursor (zero once the enumeration is complete).
func (s *Services) NextMapEntry(cursor uint32, recordSize uint32) (Entry, uint32, error) {
	return s.memmap.Next(cursor, recordSize)
}

// EnumerateMap is NextMapEntry behind the full call contract: the caller
// must present the map signature before any other validation runs.
func (s *Services) EnumerateMap(signature uint32, cursor uint32, recordSize uint32) (Entry, uint32, error) {
	if signature != MapSignature {
		return Entry{}, 0, fmt.Errorf("%w: %#x", ErrInvalidSignature, signature)
	}
	return s.memmap.Next(cursor, recordSize)
}
