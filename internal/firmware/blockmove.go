package firmware

import (
	"fmt"

	"github.com/tinyrange/legacybios/internal/guest"
)

// BlockMoveRequest is the typed form of the fn 0x87 call. The caller owns
// a six-slot descriptor table at ES:SI with the source and destination
// descriptors pre-filled at offsets 0x10 and 0x18; the remaining slots are
// populated by the service.
type BlockMoveRequest struct {
	TableSegment uint16 // ES
	TableOffset  uint16 // SI
	StackSegment uint16 // SS of the caller, for the stack descriptor
	WordCount    uint16 // count of 16-bit words to copy
}

// Base address and limit of the firmware code segment descriptor.
const (
	firmwareCodeBase  = 0x000F0000
	firmwareCodeLimit = 0x0FFFF
)

// MoveBlock copies WordCount 16-bit words between the regions named by the
// caller-supplied source and destination descriptors, temporarily entering
// protected mode to reach memory above 1 MiB.
//
// The A20 gate is forced on for the copy and restored to its prior state
// before returning, success or not. The copy itself runs with interrupts
// suppressed; descriptor construction problems surface as ErrModeTransition
// before any word is written.
func (s *Services) MoveBlock(req BlockMoveRequest) error {
	s.moveMu.Lock()
	defer s.moveMu.Unlock()

	prev := s.gate.SetGate(true)
	defer s.gate.SetGate(prev)

	tableAddr := uint64(req.TableSegment)<<4 + uint64(req.TableOffset)

	// Slot 1 describes the descriptor table itself.
	self := SegmentDescriptor{
		Base:   uint32(tableAddr),
		Limit:  blockMoveTableSize - 1,
		Access: descAccessData,
	}
	if err := s.writeDescriptor(tableAddr, slotGDT, self); err != nil {
		return err
	}

	// Slot 4 covers the firmware's own code segment, slot 5 the caller's
	// stack segment.
	code := SegmentDescriptor{
		Base:   firmwareCodeBase,
		Limit:  firmwareCodeLimit,
		Access: descAccessCode,
	}
	if err := s.writeDescriptor(tableAddr, slotCode, code); err != nil {
		return err
	}
	stack := SegmentDescriptor{
		Base:   uint32(req.StackSegment) << 4,
		Limit:  0xFFFF,
		Access: descAccessData,
	}
	if err := s.writeDescriptor(tableAddr, slotStack, stack); err != nil {
		return err
	}

	src, err := s.readDescriptor(tableAddr, slotSource)
	if err != nil {
		return err
	}
	dst, err := s.readDescriptor(tableAddr, slotDest)
	if err != nil {
		return err
	}

	// The transition and copy are one indivisible region: an interrupt
	// taken here would run on the protected-mode vector table.
	restore := s.irq.Suppress()
	err = s.copier.CopyWords(src, dst, req.WordCount)
	restore()
	return err
}

func (s *Services) writeDescriptor(tableAddr uint64, slot int, desc SegmentDescriptor) error {
	addr := tableAddr + uint64(slot)*descriptorSize
	if err := guest.WriteUint64(s.mem, addr, desc.Encode()); err != nil {
		return fmt.Errorf("%w: descriptor table slot %d unreachable: %v", ErrModeTransition, slot, err)
	}
	return nil
}

func (s *Services) readDescriptor(tableAddr uint64, slot int) (SegmentDescriptor, error) {
	addr := tableAddr + uint64(slot)*descriptorSize
	raw, err := guest.ReadUint64(s.mem, addr)
	if err != nil {
		return SegmentDescriptor{}, fmt.Errorf("%w: descriptor table slot %d unreachable: %v", ErrModeTransition, slot, err)
	}
	return DecodeSegmentDescriptor(raw), nil
}
