package firmware

// Int 15h function codes handled by this service layer.
const (
	fnA20       byte = 0x24
	fnBlockMove byte = 0x87
	fnExtSize   byte = 0x88
	fnE8        byte = 0xE8

	subA20Disable     byte = 0x00
	subA20Enable      byte = 0x01
	subA20Query       byte = 0x02
	subA20Support     byte = 0x03
	subE8SizeSplit    byte = 0x01
	subE8MapEnumerate byte = 0x20
)

// a20SupportMask advertises that both port-0x92 gate methods work.
const a20SupportMask uint16 = 3

// HandleInt15 is the register-level entry point. The function code is
// taken from AH, sub-functions from AL, arguments and results travel in
// the frame. Unrecognized codes report status 0x86 with the carry flag
// set and no side effects.
func (s *Services) HandleInt15(regs *Regs) {
	switch regs.AH() {
	case fnA20:
		s.handleA20(regs)
	case fnBlockMove:
		s.handleBlockMove(regs)
	case fnExtSize:
		s.handleExtSize(regs)
	case fnE8:
		s.handleE8(regs)
	default:
		regs.SetCodeFail(RetEUnsupported)
	}
}

func (s *Services) handleA20(regs *Regs) {
	switch regs.AL() {
	case subA20Disable:
		s.gate.SetGate(false)
		regs.SetCodeSuccess()
	case subA20Enable:
		s.gate.SetGate(true)
		regs.SetCodeSuccess()
	case subA20Query:
		if s.gate.GateEnabled() {
			regs.SetAL(1)
		} else {
			regs.SetAL(0)
		}
		regs.SetCodeSuccess()
	case subA20Support:
		regs.SetBX(a20SupportMask)
		regs.SetCodeSuccess()
	default:
		regs.SetCodeFail(RetEUnsupported)
	}
}

func (s *Services) handleBlockMove(regs *Regs) {
	err := s.MoveBlock(BlockMoveRequest{
		TableSegment: regs.ES,
		TableOffset:  regs.SI(),
		StackSegment: regs.SS,
		WordCount:    regs.CX(),
	})
	if err != nil {
		regs.SetCodeFail(RetEUnsupported)
		return
	}
	regs.SetCodeSuccess()
}

func (s *Services) handleExtSize(regs *Regs) {
	regs.SetAX(s.LegacyExtendedSizeKiB())
	regs.SetSuccess()
}

func (s *Services) handleE8(regs *Regs) {
	switch regs.AL() {
	case subE8SizeSplit:
		rep := s.ExtendedSize()
		regs.SetCX(rep.Below16MKiB)
		regs.SetDX(rep.Above16MBlocks)
		regs.SetAX(rep.ConfiguredBelow16MKiB)
		regs.SetBX(rep.ConfiguredAbove16MBlocks)
		regs.SetSuccess()
	case subE8MapEnumerate:
		s.handleMapEnumerate(regs)
	default:
		regs.SetCodeFail(RetEUnsupported)
	}
}

func (s *Services) handleMapEnumerate(regs *Regs) {
	entry, next, err := s.EnumerateMap(regs.EDX, regs.EBX, regs.ECX)
	if err != nil {
		regs.SetCodeFail(RetEUnsupported)
		return
	}

	buf := entry.Encode()
	dest := uint64(regs.ES)<<4 + uint64(regs.DI())
	if _, err := s.mem.WriteAt(buf[:], int64(dest)); err != nil {
		regs.SetCodeFail(RetEUnsupported)
		return
	}

	regs.EBX = next
	regs.EAX = MapSignature
	regs.ECX = E820EntrySize
	regs.SetSuccess()
}
