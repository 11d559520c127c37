package firmware

// Segment descriptor access bytes used by the block move service.
const (
	descAccessData byte = 0x93 // present, data, writable, accessed
	descAccessCode byte = 0x9B // present, code, readable, accessed
)

const (
	descriptorSize = 8

	// The block move descriptor table holds six slots: null, the table
	// itself, source, destination, code and stack.
	blockMoveSlots     = 6
	blockMoveTableSize = blockMoveSlots * descriptorSize

	slotGDT    = 1
	slotSource = 2
	slotDest   = 3
	slotCode   = 4
	slotStack  = 5
)

// Caller-filled slot offsets within the block move table.
const (
	BlockMoveSourceOffset = slotSource * descriptorSize // 0x10
	BlockMoveDestOffset   = slotDest * descriptorSize   // 0x18
)

// SegmentDescriptor describes one memory region as consumed by the CPU when
// entering protected mode: a 32-bit base, a 20-bit limit (length minus one,
// byte granularity) and an access byte.
type SegmentDescriptor struct {
	Base   uint32
	Limit  uint32
	Access byte
}

// Encode packs the descriptor into its 8-byte hardware representation.
func (d SegmentDescriptor) Encode() uint64 {
	return uint64(d.Limit)&0x0000FFFF |
		(uint64(d.Limit)&0x000F0000)<<(48-16) |
		(uint64(d.Base)&0x00FFFFFF)<<16 |
		(uint64(d.Base)&0xFF000000)<<(56-24) |
		uint64(d.Access)<<40
}

// DecodeSegmentDescriptor unpacks an 8-byte hardware descriptor.
func DecodeSegmentDescriptor(raw uint64) SegmentDescriptor {
	return SegmentDescriptor{
		Base: uint32(raw>>16)&0x00FFFFFF |
			uint32(raw>>(56-24))&0xFF000000,
		Limit: uint32(raw)&0x0000FFFF |
			uint32(raw>>(48-16))&0x000F0000,
		Access: byte(raw >> 40),
	}
}

// ByteLength returns the region length described by the limit field.
func (d SegmentDescriptor) ByteLength() uint64 {
	return uint64(d.Limit) + 1
}
