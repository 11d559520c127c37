package firmware

// Status codes reported in AH by the register-level entry points.
const (
	RetOK           byte = 0x00
	RetEUnsupported byte = 0x86
)

// Regs is the register frame passed to the int 15h entry points. It mirrors
// the legacy calling convention: function code in AH, sub-function in AL,
// results in the named registers, carry flag set on failure.
type Regs struct {
	EAX uint32
	EBX uint32
	ECX uint32
	EDX uint32
	ESI uint32
	EDI uint32

	ES uint16
	DS uint16
	SS uint16

	CarryFlag bool
}

func (r *Regs) AX() uint16 { return uint16(r.EAX) }
func (r *Regs) AH() byte   { return byte(r.EAX >> 8) }
func (r *Regs) AL() byte   { return byte(r.EAX) }
func (r *Regs) BX() uint16 { return uint16(r.EBX) }
func (r *Regs) CX() uint16 { return uint16(r.ECX) }
func (r *Regs) DX() uint16 { return uint16(r.EDX) }
func (r *Regs) SI() uint16 { return uint16(r.ESI) }
func (r *Regs) DI() uint16 { return uint16(r.EDI) }

func (r *Regs) SetAX(v uint16) { r.EAX = r.EAX&0xFFFF0000 | uint32(v) }
func (r *Regs) SetAH(v byte)   { r.EAX = r.EAX&0xFFFF00FF | uint32(v)<<8 }
func (r *Regs) SetAL(v byte)   { r.EAX = r.EAX&0xFFFFFF00 | uint32(v) }
func (r *Regs) SetBX(v uint16) { r.EBX = r.EBX&0xFFFF0000 | uint32(v) }
func (r *Regs) SetCX(v uint16) { r.ECX = r.ECX&0xFFFF0000 | uint32(v) }
func (r *Regs) SetDX(v uint16) { r.EDX = r.EDX&0xFFFF0000 | uint32(v) }

// SetSuccess clears the carry flag without touching AH.
func (r *Regs) SetSuccess() { r.CarryFlag = false }

// SetCodeSuccess clears the carry flag and reports status RetOK in AH.
func (r *Regs) SetCodeSuccess() {
	r.CarryFlag = false
	r.SetAH(RetOK)
}

// SetCodeFail sets the carry flag and reports the given status in AH.
func (r *Regs) SetCodeFail(code byte) {
	r.CarryFlag = true
	r.SetAH(code)
}
