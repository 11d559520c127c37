package chipset

import (
	"fmt"
	"sync"

	corechipset "github.com/tinyrange/legacybios/internal/chipset"
	"github.com/tinyrange/legacybios/internal/guest"
)

const (
	sysCtrlPortA uint16 = 0x92

	fastResetBit byte = 1 << 0
	a20EnableBit byte = 1 << 1
)

// SystemControlPortA implements the PS/2 system control port A register
// (port 0x92): bit 1 gates the A20 address line, bit 0 pulses the CPU
// reset line and always reads back as zero.
type SystemControlPortA struct {
	mu sync.Mutex

	a20       bool
	resetLine func()
}

func NewSystemControlPortA() *SystemControlPortA {
	return &SystemControlPortA{}
}

// SetResetLine configures the callback pulsed by a fast-reset write.
func (p *SystemControlPortA) SetResetLine(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLine = fn
}

// SetGate sets the A20 gate and reports the previous state. Setting the
// same value repeatedly is harmless.
func (p *SystemControlPortA) SetGate(enable bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	prev := p.a20
	p.a20 = enable
	return prev
}

// GateEnabled reports whether addresses above 1 MiB are currently reachable.
func (p *SystemControlPortA) GateEnabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.a20
}

func (p *SystemControlPortA) Init(mem guest.Memory) error {
	_ = mem
	return nil
}

func (p *SystemControlPortA) Start() error { return nil }
func (p *SystemControlPortA) Stop() error  { return nil }

func (p *SystemControlPortA) Reset() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.a20 = false
	return nil
}

func (p *SystemControlPortA) SupportsPortIO() *corechipset.PortIOIntercept {
	return &corechipset.PortIOIntercept{
		Ports:   []uint16{sysCtrlPortA},
		Handler: p,
	}
}

func (p *SystemControlPortA) ReadIOPort(port uint16, data []byte) error {
	if len(data) != 1 {
		return fmt.Errorf("port92: invalid read size %d", len(data))
	}
	if port != sysCtrlPortA {
		return fmt.Errorf("port92: invalid read port 0x%04x", port)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var val byte
	if p.a20 {
		val |= a20EnableBit
	}
	data[0] = val
	return nil
}

func (p *SystemControlPortA) WriteIOPort(port uint16, data []byte) error {
	if len(data) != 1 {
		return fmt.Errorf("port92: invalid write size %d", len(data))
	}
	if port != sysCtrlPortA {
		return fmt.Errorf("port92: invalid write port 0x%04x", port)
	}

	p.mu.Lock()
	p.a20 = data[0]&a20EnableBit != 0
	reset := data[0]&fastResetBit != 0
	resetLine := p.resetLine
	p.mu.Unlock()

	if reset && resetLine != nil {
		resetLine()
	}
	return nil
}

var _ corechipset.Device = (*SystemControlPortA)(nil)
var _ corechipset.PortIOHandler = (*SystemControlPortA)(nil)
