package pci

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/tinyrange/legacybios/internal/chipset"
	"github.com/tinyrange/legacybios/internal/guest"
)

const (
	configAddrPort uint16 = 0xCF8
	configDataPort uint16 = 0xCFC

	configEnableBit = 1 << 31
)

// BDF identifies a PCI function as bus/device/function.
type BDF uint16

// NewBDF packs a bus/device/function tuple.
func NewBDF(bus, dev, fn uint8) BDF {
	return BDF(uint16(bus)<<8 | uint16(dev&0x1F)<<3 | uint16(fn&0x7))
}

func (b BDF) Bus() uint8      { return uint8(b >> 8) }
func (b BDF) Device() uint8   { return uint8(b>>3) & 0x1F }
func (b BDF) Function() uint8 { return uint8(b) & 0x7 }

func (b BDF) String() string {
	return fmt.Sprintf("%02x:%02x.%d", b.Bus(), b.Device(), b.Function())
}

// ConfigSpace models PCI configuration space access for a single function.
type ConfigSpace interface {
	ReadConfig(offset uint16, size uint8) (uint32, error)
	WriteConfig(offset uint16, size uint8, value uint32) error
}

// SimpleConfigSpace is a flat 256-byte configuration space.
type SimpleConfigSpace struct {
	mu   sync.Mutex
	regs [256]byte
}

// NewSimpleConfigSpace returns a config space with the given vendor and
// device identifiers pre-filled.
func NewSimpleConfigSpace(vendor, device uint16) *SimpleConfigSpace {
	s := &SimpleConfigSpace{}
	binary.LittleEndian.PutUint16(s.regs[0:], vendor)
	binary.LittleEndian.PutUint16(s.regs[2:], device)
	return s
}

func (s *SimpleConfigSpace) ReadConfig(offset uint16, size uint8) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := checkConfigAccess(offset, size); err != nil {
		return 0, err
	}
	switch size {
	case 1:
		return uint32(s.regs[offset]), nil
	case 2:
		return uint32(binary.LittleEndian.Uint16(s.regs[offset:])), nil
	default:
		return binary.LittleEndian.Uint32(s.regs[offset:]), nil
	}
}

func (s *SimpleConfigSpace) WriteConfig(offset uint16, size uint8, value uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := checkConfigAccess(offset, size); err != nil {
		return err
	}
	switch size {
	case 1:
		s.regs[offset] = byte(value)
	case 2:
		binary.LittleEndian.PutUint16(s.regs[offset:], uint16(value))
	default:
		binary.LittleEndian.PutUint32(s.regs[offset:], value)
	}
	return nil
}

func checkConfigAccess(offset uint16, size uint8) error {
	if size != 1 && size != 2 && size != 4 {
		return fmt.Errorf("pci: invalid config access size %d", size)
	}
	if int(offset)+int(size) > 256 {
		return fmt.Errorf("pci: config offset 0x%x size %d out of range", offset, size)
	}
	return nil
}

// HostBridge provides mechanism #1 configuration access (ports 0xCF8/0xCFC)
// to registered PCI functions. Accesses to absent functions read all-ones
// and drop writes.
type HostBridge struct {
	mu      sync.Mutex
	addr    uint32
	devices map[BDF]ConfigSpace
}

func NewHostBridge() *HostBridge {
	return &HostBridge{
		devices: make(map[BDF]ConfigSpace),
	}
}

// RegisterDevice adds a function behind the bridge.
func (h *HostBridge) RegisterDevice(bdf BDF, cs ConfigSpace) error {
	if cs == nil {
		return fmt.Errorf("pci: config space for %s is nil", bdf)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.devices[bdf]; exists {
		return fmt.Errorf("pci: function %s already registered", bdf)
	}
	h.devices[bdf] = cs
	return nil
}

// Device returns the config space registered for the given function.
func (h *HostBridge) Device(bdf BDF) (ConfigSpace, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	cs, ok := h.devices[bdf]
	return cs, ok
}

func (h *HostBridge) Init(mem guest.Memory) error {
	_ = mem
	return nil
}

func (h *HostBridge) Start() error { return nil }
func (h *HostBridge) Stop() error  { return nil }

func (h *HostBridge) Reset() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.addr = 0
	return nil
}

func (h *HostBridge) SupportsPortIO() *chipset.PortIOIntercept {
	return &chipset.PortIOIntercept{
		Ports: []uint16{
			configAddrPort, configAddrPort + 1, configAddrPort + 2, configAddrPort + 3,
			configDataPort, configDataPort + 1, configDataPort + 2, configDataPort + 3,
		},
		Handler: h,
	}
}

func (h *HostBridge) ReadIOPort(port uint16, data []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch {
	case port == configAddrPort && len(data) == 4:
		binary.LittleEndian.PutUint32(data, h.addr)
		return nil
	case port >= configDataPort && port < configDataPort+4:
		value, err := h.configReadLocked(port, uint8(len(data)))
		if err != nil {
			return err
		}
		putLE(data, value)
		return nil
	default:
		return fmt.Errorf("pci: invalid read port 0x%04x size %d", port, len(data))
	}
}

func (h *HostBridge) WriteIOPort(port uint16, data []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch {
	case port == configAddrPort && len(data) == 4:
		h.addr = binary.LittleEndian.Uint32(data)
		return nil
	case port >= configDataPort && port < configDataPort+4:
		return h.configWriteLocked(port, uint8(len(data)), getLE(data))
	default:
		return fmt.Errorf("pci: invalid write port 0x%04x size %d", port, len(data))
	}
}

func (h *HostBridge) configReadLocked(port uint16, size uint8) (uint32, error) {
	cs, offset, ok := h.decodeLocked(port)
	if !ok {
		// All-ones is how absent functions read on real buses.
		return 0xFFFFFFFF, nil
	}
	return cs.ReadConfig(offset, size)
}

func (h *HostBridge) configWriteLocked(port uint16, size uint8, value uint32) error {
	cs, offset, ok := h.decodeLocked(port)
	if !ok {
		return nil
	}
	return cs.WriteConfig(offset, size, value)
}

func (h *HostBridge) decodeLocked(port uint16) (ConfigSpace, uint16, bool) {
	if h.addr&configEnableBit == 0 {
		return nil, 0, false
	}
	bdf := BDF(h.addr >> 8)
	cs, ok := h.devices[bdf]
	if !ok {
		return nil, 0, false
	}
	offset := uint16(h.addr)&0xFC | (port-configDataPort)&0x3
	return cs, offset, true
}

func putLE(data []byte, value uint32) {
	for i := range data {
		data[i] = byte(value >> (8 * i))
	}
}

func getLE(data []byte) uint32 {
	var value uint32
	for i := range data {
		value |= uint32(data[i]) << (8 * i)
	}
	return value
}

var _ chipset.Device = (*HostBridge)(nil)
var _ chipset.PortIOHandler = (*HostBridge)(nil)
