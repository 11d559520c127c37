package chipset

import (
	"github.com/tinyrange/legacybios/internal/guest"
)

// PortIOHandler handles reads and writes to individual I/O ports.
type PortIOHandler interface {
	ReadIOPort(port uint16, data []byte) error
	WriteIOPort(port uint16, data []byte) error
}

// PortIOIntercept describes the ports a device wants to serve and the handler for them.
type PortIOIntercept struct {
	Ports   []uint16
	Handler PortIOHandler
}

// ChangeDeviceState exposes lifecycle hooks for chipset devices.
type ChangeDeviceState interface {
	Start() error
	Stop() error
	Reset() error
}

// Device is the unified interface all chipset devices must implement.
type Device interface {
	ChangeDeviceState

	Init(mem guest.Memory) error
	SupportsPortIO() *PortIOIntercept
}

// BaseDevice provides no-op lifecycle methods for devices that need none.
type BaseDevice struct{}

func (BaseDevice) Start() error                { return nil }
func (BaseDevice) Stop() error                 { return nil }
func (BaseDevice) Reset() error                { return nil }
func (BaseDevice) Init(mem guest.Memory) error { return nil }
