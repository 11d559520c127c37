// Package legacybios implements the legacy PC firmware "system services":
// A20 gate control, the protected-mode block move, physical memory map
// enumeration and the extended memory size reports, together with the
// platform devices they depend on.
package legacybios

import (
	"fmt"
	"log/slog"

	"github.com/tinyrange/legacybios/internal/acpi"
	"github.com/tinyrange/legacybios/internal/chipset"
	amd64chipset "github.com/tinyrange/legacybios/internal/devices/amd64/chipset"
	"github.com/tinyrange/legacybios/internal/devices/pci"
	"github.com/tinyrange/legacybios/internal/firmware"
	"github.com/tinyrange/legacybios/internal/guest"
)

// Re-exported service types.
type (
	// Regs is the register frame passed to HandleInt15.
	Regs = firmware.Regs

	// Services is the system service layer.
	Services = firmware.Services

	// Entry is one physical memory map record.
	Entry = firmware.Entry

	// MemoryMap is the fixed physical memory map table.
	MemoryMap = firmware.MemoryMap

	// BlockMoveRequest is the typed form of the block move call.
	BlockMoveRequest = firmware.BlockMoveRequest

	// ExtendedSizeReport carries the split extended memory figures.
	ExtendedSizeReport = firmware.ExtendedSizeReport

	// SegmentDescriptor describes one region for the block move.
	SegmentDescriptor = firmware.SegmentDescriptor
)

// Sentinel errors returned by the services.
var (
	ErrUnsupportedFunction   = firmware.ErrUnsupportedFunction
	ErrInvalidSignature      = firmware.ErrInvalidSignature
	ErrInvalidCursor         = firmware.ErrInvalidCursor
	ErrUnsupportedRecordSize = firmware.ErrUnsupportedRecordSize
	ErrModeTransition        = firmware.ErrModeTransition
)

// Memory map entry types.
const (
	E820Usable      = firmware.E820Usable
	E820Reserved    = firmware.E820Reserved
	E820ACPIReclaim = firmware.E820ACPIReclaim
	E820ACPINVS     = firmware.E820ACPINVS
	E820Unusable    = firmware.E820Unusable
)

// PCI slots of the emulated i440fx board.
var (
	isaBridgeBDF = pci.NewBDF(0, 1, 0)
	ideBDF       = pci.NewBDF(0, 1, 1)
	pmBDF        = pci.NewBDF(0, 1, 3)
)

// fadtInstallAddr places the patched platform description table inside the
// reserved firmware region below 1 MiB.
const fadtInstallAddr = 0x000F0400

// Machine assembles guest RAM, the legacy chipset devices and the system
// services into one emulated platform.
type Machine struct {
	RAM      *guest.RAM
	Chipset  *chipset.Chipset
	Gate     *amd64chipset.SystemControlPortA
	PCI      *pci.HostBridge
	Services *firmware.Services
}

// NewMachine builds a machine from the given configuration and runs the
// one-time chipset bring-up.
func NewMachine(cfg Config) (*Machine, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("legacybios: %w", err)
	}

	ram, err := guest.NewRAM(cfg.memoryBytes())
	if err != nil {
		return nil, err
	}

	gate := amd64chipset.NewSystemControlPortA()
	bridge := pci.NewHostBridge()

	builder := chipset.NewBuilder()
	if err := builder.RegisterDevice("port92", gate); err != nil {
		ram.Close()
		return nil, err
	}
	if err := builder.RegisterDevice("pci-host", bridge); err != nil {
		ram.Close()
		return nil, err
	}
	cs, err := builder.Build()
	if err != nil {
		ram.Close()
		return nil, err
	}
	if err := cs.Init(ram); err != nil {
		ram.Close()
		return nil, err
	}

	memmap, err := cfg.buildMemoryMap()
	if err != nil {
		ram.Close()
		return nil, err
	}

	services, err := firmware.NewServices(ram, gate, memmap, cfg.memoryBytes())
	if err != nil {
		ram.Close()
		return nil, err
	}

	m := &Machine{
		RAM:      ram,
		Chipset:  cs,
		Gate:     gate,
		PCI:      bridge,
		Services: services,
	}
	if err := m.bringUp(); err != nil {
		ram.Close()
		return nil, err
	}

	slog.Debug("machine assembled",
		"memory_mb", cfg.MemoryMB,
		"map_entries", memmap.Len())
	return m, nil
}

// bringUp registers the PIIX functions and runs the one-time chipset
// register pokes.
func (m *Machine) bringUp() error {
	isa := pci.NewSimpleConfigSpace(0x8086, 0x7000)
	ide := pci.NewSimpleConfigSpace(0x8086, 0x7010)
	pm := pci.NewSimpleConfigSpace(0x8086, 0x7113)

	for _, fn := range []struct {
		bdf pci.BDF
		cs  pci.ConfigSpace
	}{
		{isaBridgeBDF, isa},
		{ideBDF, ide},
		{pmBDF, pm},
	} {
		if err := m.PCI.RegisterDevice(fn.bdf, fn.cs); err != nil {
			return err
		}
	}

	// The ELCR lives in the interrupt controller, which sits outside this
	// service layer; writes to ports nothing claims are dropped.
	outb := func(port uint16, value byte) {
		_ = m.Chipset.HandlePIO(port, []byte{value}, true)
	}
	if err := pci.ISABridgeInit(isa, outb); err != nil {
		return err
	}
	if err := pci.IDEInit(ide); err != nil {
		return err
	}
	if err := pci.PMInit(pm); err != nil {
		return err
	}

	var fadt acpi.FADT
	pci.FADTInit(&fadt)

	var oem acpi.OEMInfo
	copy(oem.OEMID[:], "LGCYBS")
	copy(oem.OEMTableID[:], "LGCYFADT")
	table := fadt.Encode(oem)
	if _, err := m.RAM.WriteAt(table, fadtInstallAddr); err != nil {
		return fmt.Errorf("legacybios: install FADT: %w", err)
	}
	return nil
}

// HandleInt15 dispatches one system service call.
func (m *Machine) HandleInt15(regs *Regs) {
	m.Services.HandleInt15(regs)
}

// Close releases the machine's resources.
func (m *Machine) Close() error {
	if err := m.Chipset.Stop(); err != nil {
		return err
	}
	return m.RAM.Close()
}
