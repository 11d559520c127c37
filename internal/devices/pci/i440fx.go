package pci

import (
	"fmt"
	"log/slog"

	"github.com/tinyrange/legacybios/internal/acpi"
)

// i440fx/PIIX chipset bring-up: one-time register pokes run once at
// platform initialization. None of these interact with the system
// services beyond being invoked before the guest starts.

const (
	pciInterruptLine = 0x3C

	piixIRQRoutingBase = 0x60
	elcr1Port          = 0x4D0
	elcr2Port          = 0x4D1

	piixIDE0Enable = 0x40
	piixIDE1Enable = 0x42
	ideDecodeBit   = 0x8000

	piix4PMBAReg     = 0x40
	piix4PMEnable    = 0x80
	piix4SMBBAReg    = 0x90
	piix4SMBEnable   = 0xD2
	acpiSCIInterrupt = 9

	// I/O bases for the PIIX4 power management and SMBus regions.
	PMBase  = 0xB000
	SMBBase = 0xB100
)

const (
	piix4ACPIEnable   = 0xF1
	piix4ACPIDisable  = 0xF0
	piix4GPE0Block    = 0xAFE0
	piix4GPE0BlockLen = 4
)

// pciIRQs routes the four PCI interrupt link lines.
var pciIRQs = [4]byte{10, 10, 11, 11}

// Outb writes one byte to an I/O port.
type Outb func(port uint16, value byte)

// ISABridgeInit programs the PIIX PCI-to-ISA bridge: the four interrupt
// link registers plus matching level-trigger bits in the ELCR.
func ISABridgeInit(dev ConfigSpace, outb Outb) error {
	var elcr [2]byte
	for i, irq := range pciIRQs {
		elcr[irq>>3] |= 1 << (irq & 7)
		if err := dev.WriteConfig(uint16(piixIRQRoutingBase+i), 1, uint32(irq)); err != nil {
			return fmt.Errorf("pci: route PIRQ%c: %w", 'A'+i, err)
		}
	}
	outb(elcr1Port, elcr[0])
	outb(elcr2Port, elcr[1])
	slog.Debug("PIIX ISA bridge init", "elcr0", elcr[0], "elcr1", elcr[1])
	return nil
}

// IDEInit enables decode for both PIIX IDE channels.
func IDEInit(dev ConfigSpace) error {
	if err := dev.WriteConfig(piixIDE0Enable, 2, ideDecodeBit); err != nil {
		return fmt.Errorf("pci: enable IDE0: %w", err)
	}
	if err := dev.WriteConfig(piixIDE1Enable, 2, ideDecodeBit); err != nil {
		return fmt.Errorf("pci: enable IDE1: %w", err)
	}
	return nil
}

// PMInit wires the PIIX4 power management function: SCI on line 9 and the
// PM and SMBus I/O regions enabled at their fixed bases.
func PMInit(dev ConfigSpace) error {
	if err := dev.WriteConfig(pciInterruptLine, 1, acpiSCIInterrupt); err != nil {
		return fmt.Errorf("pci: set SCI line: %w", err)
	}
	if err := dev.WriteConfig(piix4PMBAReg, 4, PMBase|1); err != nil {
		return fmt.Errorf("pci: set PM base: %w", err)
	}
	if err := dev.WriteConfig(piix4PMEnable, 1, 0x01); err != nil {
		return fmt.Errorf("pci: enable PM region: %w", err)
	}
	if err := dev.WriteConfig(piix4SMBBAReg, 4, SMBBase|1); err != nil {
		return fmt.Errorf("pci: set SMBus base: %w", err)
	}
	if err := dev.WriteConfig(piix4SMBEnable, 1, 0x09); err != nil {
		return fmt.Errorf("pci: enable SMBus region: %w", err)
	}
	return nil
}

// FADTInit patches the platform description table with the PIIX4 ACPI
// enable/disable commands and general-purpose event block.
func FADTInit(fadt *acpi.FADT) {
	fadt.SCIInterrupt = acpiSCIInterrupt
	fadt.ACPIEnable = piix4ACPIEnable
	fadt.ACPIDisable = piix4ACPIDisable
	fadt.GPE0Block = piix4GPE0Block
	fadt.GPE0BlockLength = piix4GPE0BlockLen
}
