package pci

import (
	"encoding/binary"
	"testing"
)

func TestBDFPacking(t *testing.T) {
	bdf := NewBDF(0, 1, 3)
	if bdf.Bus() != 0 || bdf.Device() != 1 || bdf.Function() != 3 {
		t.Fatalf("BDF fields = %d/%d/%d", bdf.Bus(), bdf.Device(), bdf.Function())
	}
	if got := bdf.String(); got != "00:01.3" {
		t.Fatalf("String = %q", got)
	}
}

func TestHostBridgeMechanism1(t *testing.T) {
	bridge := NewHostBridge()
	cs := NewSimpleConfigSpace(0x8086, 0x1237)
	if err := bridge.RegisterDevice(NewBDF(0, 1, 0), cs); err != nil {
		t.Fatalf("RegisterDevice: %v", err)
	}

	writeAddr := func(addr uint32) {
		var buf [4]byte
		binary.LittleEndian.PutUint32(buf[:], addr)
		if err := bridge.WriteIOPort(configAddrPort, buf[:]); err != nil {
			t.Fatalf("write 0xCF8: %v", err)
		}
	}

	// Vendor ID of 00:01.0.
	writeAddr(configEnableBit | uint32(NewBDF(0, 1, 0))<<8)
	got := make([]byte, 2)
	if err := bridge.ReadIOPort(configDataPort, got); err != nil {
		t.Fatalf("read 0xCFC: %v", err)
	}
	if v := binary.LittleEndian.Uint16(got); v != 0x8086 {
		t.Fatalf("vendor = %#x, want 0x8086", v)
	}

	// Device ID sits at offset 2, reachable through port 0xCFE.
	if err := bridge.ReadIOPort(configDataPort+2, got); err != nil {
		t.Fatalf("read 0xCFE: %v", err)
	}
	if v := binary.LittleEndian.Uint16(got); v != 0x1237 {
		t.Fatalf("device = %#x, want 0x1237", v)
	}

	// Absent functions read all-ones and drop writes.
	writeAddr(configEnableBit | uint32(NewBDF(0, 5, 0))<<8)
	four := make([]byte, 4)
	if err := bridge.ReadIOPort(configDataPort, four); err != nil {
		t.Fatalf("read absent: %v", err)
	}
	if v := binary.LittleEndian.Uint32(four); v != 0xFFFFFFFF {
		t.Fatalf("absent function read %#x, want all-ones", v)
	}
	if err := bridge.WriteIOPort(configDataPort, four); err != nil {
		t.Fatalf("write absent: %v", err)
	}

	// With the enable bit clear the data port decodes nothing.
	writeAddr(uint32(NewBDF(0, 1, 0)) << 8)
	if err := bridge.ReadIOPort(configDataPort, four); err != nil {
		t.Fatalf("read disabled: %v", err)
	}
	if v := binary.LittleEndian.Uint32(four); v != 0xFFFFFFFF {
		t.Fatalf("disabled access read %#x, want all-ones", v)
	}
}

func TestSimpleConfigSpaceBounds(t *testing.T) {
	cs := NewSimpleConfigSpace(0x8086, 0x7000)
	if _, err := cs.ReadConfig(0xFE, 4); err == nil {
		t.Fatal("expected error reading past end of config space")
	}
	if err := cs.WriteConfig(0, 3, 0); err == nil {
		t.Fatal("expected error for invalid access size")
	}
}
