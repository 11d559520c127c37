package acpi

import (
	"bytes"
	"encoding/binary"
)

const (
	fadtRevision = 1
	fadtBodyLen  = 80 // ACPI 1.0 FACP is 116 bytes including the 36-byte header
)

// FADT is the ACPI 1.0 fixed description table. Chipset bring-up patches
// the power-management fields before the table is encoded into guest
// memory.
type FADT struct {
	FirmwareCtrl uint32
	DSDT         uint32

	PreferredPMProfile byte
	SCIInterrupt       uint16
	SMICommand         uint32
	ACPIEnable         byte
	ACPIDisable        byte

	PM1aEventBlock   uint32
	PM1aControlBlock uint32
	PMTimerBlock     uint32
	GPE0Block        uint32
	GPE0BlockLength  byte

	PM1EventLength   byte
	PM1ControlLength byte
	PMTimerLength    byte
}

// OEMInfo identifies the firmware vendor in table headers.
type OEMInfo struct {
	OEMID      [6]byte
	OEMTableID [8]byte
}

// Encode returns the full table, header included, with a valid checksum.
func (f *FADT) Encode(oem OEMInfo) []byte {
	body := &bytes.Buffer{}

	binary.Write(body, binary.LittleEndian, f.FirmwareCtrl)
	binary.Write(body, binary.LittleEndian, f.DSDT)
	body.WriteByte(0) // INT_MODEL (dual PIC)
	body.WriteByte(f.PreferredPMProfile)
	binary.Write(body, binary.LittleEndian, f.SCIInterrupt)
	binary.Write(body, binary.LittleEndian, f.SMICommand)
	body.WriteByte(f.ACPIEnable)
	body.WriteByte(f.ACPIDisable)
	body.WriteByte(0) // S4BIOS_REQ
	body.WriteByte(0) // Reserved

	binary.Write(body, binary.LittleEndian, f.PM1aEventBlock)
	binary.Write(body, binary.LittleEndian, uint32(0)) // PM1b_EVT_BLK
	binary.Write(body, binary.LittleEndian, f.PM1aControlBlock)
	binary.Write(body, binary.LittleEndian, uint32(0)) // PM1b_CNT_BLK
	binary.Write(body, binary.LittleEndian, uint32(0)) // PM2_CNT_BLK
	binary.Write(body, binary.LittleEndian, f.PMTimerBlock)
	binary.Write(body, binary.LittleEndian, f.GPE0Block)
	binary.Write(body, binary.LittleEndian, uint32(0)) // GPE1_BLK

	body.WriteByte(f.PM1EventLength)
	body.WriteByte(f.PM1ControlLength)
	body.WriteByte(0) // PM2_CNT_LEN
	body.WriteByte(f.PMTimerLength)
	body.WriteByte(f.GPE0BlockLength)
	body.WriteByte(0) // GPE1_BLK_LEN
	body.WriteByte(0) // GPE1_BASE
	body.WriteByte(0) // Reserved

	binary.Write(body, binary.LittleEndian, uint16(0)) // P_LVL2_LAT
	binary.Write(body, binary.LittleEndian, uint16(0)) // P_LVL3_LAT
	binary.Write(body, binary.LittleEndian, uint16(0)) // FLUSH_SIZE
	binary.Write(body, binary.LittleEndian, uint16(0)) // FLUSH_STRIDE

	// DUTY_OFFSET through CENTURY, three reserved bytes, then flags.
	body.Write(make([]byte, 8))
	binary.Write(body, binary.LittleEndian, uint32(0)) // FLAGS

	for body.Len() < fadtBodyLen {
		body.WriteByte(0)
	}

	table := make([]byte, 36+body.Len())
	copy(table[:4], "FACP")
	binary.LittleEndian.PutUint32(table[4:], uint32(len(table)))
	table[8] = fadtRevision
	copy(table[10:16], oem.OEMID[:])
	copy(table[16:24], oem.OEMTableID[:])
	binary.LittleEndian.PutUint32(table[24:], 1) // OEM revision
	copy(table[28:32], "LGCY")
	binary.LittleEndian.PutUint32(table[32:], 1) // creator revision
	copy(table[36:], body.Bytes())

	table[9] = checksum(table)
	return table
}

func checksum(b []byte) byte {
	var sum uint8
	for _, v := range b {
		sum += v
	}
	return byte(0 - sum)
}
