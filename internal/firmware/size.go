package firmware

const (
	oneMiB       = 1 << 20
	sixteenMiB   = 16 << 20
	sixtyFourMiB = 64 << 20
	block64KiB   = 64 << 10
)

// LegacyExtendedSizeKiB reports the extended memory above 1 MiB in KiB,
// capped at 63*1024. The cap keeps callers happy that cannot represent
// more in a 16-bit field; real machines mostly report 63M here even
// though interrupt lists say 15M.
func (s *Services) LegacyExtendedSizeKiB() uint16 {
	if s.ramSize > sixtyFourMiB {
		return 63 * 1024
	}
	if s.ramSize <= oneMiB {
		return 0
	}
	return uint16((s.ramSize - oneMiB) / 1024)
}

// ExtendedSizeReport carries the fn 0xE801 figures. The configured pair
// mirrors the extended pair, per the legacy convention.
type ExtendedSizeReport struct {
	Below16MKiB    uint16 // KiB between 1 MiB and 16 MiB, capped at 15*1024
	Above16MBlocks uint16 // 64 KiB blocks above 16 MiB

	ConfiguredBelow16MKiB    uint16
	ConfiguredAbove16MBlocks uint16
}

// ExtendedSize reports memory above 1 MiB split at the 16 MiB boundary.
func (s *Services) ExtendedSize() ExtendedSizeReport {
	var rep ExtendedSizeReport
	switch {
	case s.ramSize > sixteenMiB:
		rep.Below16MKiB = 15 * 1024
		rep.Above16MBlocks = uint16((s.ramSize - sixteenMiB) / block64KiB)
	case s.ramSize > oneMiB:
		rep.Below16MKiB = uint16((s.ramSize - oneMiB) / 1024)
	}
	rep.ConfiguredBelow16MKiB = rep.Below16MKiB
	rep.ConfiguredAbove16MBlocks = rep.Above16MBlocks
	return rep
}
