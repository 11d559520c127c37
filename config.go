package legacybios

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tinyrange/legacybios/internal/firmware"
)

// Config describes the emulated platform.
type Config struct {
	// MemoryMB is the guest RAM size in mebibytes.
	MemoryMB uint64 `yaml:"memory_mb"`

	// MemoryMap overrides the reported physical memory map. When empty a
	// conventional PC layout is derived from MemoryMB.
	MemoryMap []MapRegion `yaml:"memory_map,omitempty"`
}

// MapRegion is one memory map override entry.
type MapRegion struct {
	Base   uint64 `yaml:"base"`
	Length uint64 `yaml:"length"`
	Type   string `yaml:"type"`
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{MemoryMB: 64}
}

// LoadConfig reads a YAML platform configuration from disk.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("legacybios: read config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("legacybios: parse config %q: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("legacybios: config %q: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.MemoryMB == 0 {
		return fmt.Errorf("memory_mb must be positive")
	}
	for i, region := range c.MemoryMap {
		if region.Length == 0 {
			return fmt.Errorf("memory_map[%d]: length must be positive", i)
		}
		if _, err := regionType(region.Type); err != nil {
			return fmt.Errorf("memory_map[%d]: %w", i, err)
		}
	}
	return nil
}

func (c Config) memoryBytes() uint64 {
	return c.MemoryMB << 20
}

func (c Config) buildMemoryMap() (*firmware.MemoryMap, error) {
	if len(c.MemoryMap) == 0 {
		return firmware.DefaultMemoryMap(c.memoryBytes())
	}
	entries := make([]firmware.Entry, 0, len(c.MemoryMap))
	for i, region := range c.MemoryMap {
		typ, err := regionType(region.Type)
		if err != nil {
			return nil, fmt.Errorf("legacybios: memory_map[%d]: %w", i, err)
		}
		entries = append(entries, firmware.Entry{
			Base:   region.Base,
			Length: region.Length,
			Type:   typ,
		})
	}
	return firmware.NewMemoryMap(entries)
}

func regionType(name string) (uint32, error) {
	switch name {
	case "usable", "ram":
		return firmware.E820Usable, nil
	case "reserved":
		return firmware.E820Reserved, nil
	case "acpi":
		return firmware.E820ACPIReclaim, nil
	case "nvs":
		return firmware.E820ACPINVS, nil
	case "unusable":
		return firmware.E820Unusable, nil
	default:
		return 0, fmt.Errorf("unknown region type %q", name)
	}
}

// RegionTypeName returns the configuration name for a map entry type.
func RegionTypeName(typ uint32) string {
	switch typ {
	case firmware.E820Usable:
		return "usable"
	case firmware.E820Reserved:
		return "reserved"
	case firmware.E820ACPIReclaim:
		return "acpi"
	case firmware.E820ACPINVS:
		return "nvs"
	case firmware.E820Unusable:
		return "unusable"
	default:
		return fmt.Sprintf("type-%d", typ)
	}
}
