// biosdump assembles the emulated platform and prints what the firmware
// services would report to a guest: the physical memory map and the
// extended memory size figures.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/x/ansi"
	"golang.org/x/term"

	"github.com/tinyrange/legacybios"
)

type styler struct {
	enabled bool
}

func (s styler) bold(text string) string {
	if !s.enabled {
		return text
	}
	return ansi.Style{}.Bold().Styled(text)
}

func (s styler) faint(text string) string {
	if !s.enabled {
		return text
	}
	return ansi.Style{}.Faint().Styled(text)
}

func dumpMemoryMap(st styler, m *legacybios.Machine) error {
	fmt.Println(st.bold("Physical memory map"))

	var total uint64
	cursor := uint32(0)
	for {
		entry, next, err := m.Services.NextMapEntry(cursor, 20)
		if err != nil {
			return fmt.Errorf("enumerate map: %w", err)
		}
		fmt.Printf("  %016x-%016x  %s\n",
			entry.Base, entry.Base+entry.Length,
			legacybios.RegionTypeName(entry.Type))
		if entry.Type == legacybios.E820Usable {
			total += entry.Length
		}
		if next == 0 {
			break
		}
		cursor = next
	}
	fmt.Println(st.faint(fmt.Sprintf("  %d KiB usable", total/1024)))
	return nil
}

func dumpSizeReports(st styler, m *legacybios.Machine) {
	fmt.Println(st.bold("Extended memory"))
	fmt.Printf("  legacy (fn 88):  %d KiB\n", m.Services.LegacyExtendedSizeKiB())

	rep := m.Services.ExtendedSize()
	fmt.Printf("  split (fn e801): %d KiB below 16M, %d blocks above\n",
		rep.Below16MKiB, rep.Above16MBlocks)
}

func run() error {
	configPath := flag.String("config", "", "YAML platform configuration")
	memoryMB := flag.Uint64("memory", 0, "guest RAM size in MiB (overrides config)")
	noColor := flag.Bool("no-color", false, "disable styled output")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `biosdump - print the firmware view of the platform

USAGE:
  biosdump [flags]

FLAGS:
  -config FILE  Load a YAML platform configuration
  -memory N     Guest RAM size in MiB (overrides the config file)
  -no-color     Disable styled output even on a terminal

EXAMPLES:
  biosdump                       Default 64 MiB platform
  biosdump -memory 512           512 MiB platform
  biosdump -config machine.yml   Platform from a config file
`)
	}
	flag.Parse()

	cfg := legacybios.DefaultConfig()
	if *configPath != "" {
		loaded, err := legacybios.LoadConfig(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if *memoryMB != 0 {
		cfg.MemoryMB = *memoryMB
	}

	m, err := legacybios.NewMachine(cfg)
	if err != nil {
		return err
	}
	defer m.Close()

	st := styler{enabled: !*noColor && term.IsTerminal(int(os.Stdout.Fd()))}

	fmt.Printf("%s %d MiB, A20 %v\n\n",
		st.bold("Platform:"), cfg.MemoryMB, m.Services.A20Enabled())
	if err := dumpMemoryMap(st, m); err != nil {
		return err
	}
	fmt.Println()
	dumpSizeReports(st, m)
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "biosdump: %v\n", err)
		os.Exit(1)
	}
}
