package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/matteso1/norcow/flash"
	"github.com/matteso1/norcow/norcow"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "items":
		itemsCmd()
	case "sectors":
		sectorsCmd()
	case "demo":
		demoCmd()
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`norcow-dump - NOR-flash key-value image inspector

Usage:
  norcow-dump <command> [options]

Commands:
  items       List every record of the active item log
  sectors     Show per-sector state (marker, used/free bytes)
  demo        Run a small write/rewrite scenario and dump the result
  help        Show this help

Examples:
  norcow-dump items -image flash.bin
  norcow-dump sectors -image flash.bin -sector-size 65536 -sectors 2`)
}

func itemsCmd() {
	fs := flag.NewFlagSet("items", flag.ExitOnError)
	image := fs.String("image", "", "Flash image file (required)")
	sectorSize := fs.Int("sector-size", flash.DefaultConfig().SectorSize, "Sector size in bytes")
	sectors := fs.Int("sectors", flash.DefaultConfig().SectorCount, "Sector count")

	fs.Parse(os.Args[2:])

	s := openImage(*image, *sectorSize, *sectors)

	items, err := s.Items()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read log: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Active sector %d, log end at offset %d\n\n", s.ActiveSector(), s.ActiveOffset())
	fmt.Printf("%-8s %-8s %-6s %-9s %s\n", "OFFSET", "KEY", "LEN", "STATE", "VALUE")
	for _, it := range items {
		state := "live"
		if it.Tombstone {
			state = "tombstone"
		}
		fmt.Printf("%-8d 0x%04X   %-6d %-9s %s\n", it.Offset, it.Key, len(it.Value), state, preview(it.Value))
	}
	if len(items) == 0 {
		fmt.Println("(empty log)")
	}
}

func sectorsCmd() {
	fs := flag.NewFlagSet("sectors", flag.ExitOnError)
	image := fs.String("image", "", "Flash image file (required)")
	sectorSize := fs.Int("sector-size", flash.DefaultConfig().SectorSize, "Sector size in bytes")
	sectors := fs.Int("sectors", flash.DefaultConfig().SectorCount, "Sector count")

	fs.Parse(os.Args[2:])

	s := openImage(*image, *sectorSize, *sectors)
	area := s.Area()

	for i := 0; i < area.SectorCount(); i++ {
		data, err := area.Sector(i)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read sector %d: %v\n", i, err)
			os.Exit(1)
		}

		marker := "blank"
		if string(data[:len(norcow.Magic)]) == norcow.Magic {
			marker = "initialized"
		}
		role := "spare"
		detail := ""
		if i == s.ActiveSector() {
			role = "active"
			used := s.ActiveOffset()
			detail = fmt.Sprintf(", %d bytes used, %d free", used, area.SectorSize()-used)
		}
		fmt.Printf("sector %d: %s (%s)%s\n", i, marker, role, detail)
	}
}

func demoCmd() {
	s, err := norcow.New(norcow.DefaultConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create store: %v\n", err)
		os.Exit(1)
	}

	steps := []struct {
		key   uint16
		value string
	}{
		{0xBEEF, "Hello"},
		{0xCAFE, "world!  "},
		{0xDEAD, "How\n"},
		{0xDEAD, "A\n"},
		{0xDEAD, "AAAAAAAAAAA"},
		{0x2200, "BBBB"},
	}
	for _, step := range steps {
		if err := s.Set(step.key, []byte(step.value)); err != nil {
			fmt.Fprintf(os.Stderr, "set 0x%04X failed: %v\n", step.key, err)
			os.Exit(1)
		}
		fmt.Printf("set 0x%04X = %s\n", step.key, preview([]byte(step.value)))
	}

	fmt.Println()
	items, err := s.Items()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read log: %v\n", err)
		os.Exit(1)
	}
	for _, it := range items {
		state := "live"
		if it.Tombstone {
			state = "tombstone"
		}
		fmt.Printf("%-8d 0x%04X   %-9s %s\n", it.Offset, it.Key, state, preview(it.Value))
	}

	st := s.Stats()
	fmt.Printf("\nsets=%d appends=%d in-place=%d tombstones=%d compactions=%d erases=%v\n",
		st.Sets, st.Appends, st.InPlaceUpdates, st.Tombstones, st.Compactions, st.SectorErases)
}

func openImage(path string, sectorSize, sectorCount int) *norcow.Store {
	if path == "" {
		fmt.Fprintln(os.Stderr, "Error: -image is required")
		os.Exit(1)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read image: %v\n", err)
		os.Exit(1)
	}

	area, err := flash.New(flash.Config{SectorSize: sectorSize, SectorCount: sectorCount})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Bad geometry: %v\n", err)
		os.Exit(1)
	}
	if err := area.LoadImage(data); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load image: %v\n", err)
		os.Exit(1)
	}

	s, err := norcow.Open(area)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open store: %v\n", err)
		os.Exit(1)
	}
	return s
}

// preview renders a value for display: printable ASCII as-is, everything
// else hex-escaped, truncated past 32 bytes.
func preview(value []byte) string {
	const max = 32
	var b strings.Builder
	for i, c := range value {
		if i == max {
			fmt.Fprintf(&b, "... (%d bytes)", len(value))
			break
		}
		if c < unicode.MaxASCII && unicode.IsPrint(rune(c)) {
			b.WriteByte(c)
		} else {
			fmt.Fprintf(&b, "\\x%02x", c)
		}
	}
	return b.String()
}
