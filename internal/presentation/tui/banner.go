package tui

import (
	"fmt"

	"github.com/muesli/termenv"
)

// PrintBanner outputs an ASCII art banner for Arbor.
func PrintBanner() {
	p := termenv.ColorProfile()
	// Green-to-teal gradient, tree-themed.
	s1 := termenv.String("    ___         __").Foreground(p.Color("#4ade80"))
	s2 := termenv.String("   /   |  _____/ /_  ____  _____").Foreground(p.Color("#34d399"))
	s3 := termenv.String("  / /| | / ___/ __ \\/ __ \\/ ___/").Foreground(p.Color("#2dd4bf"))
	s4 := termenv.String(" / ___ |/ /  / /_/ / /_/ / /").Foreground(p.Color("#22d3ee"))
	s5 := termenv.String("/_/  |_/_/  /_.___/\\____/_/").Foreground(p.Color("#38bdf8"))

	fmt.Println()
	fmt.Println(s1)
	fmt.Println(s2)
	fmt.Println(s3)
	fmt.Println(s4)
	fmt.Println(s5)
	fmt.Println()
}
