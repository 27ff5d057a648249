// Package render turns decoded structures into the text artifacts written by
// the inspector: hex dumps and fixed-column field tables.
package render

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/weberc2/extinspect/pkg/ext4"
)

// HexDump renders `b` as two hex characters per byte, with a double space
// after every second byte and a newline after every sixteen bytes. Leading
// and trailing whitespace is trimmed.
func HexDump(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b)*3 + len(b)/16)
	var pair [2]byte
	for i, x := range b {
		hex.Encode(pair[:], []byte{x})
		sb.Write(pair[:])
		if i%2 == 1 {
			sb.WriteString("  ")
		}
		if (i+1)%16 == 0 {
			sb.WriteByte('\n')
		}
	}
	return strings.TrimSpace(sb.String())
}

// Widths are the minimum column widths of a field table. Cells wider than
// their column are never truncated.
type Widths struct {
	Label int
	Hex   int
	Value int
}

var (
	DefaultWidths    = Widths{Label: 30, Hex: 15, Value: 15}
	SuperblockWidths = Widths{Label: 40, Hex: 40, Value: 40}
	InodeWidths      = Widths{Label: 50, Hex: 15, Value: 15}
)

// Table renders `fields` as a `LABEL | HEXADECIMAL | VALUE` grid. Labels are
// left-aligned; hex and values are right-aligned.
func Table(fields ext4.Fields, widths Widths) string {
	var sb strings.Builder
	fmt.Fprintf(
		&sb,
		"| %-*s | %-*s | %-*s |\n",
		widths.Label, "LABEL",
		widths.Hex, "HEXADECIMAL",
		widths.Value, "VALUE",
	)
	fmt.Fprintf(
		&sb,
		"|-%s-+-%s-+-%s-|\n",
		strings.Repeat("-", widths.Label),
		strings.Repeat("-", widths.Hex),
		strings.Repeat("-", widths.Value),
	)
	for _, f := range fields {
		fmt.Fprintf(
			&sb,
			"| %-*s | %*s | %*s |\n",
			widths.Label, f.Label,
			widths.Hex, "0x"+f.Hex(),
			widths.Value, f.Value.String(),
		)
	}
	return strings.TrimSpace(sb.String())
}
