package render

import (
	"strings"
	"testing"

	"github.com/weberc2/extinspect/pkg/ext4"
)

func TestHexDump(t *testing.T) {
	for _, testCase := range []struct {
		name   string
		input  []byte
		wanted string
	}{
		{name: "empty", input: nil, wanted: ""},
		{name: "odd length", input: []byte{0xab, 0xcd, 0xef}, wanted: "abcd  ef"},
		{name: "four bytes", input: []byte{0, 1, 2, 3}, wanted: "0001  0203"},
		{
			name: "two lines",
			input: []byte{
				0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07,
				0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f,
				0x10, 0x11,
			},
			wanted: "0001  0203  0405  0607  0809  0a0b  0c0d  0e0f  \n1011",
		},
	} {
		t.Run(testCase.name, func(t *testing.T) {
			if found := HexDump(testCase.input); found != testCase.wanted {
				t.Fatalf("wanted `%q`; found `%q`", testCase.wanted, found)
			}
		})
	}
}

func TestHexDump_NoTrailingNewline(t *testing.T) {
	found := HexDump(make([]byte, 32))
	if strings.HasSuffix(found, "\n") || strings.HasSuffix(found, " ") {
		t.Fatalf("wanted trimmed output; found `%q`", found)
	}
	if lines := strings.Count(found, "\n"); lines != 1 {
		t.Fatalf("wanted `1` newline; found `%d`", lines)
	}
}

func TestTable(t *testing.T) {
	fields := ext4.Fields{
		{
			Key:   "blockSize",
			Label: "Block size",
			Raw:   []byte{2, 0, 0, 0},
			Value: ext4.Uint(4096),
		},
		{
			Key:   "magicSignature",
			Label: "Magic signature",
			Raw:   []byte{0x53, 0xef},
			Value: ext4.Text("ef53"),
		},
	}

	wanted := strings.Join([]string{
		"| LABEL      | HEXADECIMAL  | VALUE |",
		"|------------+--------------+-------|",
		"| Block size |   0x02000000 |  4096 |",
		"| Magic signature |       0x53ef |  ef53 |",
	}, "\n")

	found := Table(fields, Widths{Label: 10, Hex: 12, Value: 5})
	if found != wanted {
		t.Fatalf("wanted:\n%s\nfound:\n%s", wanted, found)
	}
}

func TestTable_DefaultWidths(t *testing.T) {
	found := Table(nil, DefaultWidths)
	header := "| LABEL" + strings.Repeat(" ", 25) +
		" | HEXADECIMAL" + strings.Repeat(" ", 4) +
		" | VALUE" + strings.Repeat(" ", 10) + " |"
	lines := strings.Split(found, "\n")
	if len(lines) != 2 {
		t.Fatalf("wanted `2` lines; found `%d`", len(lines))
	}
	if lines[0] != header {
		t.Fatalf("wanted header `%q`; found `%q`", header, lines[0])
	}
	if len(lines[1]) != len(header) {
		t.Fatalf(
			"wanted separator width `%d`; found `%d`",
			len(header),
			len(lines[1]),
		)
	}
}
