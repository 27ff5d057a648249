package inspect

import (
	"errors"
	"testing"

	"github.com/weberc2/extinspect/pkg/ext4"
)

func TestDefaultConfig_Geometry(t *testing.T) {
	c := DefaultConfig()
	g, err := c.Geometry(&ext4.Superblock{})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	wanted := Geometry{
		BlockSize:      4096,
		InodeSize:      256,
		InodesPerGroup: 7216,
		GroupCount:     4,
		DescriptorSize: 32,
	}
	if g != wanted {
		t.Fatalf("wanted `%+v`; found `%+v`", wanted, g)
	}
	if g.DescriptorTableOffset() != 4096 {
		t.Fatalf(
			"wanted descriptor table at `4096`; found `%d`",
			g.DescriptorTableOffset(),
		)
	}
	if g.InodeTableSize() != 256*7216 {
		t.Fatalf("wanted inode table size `%d`; found `%d`", 256*7216, g.InodeTableSize())
	}

	groups, err := c.groups(&g)
	if err != nil || groups != 4 {
		t.Fatalf("wanted `4` groups; found `%d` (err: %v)", groups, err)
	}
	if slots := c.ScanSlots(&g); slots != 500 {
		t.Fatalf("wanted `500` slots; found `%d`", slots)
	}

	c.InodeScanLimit = 0
	if slots := c.ScanSlots(&g); slots != 7216 {
		t.Fatalf("wanted `7216` slots; found `%d`", slots)
	}
}

func TestGeometry_DescriptorTableOffset(t *testing.T) {
	for _, testCase := range []struct {
		blockSize uint64
		wanted    uint64
	}{
		{blockSize: 1024, wanted: 2048},
		{blockSize: 2048, wanted: 2048},
		{blockSize: 4096, wanted: 4096},
	} {
		g := Geometry{BlockSize: testCase.blockSize}
		if found := g.DescriptorTableOffset(); found != testCase.wanted {
			t.Fatalf(
				"block size `%d`: wanted `%d`; found `%d`",
				testCase.blockSize,
				testCase.wanted,
				found,
			)
		}
	}
}

func TestConfig_InvalidGeometry(t *testing.T) {
	for _, testCase := range []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"zero ratio", func(c *Config) { c.InodeRatio = 0 }, "inodeRatio"},
		{"zero groups", func(c *Config) { c.GroupCount = 0 }, "groupCount"},
		{"odd block size", func(c *Config) { c.BlockSize = 3000 }, "blockSize"},
		{"small inode", func(c *Config) { c.InodeSize = 64 }, "inodeSize"},
		{"small descriptor", func(c *Config) { c.DescriptorSize = 16 }, "descriptorSize"},
	} {
		t.Run(testCase.name, func(t *testing.T) {
			c := DefaultConfig()
			testCase.mutate(&c)
			_, err := c.Geometry(&ext4.Superblock{})
			var invalid *ErrInvalidGeometry
			if !errors.As(err, &invalid) {
				t.Fatalf("wanted `*ErrInvalidGeometry`; found `%v`", err)
			}
			if invalid.Field != testCase.field {
				t.Fatalf(
					"wanted field `%s`; found `%s`",
					testCase.field,
					invalid.Field,
				)
			}
		})
	}
}
