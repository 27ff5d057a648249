// Package inspect walks the metadata of an ext2/3/4 image and hands the
// decoded structures to an artifact sink.
package inspect

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/weberc2/extinspect/pkg/artifact"
	"github.com/weberc2/extinspect/pkg/ext4"
	"github.com/weberc2/extinspect/pkg/render"
	"github.com/weberc2/extinspect/pkg/volume"
)

type Inspector struct {
	Volume volume.Volume
	Sink   artifact.Sink
	Config Config
	Logger logrus.FieldLogger
}

type GroupSummary struct {
	Group      int
	Descriptor ext4.GroupDesc

	// Inodes are the 1-based numbers, within the group, of the populated
	// slots.
	Inodes []int

	Scanned int
	Skipped int

	// Truncated is set when the scan limit stopped the scan before the end
	// of the inode table.
	Truncated bool
}

type Summary struct {
	Superblock ext4.Superblock
	Geometry   Geometry
	Groups     []GroupSummary
}

func (s *Summary) Inodes() int {
	n := 0
	for i := range s.Groups {
		n += len(s.Groups[i].Inodes)
	}
	return n
}

type output struct {
	path    string
	content []byte
}

type groupResult struct {
	summary GroupSummary
	outputs []output
}

func (inspector *Inspector) logger() logrus.FieldLogger {
	if inspector.Logger == nil {
		return logrus.StandardLogger()
	}
	return inspector.Logger
}

func (inspector *Inspector) write(ctx context.Context, outputs ...output) error {
	for _, o := range outputs {
		if err := inspector.Sink.Write(ctx, o.path, o.content); err != nil {
			return err
		}
		inspector.logger().WithField("path", o.path).Debugf("artifact written")
	}
	return nil
}

// Run performs one full inspection pass. The sink is prepared once the
// geometry is known; every failure is fatal and aborts the pass.
func (inspector *Inspector) Run(ctx context.Context) (Summary, error) {
	log := inspector.logger()
	img := Image{Volume: inspector.Volume, Config: inspector.Config}

	log.Infof("resolving boot sector")
	boot, err := img.Boot()
	if err != nil {
		return Summary{}, fmt.Errorf("boot sector: %w", err)
	}

	log.Infof("resolving superblock")
	sb, sbRaw, err := img.Superblock()
	if err != nil {
		return Summary{}, err
	}
	geometry, err := inspector.Config.Geometry(&sb)
	if err != nil {
		return Summary{}, err
	}
	groups, err := inspector.Config.groups(&geometry)
	if err != nil {
		return Summary{}, err
	}
	log.WithField("uuid", sb.UUID().String()).
		WithField("volumeName", sb.VolumeName()).
		WithField("blockSize", geometry.BlockSize).
		WithField("inodesPerGroup", geometry.InodesPerGroup).
		WithField("groups", groups).
		Infof("resolved superblock")

	if err := inspector.Sink.Prepare(ctx, groups); err != nil {
		return Summary{}, fmt.Errorf("preparing output: %w", err)
	}
	if err := inspector.write(
		ctx,
		output{artifact.PathFor(artifact.KindBootHex, 0, 0), []byte(render.HexDump(boot))},
		output{artifact.PathFor(artifact.KindSuperblockHex, 0, 0), []byte(render.HexDump(sbRaw))},
		output{
			artifact.PathFor(artifact.KindSuperblockInfo, 0, 0),
			[]byte(render.Table(sb.Fields, render.SuperblockWidths)),
		},
	); err != nil {
		return Summary{}, err
	}

	log.Infof("resolving block group descriptor table")
	table, err := img.DescriptorTable(&geometry)
	if err != nil {
		return Summary{}, err
	}
	if err := inspector.write(ctx, output{
		artifact.PathFor(artifact.KindBGDTHex, 0, 0),
		[]byte(render.HexDump(table)),
	}); err != nil {
		return Summary{}, err
	}

	summary := Summary{Superblock: sb, Geometry: geometry}
	collect := func(result groupResult) error {
		if err := inspector.write(ctx, result.outputs...); err != nil {
			return err
		}
		summary.Groups = append(summary.Groups, result.summary)
		log.WithField("group", result.summary.Group).
			WithField("inodes", len(result.summary.Inodes)).
			WithField("skipped", result.summary.Skipped).
			Infof("block group written")
		return nil
	}

	if inspector.Config.Parallelism <= 1 {
		for i := 0; i < groups; i++ {
			if err := ctx.Err(); err != nil {
				return Summary{}, err
			}
			result, err := inspector.decodeGroup(&img, &geometry, table, i)
			if err != nil {
				return Summary{}, err
			}
			if err := collect(result); err != nil {
				return Summary{}, err
			}
		}
		return summary, nil
	}

	results := make([]groupResult, groups)
	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(inspector.Config.Parallelism)
	for i := 0; i < groups; i++ {
		i := i
		eg.Go(func() error {
			if err := ectx.Err(); err != nil {
				return err
			}
			result, err := inspector.decodeGroup(&img, &geometry, table, i)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return Summary{}, err
	}
	for _, result := range results {
		if err := collect(result); err != nil {
			return Summary{}, err
		}
	}
	return summary, nil
}

// decodeGroup reads and decodes one block group and renders its artifacts.
func (inspector *Inspector) decodeGroup(
	img *Image,
	geometry *Geometry,
	table []byte,
	index int,
) (groupResult, error) {
	log := inspector.logger().WithField("group", index)
	log.Infof("resolving block group")

	group, err := img.Group(geometry, table, index)
	if err != nil {
		return groupResult{}, fmt.Errorf("block group `%d`: %w", index, err)
	}
	log.WithField("blockBitmap", group.Descriptor.BlockBitmapBlock()).
		WithField("inodeBitmap", group.Descriptor.InodeBitmapBlock()).
		WithField("inodeTable", group.Descriptor.InodeTableBlock()).
		Debugf("resolved descriptor")

	result := groupResult{
		summary: GroupSummary{Group: index, Descriptor: group.Descriptor},
		outputs: []output{
			{
				artifact.PathFor(artifact.KindDescriptorHex, index, 0),
				[]byte(render.HexDump(group.DescriptorRaw)),
			},
			{
				artifact.PathFor(artifact.KindDescriptorInfo, index, 0),
				[]byte(render.Table(group.Descriptor.Fields, render.DefaultWidths)),
			},
			{
				artifact.PathFor(artifact.KindBlockBitmapHex, index, 0),
				[]byte(render.HexDump(group.BlockBitmap)),
			},
			{
				artifact.PathFor(artifact.KindInodeBitmapHex, index, 0),
				[]byte(render.HexDump(group.InodeBitmap)),
			},
			{
				artifact.PathFor(artifact.KindInodeTableHex, index, 0),
				[]byte(render.HexDump(group.InodeTable)),
			},
		},
	}

	slots := inspector.Config.ScanSlots(geometry)
	if slots < group.Slots() {
		result.summary.Truncated = true
		log.WithField("limit", slots).
			WithField("slots", group.Slots()).
			Warnf("inode scan limit reached; remaining slots not inspected")
	}
	for slot := 0; slot < slots; slot++ {
		inode, raw, ok, err := group.Inode(slot)
		if err != nil {
			return groupResult{}, fmt.Errorf("block group `%d`: %w", index, err)
		}
		result.summary.Scanned++
		n := slot + 1
		if !ok {
			result.summary.Skipped++
			log.WithField("inode", n).Debugf("inode is empty, skipping")
			continue
		}
		log.WithField("inode", n).
			WithField("type", inode.Mode.FileType.String()).
			WithField("mode", inode.Mode.String()).
			WithField("size", inode.Size()).
			Debugf("resolved inode")
		result.summary.Inodes = append(result.summary.Inodes, n)
		result.outputs = append(
			result.outputs,
			output{
				artifact.PathFor(artifact.KindInodeHex, index, n),
				[]byte(render.HexDump(raw)),
			},
			output{
				artifact.PathFor(artifact.KindInodeInfo, index, n),
				[]byte(render.Table(inode.Fields, render.InodeWidths)),
			},
		)
	}
	return result, nil
}
