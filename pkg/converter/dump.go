package converter

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/zurustar/sampleconv/pkg/chunk"
	"github.com/zurustar/sampleconv/pkg/nicontainer"
	"github.com/zurustar/sampleconv/pkg/sf2"
)

// Dump writes a structural summary of a source file, used by the -dump flag
// to inspect containers without converting them.
func Dump(w io.Writer, format Format, data []byte) error {
	switch format {
	case FormatSF2:
		f, err := sf2.Parse(bytes.NewReader(data))
		if err != nil {
			return err
		}
		dumpSF2(w, f)
		return nil
	case FormatNKI:
		root, err := nicontainer.ReadItem(chunk.NewReader(data))
		if err != nil {
			return err
		}
		dumpItem(w, root, 0)
		return nil
	default:
		return fmt.Errorf("converter: dump not supported for format %q", format)
	}
}

func dumpSF2(w io.Writer, f *sf2.File) {
	fmt.Fprintf(w, "SoundFont %.2f %q engine=%s\n", f.Version(), f.BankName, f.SoundEngine)
	fmt.Fprintf(w, "presets=%d instruments=%d samples=%d smpl=%d bytes\n",
		len(f.Presets), len(f.Instruments), len(f.Samples), len(f.SampleData))
	for _, p := range f.Presets {
		fmt.Fprintf(w, "preset %q bank=%d program=%d zones=%d\n", p.Name, p.Bank, p.Program, len(p.Zones))
		for i, pz := range p.Zones {
			target := "-"
			if pz.Instrument != nil {
				target = pz.Instrument.Name
			}
			fmt.Fprintf(w, "  zone %d global=%v instrument=%s gens=%d\n", i, pz.IsGlobal(), target, pz.Generators.Len())
		}
	}
	for _, inst := range f.Instruments {
		fmt.Fprintf(w, "instrument %q zones=%d\n", inst.Name, len(inst.Zones))
		for i, iz := range inst.Zones {
			target := "-"
			if iz.Sample != nil {
				target = iz.Sample.Name
			}
			fmt.Fprintf(w, "  zone %d global=%v sample=%s gens=%d\n", i, iz.IsGlobal(), target, iz.Generators.Len())
		}
	}
	for _, s := range f.Samples {
		fmt.Fprintf(w, "sample %q rate=%d frames=%d root=%d type=%d\n",
			s.Name, s.SampleRate, s.End-s.Start, s.OriginalPitch, s.Type)
	}
}

func dumpItem(w io.Writer, it *nicontainer.Item, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(w, "%s%s (%s) version=%d children=%d\n", indent, it.TypeID, it.DomainID, it.Version, len(it.Children))
	switch d := it.Data.(type) {
	case *nicontainer.AuthoringApplicationData:
		fmt.Fprintf(w, "%s  app=%s version=%s\n", indent, d.Application, d.AppVersion)
	case *nicontainer.SoundInfoData:
		fmt.Fprintf(w, "%s  name=%q author=%q tags=%v\n", indent, d.Name, d.Author, d.Tags)
	case *nicontainer.PresetData:
		for _, pc := range d.Chunks {
			dumpPresetChunk(w, pc, depth+1)
		}
	case *nicontainer.SubTreeData:
		fmt.Fprintf(w, "%s  compressed=%v\n", indent, d.Compressed)
		if d.Tree != nil {
			dumpItem(w, d.Tree, depth+1)
		}
	case *nicontainer.RawData:
		fmt.Fprintf(w, "%s  raw %d bytes\n", indent, len(d.Bytes))
	}
	for _, child := range it.Children {
		dumpItem(w, child, depth+1)
	}
}

func dumpPresetChunk(w io.Writer, pc *nicontainer.PresetChunk, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(w, "%schunk 0x%02X %d bytes\n", indent, uint16(pc.ID), len(pc.Data))
	switch pc.ID {
	case nicontainer.PresetChunkFilenameList, nicontainer.PresetChunkFilenameListEx:
		if fl, err := nicontainer.ParseFileList(pc); err == nil {
			for i, entry := range fl.SampleFiles {
				fmt.Fprintf(w, "%s  file %d: %s\n", indent, i, entry.Path)
			}
		}
	case nicontainer.PresetChunkProgram:
		if p, err := nicontainer.ParseProgram(pc); err == nil {
			fmt.Fprintf(w, "%s  program %q zones=%d\n", indent, p.Name, len(p.Zones))
		}
	}
	for _, child := range pc.Children {
		dumpPresetChunk(w, child, depth+1)
	}
}
