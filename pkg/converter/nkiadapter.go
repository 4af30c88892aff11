package converter

import (
	"path"
	"strings"

	"github.com/zurustar/sampleconv/pkg/chunk"
	"github.com/zurustar/sampleconv/pkg/multisample"
	"github.com/zurustar/sampleconv/pkg/nicontainer"
)

// ReadNKI converts every program of a container into a multisample. Banks
// nest programs below slot lists, so the chunk search is depth-first across
// the whole preset stream, and subtree items are descended into as well.
func ReadNKI(data []byte) ([]*multisample.Multisample, error) {
	root, err := nicontainer.ReadItem(chunk.NewReader(data))
	if err != nil {
		return nil, err
	}

	var (
		presets []*nicontainer.PresetData
		info    *nicontainer.SoundInfoData
	)
	walkItems(root, func(it *nicontainer.Item) {
		switch d := it.Data.(type) {
		case *nicontainer.PresetData:
			presets = append(presets, d)
		case *nicontainer.SoundInfoData:
			info = d
		}
	})

	var out []*multisample.Multisample
	for _, preset := range presets {
		fl, err := presetFileList(preset.Chunks)
		if err != nil {
			return nil, err
		}
		programs := nicontainer.FindAllChunks(preset.Chunks, nicontainer.PresetChunkProgram)
		for _, pc := range programs {
			program, err := nicontainer.ParseProgram(pc)
			if err != nil {
				return nil, err
			}
			m, err := programToMultisample(program, fl)
			if err != nil {
				return nil, err
			}
			if info != nil {
				if m.Name == "" {
					m.Name = info.Name
				}
				m.Creator = info.Author
				m.Keywords = append([]string(nil), info.Tags...)
			}
			out = append(out, m)
		}
	}
	if len(out) == 0 {
		return nil, chunk.NewParseError("IDS_NKI5_NO_PROGRAM_FOUND", -1)
	}
	return out, nil
}

// walkItems visits every item depth-first, following subtree payloads into
// their nested trees.
func walkItems(it *nicontainer.Item, visit func(*nicontainer.Item)) {
	visit(it)
	if sub, ok := it.Data.(*nicontainer.SubTreeData); ok && sub.Tree != nil {
		walkItems(sub.Tree, visit)
	}
	for _, child := range it.Children {
		walkItems(child, visit)
	}
}

func presetFileList(chunks []*nicontainer.PresetChunk) (*nicontainer.FileList, error) {
	for _, id := range []nicontainer.PresetChunkID{
		nicontainer.PresetChunkFilenameListEx,
		nicontainer.PresetChunkFilenameList,
	} {
		if found := nicontainer.FindAllChunks(chunks, id); len(found) > 0 {
			return nicontainer.ParseFileList(found[0])
		}
	}
	return &nicontainer.FileList{}, nil
}

func programToMultisample(p *nicontainer.Program, fl *nicontainer.FileList) (*multisample.Multisample, error) {
	m := &multisample.Multisample{Name: p.Name}
	group := &multisample.Group{Name: "Group 1"}
	for _, pz := range p.Zones {
		if int(pz.FileIndex) >= len(fl.SampleFiles) {
			return nil, chunk.NewParseError("IDS_NKI5_FILE_INDEX_OUT_OF_RANGE", -1, pz.FileIndex, len(fl.SampleFiles))
		}
		file := fl.SampleFiles[pz.FileIndex].Path
		z := multisample.NewSampleZone(strings.TrimSuffix(path.Base(file), path.Ext(file)), file)

		z.KeyLow = int(pz.KeyLow)
		z.KeyRoot = int(pz.KeyRoot)
		z.KeyHigh = int(pz.KeyHigh)
		z.VelocityLow = int(pz.VelLow)
		z.VelocityHigh = int(pz.VelHigh)
		z.Reversed = pz.Reversed
		z.Start = int(pz.Start)
		if pz.End > 0 {
			z.Stop = int(pz.End)
		}
		if pz.LoopMode != nicontainer.ProgramLoopNone {
			loop := multisample.Loop{
				Start:     int(pz.LoopStart),
				End:       int(pz.LoopEnd),
				Crossfade: int(pz.LoopCrossfade),
			}
			switch pz.LoopMode {
			case nicontainer.ProgramLoopAlternating:
				loop.Type = multisample.LoopAlternating
			case nicontainer.ProgramLoopBackward:
				loop.Type = multisample.LoopBackward
			default:
				loop.Type = multisample.LoopForward
			}
			z.Loops = append(z.Loops, loop)
		}
		z.Tune = float64(pz.TuneCents) / 100
		z.Panning = float64(pz.Pan) / 1000
		z.Gain = float64(pz.Gain) / 100
		group.Zones = append(group.Zones, z)
	}
	m.Groups = append(m.Groups, group)
	return m, nil
}

// WriteNKI assembles a container with a sound info item, a preset stream
// holding the file list and one program, and the sample files the list
// references.
func WriteNKI(m *multisample.Multisample) ([]OutputFile, error) {
	name := safeName(m.Name)
	sampleDir := name + " Samples"

	fl := &nicontainer.FileList{}
	fileIndex := map[string]uint32{}
	program := &nicontainer.Program{Name: m.Name}
	var outputs []OutputFile

	for _, g := range m.Groups {
		for _, z := range g.Zones {
			file := z.SampleFile
			if len(z.Data) > 0 {
				file = path.Join(sampleDir, path.Base(z.SampleFile))
				outputs = append(outputs, OutputFile{Path: file, Data: z.Data})
			}
			idx, ok := fileIndex[file]
			if !ok {
				idx = uint32(len(fl.SampleFiles))
				fileIndex[file] = idx
				fl.SampleFiles = append(fl.SampleFiles, nicontainer.FileEntry{Path: file})
			}
			program.Zones = append(program.Zones, sampleToProgramZone(z, idx))
		}
	}

	flChunk, err := nicontainer.BuildFileListEx(fl)
	if err != nil {
		return nil, err
	}
	programChunk, err := nicontainer.BuildProgramChunk(program)
	if err != nil {
		return nil, err
	}

	root := &nicontainer.Item{
		DomainID: "NISD",
		TypeID:   nicontainer.ChunkItem,
		Version:  1,
		Children: []*nicontainer.Item{
			{
				DomainID: "NISD",
				TypeID:   nicontainer.ChunkAuthoringApplication,
				Version:  1,
				Data: &nicontainer.AuthoringApplicationData{
					Version:     1,
					Application: nicontainer.AppKontakt,
					AppVersion:  "5.6.8",
				},
			},
			{
				DomainID: "NISD",
				TypeID:   nicontainer.ChunkSoundInfoItem,
				Version:  1,
				Data: &nicontainer.SoundInfoData{
					Version: 1,
					Name:    m.Name,
					Author:  m.Creator,
					Tags:    append([]string(nil), m.Keywords...),
				},
			},
			{
				DomainID: "NISD",
				TypeID:   nicontainer.ChunkPresetChunkItem,
				Version:  1,
				Data: &nicontainer.PresetData{
					Chunks: []*nicontainer.PresetChunk{flChunk, programChunk},
				},
			},
			{
				DomainID: "NISD",
				TypeID:   nicontainer.ChunkTerminator,
				Version:  1,
				Data:     &nicontainer.TerminatorData{},
			},
		},
	}

	w := chunk.NewWriter()
	if err := nicontainer.WriteItem(w, root); err != nil {
		return nil, err
	}
	outputs = append(outputs, OutputFile{Path: name + ".nki", Data: w.Bytes()})
	return outputs, nil
}

func sampleToProgramZone(z *multisample.SampleZone, fileIndex uint32) nicontainer.ProgramZone {
	pz := nicontainer.ProgramZone{
		FileIndex: fileIndex,
		KeyLow:    uint8(clampInt(z.KeyLow, 0, 127)),
		KeyRoot:   uint8(clampInt(z.KeyRoot, 0, 127)),
		KeyHigh:   uint8(clampInt(z.KeyHigh, 0, 127)),
		VelLow:    uint8(clampInt(z.VelocityLow, 0, 127)),
		VelHigh:   uint8(clampInt(z.VelocityHigh, 0, 127)),
		Reversed:  z.Reversed,
		Start:     uint32(maxInt(z.Start, 0)),
		TuneCents: int32(z.Tune * 100),
		Pan:       int16(clampFloat(z.Panning, -1, 1) * 1000),
		Gain:      int16(z.Gain * 100),
	}
	if z.Stop > 0 {
		pz.End = uint32(z.Stop)
	}
	if len(z.Loops) > 0 {
		loop := z.Loops[0]
		switch loop.Type {
		case multisample.LoopAlternating:
			pz.LoopMode = nicontainer.ProgramLoopAlternating
		case multisample.LoopBackward:
			pz.LoopMode = nicontainer.ProgramLoopBackward
		default:
			pz.LoopMode = nicontainer.ProgramLoopForward
		}
		pz.LoopStart = uint32(maxInt(loop.Start, 0))
		pz.LoopEnd = uint32(maxInt(loop.End, 0))
		pz.LoopCrossfade = uint32(maxInt(loop.Crossfade, 0))
	}
	return pz
}
