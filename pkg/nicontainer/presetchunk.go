package nicontainer

import (
	"github.com/zurustar/sampleconv/pkg/chunk"
)

// PresetChunkID identifies a chunk of the second-level preset stream found
// inside PresetChunkItem payloads (Kontakt 5 and later).
type PresetChunkID uint16

const (
	PresetChunkBank           PresetChunkID = 0x03
	PresetChunkProgram        PresetChunkID = 0x28
	PresetChunkSlotList       PresetChunkID = 0x32
	PresetChunkFilenameList   PresetChunkID = 0x3D
	PresetChunkFilenameListEx PresetChunkID = 0x4B
)

// containerPresetChunks lists the IDs whose payload is itself a chunk
// stream. A bank nests slot lists which nest programs.
var containerPresetChunks = map[PresetChunkID]bool{
	PresetChunkBank:     true,
	PresetChunkSlotList: true,
}

// PresetChunk is one record of the preset stream: a 16-bit ID, a 32-bit
// size and the payload. Container chunks additionally expose their parsed
// children; Data always keeps the raw payload for round-trip.
type PresetChunk struct {
	ID       PresetChunkID
	Data     []byte
	Children []*PresetChunk
}

// ParsePresetChunks tokenizes a preset chunk stream, recursing into
// container chunks.
func ParsePresetChunks(data []byte) ([]*PresetChunk, error) {
	r := chunk.NewReader(data)
	var chunks []*PresetChunk
	for r.Available() > 0 {
		id, err := r.Uint16()
		if err != nil {
			return nil, err
		}
		size, err := r.Uint32()
		if err != nil {
			return nil, err
		}
		payload, err := r.Bytes(int(size))
		if err != nil {
			return nil, err
		}
		pc := &PresetChunk{ID: PresetChunkID(id), Data: append([]byte(nil), payload...)}
		if containerPresetChunks[pc.ID] {
			if pc.Children, err = ParsePresetChunks(pc.Data); err != nil {
				return nil, err
			}
		}
		chunks = append(chunks, pc)
	}
	return chunks, nil
}

// WritePresetChunks serializes a chunk stream. Container chunks are emitted
// from their children so edits propagate; leaves replay their raw payload.
func WritePresetChunks(w *chunk.Writer, chunks []*PresetChunk) {
	for _, pc := range chunks {
		payload := pc.Data
		if containerPresetChunks[pc.ID] && pc.Children != nil {
			sub := chunk.NewWriter()
			WritePresetChunks(sub, pc.Children)
			payload = sub.Bytes()
		}
		w.PutUint16(uint16(pc.ID))
		w.PutUint32(uint32(len(payload)))
		w.PutBytes(payload)
	}
}

// FindAllChunks returns every chunk with the given ID in depth-first order,
// descending through all container chunks. A bank's programs live below its
// slot lists, so a single-level scan is never enough.
func FindAllChunks(chunks []*PresetChunk, id PresetChunkID) []*PresetChunk {
	var out []*PresetChunk
	for _, pc := range chunks {
		if pc.ID == id {
			out = append(out, pc)
		}
		out = append(out, FindAllChunks(pc.Children, id)...)
	}
	return out
}

// PresetData is the dictionary-wrapped second-level preset stream.
type PresetData struct {
	dict   *dictionary
	Chunks []*PresetChunk
}

func (d *PresetData) Type() ChunkType { return ChunkPresetChunkItem }

func (d *PresetData) Read(r *chunk.Reader) error {
	dict, err := readDictionary(r)
	if err != nil {
		return err
	}
	d.dict = dict
	d.Chunks, err = ParsePresetChunks(dict.Payload)
	return err
}

func (d *PresetData) Write(w *chunk.Writer) error {
	if d.dict == nil {
		d.dict = &dictionary{Version: 1}
	}
	payload := chunk.NewWriter()
	WritePresetChunks(payload, d.Chunks)
	d.dict.write(w, payload.Bytes())
	return nil
}

// ProgramLoopMode values of a program zone loop.
type ProgramLoopMode uint8

const (
	ProgramLoopNone ProgramLoopMode = iota
	ProgramLoopForward
	ProgramLoopAlternating
	ProgramLoopBackward
)

// ProgramZone is one fixed-width zone record of a PROGRAM chunk. FileIndex
// references the container's file list.
type ProgramZone struct {
	FileIndex uint32

	KeyLow  uint8
	KeyRoot uint8
	KeyHigh uint8
	VelLow  uint8
	VelHigh uint8

	Reversed bool

	Start uint32
	End   uint32

	LoopMode      ProgramLoopMode
	LoopStart     uint32
	LoopEnd       uint32
	LoopCrossfade uint32

	// TuneCents in cents, Pan in per-mille of full left/right, Gain in
	// centi-decibels.
	TuneCents int32
	Pan       int16
	Gain      int16
}

// Program is the decoded payload of a PROGRAM chunk.
type Program struct {
	Name  string
	Zones []ProgramZone
}

// ParseProgram decodes a PROGRAM chunk payload.
func ParseProgram(pc *PresetChunk) (*Program, error) {
	r := chunk.NewReader(pc.Data)
	p := &Program{}
	var err error
	if p.Name, err = r.UTF16String(); err != nil {
		return nil, err
	}
	count, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < count; i++ {
		var z ProgramZone
		if z.FileIndex, err = r.Uint32(); err != nil {
			return nil, err
		}
		keys, err := r.Bytes(5)
		if err != nil {
			return nil, err
		}
		z.KeyLow, z.KeyRoot, z.KeyHigh, z.VelLow, z.VelHigh = keys[0], keys[1], keys[2], keys[3], keys[4]
		rev, err := r.Uint8()
		if err != nil {
			return nil, err
		}
		z.Reversed = rev != 0
		if z.Start, err = r.Uint32(); err != nil {
			return nil, err
		}
		if z.End, err = r.Uint32(); err != nil {
			return nil, err
		}
		mode, err := r.Uint8()
		if err != nil {
			return nil, err
		}
		z.LoopMode = ProgramLoopMode(mode)
		if z.LoopStart, err = r.Uint32(); err != nil {
			return nil, err
		}
		if z.LoopEnd, err = r.Uint32(); err != nil {
			return nil, err
		}
		if z.LoopCrossfade, err = r.Uint32(); err != nil {
			return nil, err
		}
		if z.TuneCents, err = r.Int32(); err != nil {
			return nil, err
		}
		if z.Pan, err = r.Int16(); err != nil {
			return nil, err
		}
		if z.Gain, err = r.Int16(); err != nil {
			return nil, err
		}
		p.Zones = append(p.Zones, z)
	}
	return p, nil
}

// BuildProgramChunk encodes a program back into a PROGRAM chunk.
func BuildProgramChunk(p *Program) (*PresetChunk, error) {
	w := chunk.NewWriter()
	if err := w.PutUTF16String(p.Name); err != nil {
		return nil, err
	}
	w.PutUint32(uint32(len(p.Zones)))
	for _, z := range p.Zones {
		w.PutUint32(z.FileIndex)
		w.PutBytes([]byte{z.KeyLow, z.KeyRoot, z.KeyHigh, z.VelLow, z.VelHigh})
		if z.Reversed {
			w.PutUint8(1)
		} else {
			w.PutUint8(0)
		}
		w.PutUint32(z.Start)
		w.PutUint32(z.End)
		w.PutUint8(uint8(z.LoopMode))
		w.PutUint32(z.LoopStart)
		w.PutUint32(z.LoopEnd)
		w.PutUint32(z.LoopCrossfade)
		w.PutUint32(uint32(z.TuneCents))
		w.PutInt16(z.Pan)
		w.PutInt16(z.Gain)
	}
	return &PresetChunk{ID: PresetChunkProgram, Data: w.Bytes()}, nil
}
