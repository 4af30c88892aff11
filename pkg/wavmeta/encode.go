package wavmeta

import (
	"github.com/zurustar/sampleconv/pkg/chunk"
	"github.com/zurustar/sampleconv/pkg/multisample"
)

// Encode builds a PCM WAV file around the given interleaved little-endian
// sample data. A smpl chunk is appended when the info carries a root key or
// loop points, so samplers re-importing the file see the same mapping.
func Encode(info *Info, pcm []byte) []byte {
	body := chunk.NewWriter()
	body.PutBytes([]byte("WAVE"))

	blockAlign := info.Channels * info.BitDepth / 8
	fmtChunk := chunk.NewWriter()
	fmtChunk.PutUint16(1) // PCM
	fmtChunk.PutUint16(uint16(info.Channels))
	fmtChunk.PutUint32(uint32(info.SampleRate))
	fmtChunk.PutUint32(uint32(info.SampleRate * blockAlign))
	fmtChunk.PutUint16(uint16(blockAlign))
	fmtChunk.PutUint16(uint16(info.BitDepth))
	body.PutRIFFChunk("fmt ", fmtChunk.Bytes())

	if info.RootKey >= 0 || len(info.Loops) > 0 {
		body.PutRIFFChunk("smpl", buildSamplerChunk(info))
	}
	body.PutRIFFChunk("data", pcm)

	out := chunk.NewWriter()
	out.PutRIFFChunk("RIFF", body.Bytes())
	return out.Bytes()
}

func buildSamplerChunk(info *Info) []byte {
	w := chunk.NewWriter()
	w.PutUint32(0) // manufacturer
	w.PutUint32(0) // product
	if info.SampleRate > 0 {
		w.PutUint32(uint32(1e9 / info.SampleRate))
	} else {
		w.PutUint32(0)
	}
	root := info.RootKey
	if root < 0 {
		root = 60
	}
	w.PutUint32(uint32(root))
	w.PutUint32(uint32(info.FineTune * (1 << 32)))
	w.PutUint32(0) // SMPTE format
	w.PutUint32(0) // SMPTE offset
	w.PutUint32(uint32(len(info.Loops)))
	w.PutUint32(0) // sampler data size
	for i, loop := range info.Loops {
		w.PutUint32(uint32(i))
		switch loop.Type {
		case multisample.LoopAlternating:
			w.PutUint32(1)
		case multisample.LoopBackward:
			w.PutUint32(2)
		default:
			w.PutUint32(0)
		}
		w.PutUint32(uint32(loop.Start))
		w.PutUint32(uint32(loop.End))
		w.PutUint32(0) // fraction
		w.PutUint32(0) // play count, 0 = infinite
	}
	return w.Bytes()
}
