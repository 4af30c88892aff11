package converter

import (
	"bytes"
	"strings"
	"testing"
)

func TestDumpSF2(t *testing.T) {
	outputs, err := Convert(wavJob("Grand", FormatSF2), Options{})
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := Dump(&buf, FormatSF2, outputs[0].Data); err != nil {
		t.Fatalf("Dump failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"SoundFont", `preset "Grand"`, `sample "Piano_C3"`} {
		if !strings.Contains(out, want) {
			t.Errorf("dump missing %q:\n%s", want, out)
		}
	}
}

func TestDumpNKI(t *testing.T) {
	outputs, err := Convert(wavJob("Grand", FormatNKI), Options{})
	if err != nil {
		t.Fatal(err)
	}
	var nki []byte
	for _, out := range outputs {
		if strings.HasSuffix(out.Path, ".nki") {
			nki = out.Data
		}
	}

	var buf bytes.Buffer
	if err := Dump(&buf, FormatNKI, nki); err != nil {
		t.Fatalf("Dump failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{`program "Grand"`, "file 0: Grand Samples/Piano_C3.wav"} {
		if !strings.Contains(out, want) {
			t.Errorf("dump missing %q:\n%s", want, out)
		}
	}
}

func TestDumpUnsupportedFormat(t *testing.T) {
	if err := Dump(&bytes.Buffer{}, FormatSFZ, nil); err == nil {
		t.Error("expected error for text format")
	}
}
