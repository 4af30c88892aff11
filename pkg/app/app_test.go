package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/zurustar/sampleconv/pkg/cli"
	"github.com/zurustar/sampleconv/pkg/converter"
	"github.com/zurustar/sampleconv/pkg/wavmeta"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    converter.Format
		wantErr bool
	}{
		{"sf2", "sf2", converter.FormatSF2, false},
		{"大文字も許容", "SF2", converter.FormatSF2, false},
		{"nki", "nki", converter.FormatNKI, false},
		{"sfz", "sfz", converter.FormatSFZ, false},
		{"1010", "1010", converter.FormatTenTen, false},
		{"tentenの別名", "tenten", converter.FormatTenTen, false},
		{"wav", "wav", converter.FormatWAVFolder, false},
		{"空文字はエラー", "", "", true},
		{"未知のフォーマット", "exs24", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFormat(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("parseFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func writeTestWAV(t *testing.T, path string) {
	t.Helper()
	info := &wavmeta.Info{Channels: 1, SampleRate: 44100, BitDepth: 16, Frames: 4, RootKey: -1}
	pcm := []byte{0, 0, 100, 0, 156, 255, 0, 0}
	if err := os.WriteFile(path, wavmeta.Encode(info, pcm), 0o644); err != nil {
		t.Fatalf("failed to write wav: %v", err)
	}
}

func TestGatherJobs_WAVDirectory(t *testing.T) {
	dir := t.TempDir()
	writeTestWAV(t, filepath.Join(dir, "Piano_D3.wav"))
	writeTestWAV(t, filepath.Join(dir, "Piano_C3.wav"))
	// WAV以外のファイルは無視される
	if err := os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	app := &Application{config: &cli.Config{InputPath: dir, LogLevel: "error"}}
	if err := app.initLogger(); err != nil {
		t.Fatal(err)
	}

	jobs, err := app.gatherJobs()
	if err != nil {
		t.Fatalf("gatherJobs failed: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("jobs = %d, want 1", len(jobs))
	}

	job := jobs[0]
	if job.Format != converter.FormatWAVFolder {
		t.Errorf("format = %q, want %q", job.Format, converter.FormatWAVFolder)
	}
	if job.Name != filepath.Base(dir) {
		t.Errorf("name = %q, want %q", job.Name, filepath.Base(dir))
	}
	if len(job.Sources) != 2 {
		t.Fatalf("sources = %d, want 2", len(job.Sources))
	}
	// フォルダ名を含んだパスでファイル名順に並ぶ
	name := filepath.Base(dir)
	if job.Sources[0].Name != name+"/Piano_C3.wav" || job.Sources[1].Name != name+"/Piano_D3.wav" {
		t.Errorf("sources not sorted: %q, %q", job.Sources[0].Name, job.Sources[1].Name)
	}
}

func TestGatherJobs_SingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "piano.sfz")
	if err := os.WriteFile(path, []byte("<region> sample=a.wav\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	app := &Application{config: &cli.Config{InputPath: path, LogLevel: "error"}}
	if err := app.initLogger(); err != nil {
		t.Fatal(err)
	}

	jobs, err := app.gatherJobs()
	if err != nil {
		t.Fatalf("gatherJobs failed: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("jobs = %d, want 1", len(jobs))
	}
	if jobs[0].Format != converter.FormatSFZ {
		t.Errorf("format = %q, want %q", jobs[0].Format, converter.FormatSFZ)
	}
	if jobs[0].Name != "piano" {
		t.Errorf("name = %q, want piano", jobs[0].Name)
	}
}

func TestGatherJobs_FromOverridesExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "preset.dat")
	if err := os.WriteFile(path, []byte{0}, 0o644); err != nil {
		t.Fatal(err)
	}

	app := &Application{config: &cli.Config{InputPath: path, From: "nki", LogLevel: "error"}}
	if err := app.initLogger(); err != nil {
		t.Fatal(err)
	}

	jobs, err := app.gatherJobs()
	if err != nil {
		t.Fatalf("gatherJobs failed: %v", err)
	}
	if jobs[0].Format != converter.FormatNKI {
		t.Errorf("format = %q, want %q", jobs[0].Format, converter.FormatNKI)
	}
}

func TestGatherJobs_EmptyDirectory(t *testing.T) {
	dir := t.TempDir()

	app := &Application{config: &cli.Config{InputPath: dir, LogLevel: "error"}}
	if err := app.initLogger(); err != nil {
		t.Fatal(err)
	}

	if _, err := app.gatherJobs(); err == nil {
		t.Error("expected error for directory without wav files")
	}
}

func TestRun_WAVFolderToSFZ(t *testing.T) {
	srcDir := t.TempDir()
	outDir := t.TempDir()
	writeTestWAV(t, filepath.Join(srcDir, "Piano_C3.wav"))
	writeTestWAV(t, filepath.Join(srcDir, "Piano_E3.wav"))

	app := New()
	err := app.Run([]string{"-to", "sfz", "-log-level", "error", srcDir, outDir})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	name := filepath.Base(srcDir)
	sfzPath := filepath.Join(outDir, name+".sfz")
	if _, err := os.Stat(sfzPath); err != nil {
		t.Errorf("expected sfz output at %s: %v", sfzPath, err)
	}
}
