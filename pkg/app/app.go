package app

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/zurustar/sampleconv/pkg/cli"
	"github.com/zurustar/sampleconv/pkg/converter"
	"github.com/zurustar/sampleconv/pkg/fileutil"
	"github.com/zurustar/sampleconv/pkg/keymap"
	"github.com/zurustar/sampleconv/pkg/logger"
)

// Application はアプリケーションのメインロジックを管理する
type Application struct {
	config *cli.Config
	log    *slog.Logger
}

// New Applicationを作成
func New() *Application {
	return &Application{}
}

// Run アプリケーションを実行
func (app *Application) Run(args []string) error {
	// 1. コマンドライン引数の解析
	if err := app.parseArgs(args); err != nil {
		return fmt.Errorf("failed to parse args: %w", err)
	}

	if app.config.ShowHelp {
		cli.PrintHelp()
		return nil
	}

	// 2. ロガーの初期化
	if err := app.initLogger(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if app.config.InputPath == "" {
		cli.PrintHelp()
		return fmt.Errorf("input path is required")
	}

	// 3. 入力の読み込み
	jobs, err := app.gatherJobs()
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	// 4. ダンプモード：変換せずに構造を表示して終了
	if app.config.Dump {
		return app.dump(jobs)
	}

	// 5. 変換の実行
	target, err := parseFormat(app.config.To)
	if err != nil {
		return err
	}
	for i := range jobs {
		jobs[i].Target = target
	}

	opts := converter.Options{
		Mapping: keymap.Config{
			Ascending:           app.config.Ascending,
			CrossfadeNotes:      app.config.CrossfadeNotes,
			CrossfadeVelocities: app.config.CrossfadeVelocities,
			GroupPatterns:       app.config.GroupPatterns,
			LeftChannelPatterns: app.config.LeftPatterns,
		},
		Creator: app.config.Creator,
	}

	workers := app.config.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}

	app.log.Info("Conversion started", "jobs", len(jobs), "target", target, "workers", workers)

	results := converter.RunBatch(context.Background(), jobs, opts, workers)

	// 6. 結果の書き出し
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			continue
		}
		if err := app.writeOutputs(r.Outputs); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d jobs failed", failed, len(results))
	}

	app.log.Info("Conversion finished", "jobs", len(results))
	return nil
}

// parseArgs コマンドライン引数を解析
func (app *Application) parseArgs(args []string) error {
	config, err := cli.ParseArgs(args)
	if err != nil {
		return err
	}
	app.config = config
	return nil
}

// initLogger ロガーを初期化
func (app *Application) initLogger() error {
	if err := logger.InitLogger(app.config.LogLevel); err != nil {
		return err
	}
	app.log = logger.GetLogger()
	return nil
}

// gatherJobs 入力パスから変換ジョブを組み立てる
// 単一ファイル、WAVディレクトリ、ZIPアーカイブの3通りを受け付ける
func (app *Application) gatherJobs() ([]converter.Job, error) {
	path := app.config.InputPath

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if info.IsDir() {
		return app.gatherDirJob(path)
	}
	if strings.EqualFold(filepath.Ext(path), ".zip") {
		return app.gatherZipJob(path)
	}
	return app.gatherFileJob(path)
}

// gatherFileJob 単一ファイルを1ジョブとして読み込む
func (app *Application) gatherFileJob(path string) ([]converter.Job, error) {
	format, err := app.resolveFormat(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return []converter.Job{{
		Name:      name,
		Format:    format,
		Sources:   []converter.Source{{Name: filepath.Base(path), Data: data}},
		OutputDir: app.config.OutputDir,
	}}, nil
}

// gatherDirJob ディレクトリ内のWAVファイルを1ジョブにまとめる
func (app *Application) gatherDirJob(dir string) ([]converter.Job, error) {
	name := filepath.Base(filepath.Clean(dir))
	jobs, err := app.gatherFolderJob(fileutil.NewRealFS(dir), name)
	if err != nil {
		return nil, err
	}
	app.log.Info("WAV folder loaded", "dir", dir, "samples", len(jobs[0].Sources))
	return jobs, nil
}

// gatherZipJob ZIPアーカイブ内のWAVファイルを1ジョブにまとめる
func (app *Application) gatherZipJob(zipPath string) ([]converter.Job, error) {
	zf, err := fileutil.OpenZip(zipPath)
	if err != nil {
		return nil, err
	}
	defer zf.Close()

	name := strings.TrimSuffix(filepath.Base(zipPath), filepath.Ext(zipPath))
	jobs, err := app.gatherFolderJob(zf, name)
	if err != nil {
		return nil, err
	}
	app.log.Info("ZIP archive loaded", "path", zipPath, "samples", len(jobs[0].Sources))
	return jobs, nil
}

// gatherFolderJob ファイルシステム内のWAVファイルを集めて1ジョブを組み立てる
// サブディレクトリも走査する
func (app *Application) gatherFolderJob(fsys fileutil.FileSystem, name string) ([]converter.Job, error) {
	var sources []converter.Source
	err := fileutil.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".wav") {
			return nil
		}
		data, err := fsys.ReadFile(path)
		if err != nil {
			return err
		}
		// フォルダ名をパスに残すと変換側がそこから楽器名を導出できる
		sources = append(sources, converter.Source{Name: name + "/" + filepath.Base(path), Data: data})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no wav files in %s", name)
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].Name < sources[j].Name })

	return []converter.Job{{
		Name:      name,
		Format:    converter.FormatWAVFolder,
		Sources:   sources,
		OutputDir: app.config.OutputDir,
	}}, nil
}

// resolveFormat 入力フォーマットを決定する（-fromフラグが拡張子判定より優先）
func (app *Application) resolveFormat(path string) (converter.Format, error) {
	if app.config.From != "" {
		return parseFormat(app.config.From)
	}
	return converter.DetectFormat(path)
}

// dump 入力の構造を標準出力にダンプする
func (app *Application) dump(jobs []converter.Job) error {
	for _, job := range jobs {
		for _, src := range job.Sources {
			if err := converter.Dump(os.Stdout, job.Format, src.Data); err != nil {
				return err
			}
		}
	}
	return nil
}

// writeOutputs 変換結果を出力ディレクトリに書き出す
func (app *Application) writeOutputs(outputs []converter.OutputFile) error {
	outDir := app.config.OutputDir
	if outDir == "" {
		outDir = "."
	}
	for _, out := range outputs {
		path := filepath.Join(outDir, filepath.FromSlash(out.Path))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, out.Data, 0o644); err != nil {
			return err
		}
		app.log.Info("Output written", "path", path, "size", len(out.Data))
	}
	return nil
}

// parseFormat フォーマット名を検証して正規化する
func parseFormat(s string) (converter.Format, error) {
	switch strings.ToLower(s) {
	case "sf2":
		return converter.FormatSF2, nil
	case "nki":
		return converter.FormatNKI, nil
	case "sfz":
		return converter.FormatSFZ, nil
	case "1010", "tenten":
		return converter.FormatTenTen, nil
	case "wav":
		return converter.FormatWAVFolder, nil
	case "":
		return "", fmt.Errorf("target format is required (-to sf2|nki|sfz|1010|wav)")
	default:
		return "", fmt.Errorf("unknown format: %s", s)
	}
}
