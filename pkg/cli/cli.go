package cli

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config はコマンドライン引数から解析された設定を保持する
type Config struct {
	InputPath string // 変換元（ファイルまたはディレクトリ、ZIPも可）
	OutputDir string // 出力先ディレクトリ（省略時はカレントディレクトリ）

	From string // 変換元フォーマット（省略時は拡張子から自動判定）
	To   string // 変換先フォーマット

	Workers  int    // 並列変換数
	LogLevel string // ログレベル（debug, info, warn, error）
	Dump     bool   // 変換せずに構造をダンプする
	ShowHelp bool   // ヘルプ表示フラグ

	// オートマッピングの設定
	Ascending           bool
	CrossfadeNotes      int
	CrossfadeVelocities int
	GroupPatterns       []string
	LeftPatterns        []string

	Creator string // 出力メタデータに記録する作成者名
}

// ParseArgs コマンドライン引数を解析してConfigを返す
// コマンドラインフラグが環境変数より優先される
func ParseArgs(args []string) (*Config, error) {
	// 引数を並べ替え：フラグを前に、位置引数を後ろに
	reorderedArgs := reorderArgs(args)

	fs := flag.NewFlagSet("sampleconv", flag.ContinueOnError)

	config := &Config{}

	fs.StringVar(&config.From, "from", "", "変換元フォーマット（sf2, nki, sfz, 1010, wav）")
	fs.StringVar(&config.To, "to", "", "変換先フォーマット（sf2, nki, sfz, 1010, wav）")
	fs.IntVar(&config.Workers, "workers", 0, "並列変換数（デフォルト: CPU数）")
	fs.StringVar(&config.LogLevel, "log-level", "info", "ログレベル（debug, info, warn, error）")
	fs.StringVar(&config.LogLevel, "l", "info", "ログレベル（短縮形）")
	fs.BoolVar(&config.Dump, "dump", false, "変換せずに構造をダンプ")
	fs.BoolVar(&config.ShowHelp, "help", false, "ヘルプを表示")
	fs.BoolVar(&config.ShowHelp, "h", false, "ヘルプを表示（短縮形）")

	fs.BoolVar(&config.Ascending, "ascending", true, "グループをベロシティ昇順に並べる")
	fs.IntVar(&config.CrossfadeNotes, "crossfade-notes", 0, "ノートクロスフェード幅")
	fs.IntVar(&config.CrossfadeVelocities, "crossfade-velocities", 0, "ベロシティクロスフェード幅")

	var groupPatterns, leftPatterns string
	fs.StringVar(&groupPatterns, "group-patterns", "", "グループ検出パターン（カンマ区切り、*が数値にマッチ）")
	fs.StringVar(&leftPatterns, "left-patterns", "_L,-L", "左チャンネル検出パターン（カンマ区切り）")
	fs.StringVar(&config.Creator, "creator", "", "出力メタデータの作成者名")

	if err := fs.Parse(reorderedArgs); err != nil {
		return nil, err
	}

	// 環境変数からの設定（コマンドラインフラグが優先）
	if config.LogLevel == "info" {
		if logLevelEnv := os.Getenv("LOG_LEVEL"); logLevelEnv != "" {
			config.LogLevel = strings.ToLower(logLevelEnv)
		}
	}
	if config.Workers == 0 {
		if workersEnv := os.Getenv("WORKERS"); workersEnv != "" {
			if w, err := strconv.Atoi(workersEnv); err == nil && w > 0 {
				config.Workers = w
			}
		}
	}

	if config.Workers < 0 {
		return nil, fmt.Errorf("workers must be non-negative, got %d", config.Workers)
	}

	// ログレベルの検証
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[config.LogLevel] {
		return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.LogLevel)
	}

	config.GroupPatterns = splitPatterns(groupPatterns)
	config.LeftPatterns = splitPatterns(leftPatterns)

	// 位置引数：変換元と出力先
	if fs.NArg() > 0 {
		config.InputPath = fs.Arg(0)
	}
	if fs.NArg() > 1 {
		config.OutputDir = fs.Arg(1)
	}

	return config, nil
}

func splitPatterns(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// reorderArgs 引数を並べ替えて、フラグを前に、位置引数を後ろに配置する
func reorderArgs(args []string) []string {
	var flags []string
	var positional []string

	boolFlags := map[string]bool{
		"-h": true, "--help": true, "-help": true,
		"-dump": true, "--dump": true,
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		// フラグかどうかを判定（-または--で始まる）
		if len(arg) > 0 && arg[0] == '-' {
			flags = append(flags, arg)

			// ブール型フラグでない場合は次の引数も追加
			// （-workers 4 のような場合）
			if !boolFlags[arg] && !strings.Contains(arg, "=") {
				if i+1 < len(args) && len(args[i+1]) > 0 && args[i+1][0] != '-' {
					i++
					flags = append(flags, args[i])
				}
			}
		} else {
			// 位置引数
			positional = append(positional, arg)
		}
	}

	// フラグを前に、位置引数を後ろに配置
	return append(flags, positional...)
}

// PrintHelp ヘルプメッセージを表示
func PrintHelp() {
	fmt.Fprintf(os.Stdout, `sampleconv - sampler format converter

Usage:
  sampleconv [options] <input> [output-dir]

Arguments:
  input         変換元ファイル（.sf2 .nki .sfz .xml）またはWAVディレクトリ／ZIP
  output-dir    出力先ディレクトリ（デフォルト: カレントディレクトリ）

Options:
  -from <format>                変換元フォーマット（省略時は拡張子から判定）
  -to <format>                  変換先フォーマット: sf2, nki, sfz, 1010, wav
  -workers <n>                  並列変換数（デフォルト: CPU数）
  -dump                         変換せずに構造をダンプ
  -crossfade-notes <n>          ノートクロスフェード幅
  -crossfade-velocities <n>     ベロシティクロスフェード幅
  -group-patterns <p1,p2>       グループ検出パターン（*が数値にマッチ）
  -left-patterns <p1,p2>        左チャンネル検出パターン（デフォルト: _L,-L）
  -creator <name>               出力メタデータの作成者名
  -l, --log-level <level>       ログレベル: debug, info, warn, error（デフォルト: info）
  -h, --help                    このヘルプを表示

Environment Variables:
  LOG_LEVEL=<level>             ログレベル
  WORKERS=<n>                   並列変換数

Examples:
  sampleconv -to 1010 piano.sf2 out/          SF2を1010music形式へ変換
  sampleconv -to sfz strings.nki out/         NKIをSFZへ変換
  sampleconv -to nki -crossfade-notes 2 ./samples/ out/
  sampleconv -dump piano.sf2                  構造をダンプ
`)
}
