// ZIP archive access for sample sources distributed as archives.
package fileutil

import (
	"archive/zip"
	"fmt"
	"io/fs"
	"path"
	"strings"
)

// ZipFS はZIPアーカイブ内のファイルへのアクセスを提供する
// archive/zipのReaderはfs.FSを実装しているため、EmbedFSと同じ感覚で扱える
type ZipFS struct {
	reader   *zip.ReadCloser
	basePath string
}

// OpenZip はZIPアーカイブを開いてFileSystemを作成する
// 呼び出し元でCloseする必要がある
func OpenZip(zipPath string) (*ZipFS, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open zip %s: %w", zipPath, err)
	}
	return &ZipFS{reader: r}, nil
}

// Close はアーカイブを閉じる
func (z *ZipFS) Close() error {
	return z.reader.Close()
}

func (z *ZipFS) Open(name string) (fs.File, error) {
	actualPath, err := z.findFileCaseInsensitive(z.resolvePath(name))
	if err != nil {
		return nil, err
	}
	return z.reader.Open(actualPath)
}

func (z *ZipFS) ReadFile(name string) ([]byte, error) {
	actualPath, err := z.findFileCaseInsensitive(z.resolvePath(name))
	if err != nil {
		return nil, err
	}
	return fs.ReadFile(z.reader, actualPath)
}

func (z *ZipFS) ReadDir(name string) ([]fs.DirEntry, error) {
	return fs.ReadDir(z.reader, z.resolvePath(name))
}

func (z *ZipFS) BasePath() string {
	return z.basePath
}

func (z *ZipFS) IsEmbedded() bool {
	return true
}

func (z *ZipFS) resolvePath(name string) string {
	cleanName := strings.TrimPrefix(strings.TrimPrefix(name, "/"), "\\")
	cleanName = strings.ReplaceAll(cleanName, "\\", "/")
	if cleanName == "." || cleanName == "" {
		if z.basePath != "" {
			return z.basePath
		}
		return "."
	}
	if z.basePath != "" {
		return z.basePath + "/" + cleanName
	}
	return cleanName
}

func (z *ZipFS) findFileCaseInsensitive(p string) (string, error) {
	if f, err := z.reader.Open(p); err == nil {
		f.Close()
		return p, nil
	}
	return FindFileCaseInsensitiveFS(z.reader, path.Dir(p), path.Base(p))
}

// ListFiles はアーカイブ内の全ファイル名を返す（ディレクトリは除く）
func (z *ZipFS) ListFiles() []string {
	var names []string
	for _, f := range z.reader.File {
		if !f.FileInfo().IsDir() {
			names = append(names, f.Name)
		}
	}
	return names
}
