// Package fileutil provides unified file system access for directories and archives.
package fileutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileSystem はディレクトリとZIPアーカイブを統一的に扱うインターフェース
type FileSystem interface {
	// Open はファイルを開く（大文字小文字を無視）
	Open(name string) (fs.File, error)
	// ReadFile はファイルの内容を読み込む（大文字小文字を無視）
	ReadFile(name string) ([]byte, error)
	// ReadDir はディレクトリの内容を読み込む
	ReadDir(name string) ([]fs.DirEntry, error)
	// BasePath はベースパスを返す
	BasePath() string
	// IsEmbedded はアーカイブ内のファイルシステムかどうかを返す
	IsEmbedded() bool
}

// RealFS は実ファイルシステムへのアクセスを提供する
type RealFS struct {
	basePath string
}

// NewRealFS は実ファイルシステム用のFileSystemを作成する
func NewRealFS(basePath string) *RealFS {
	return &RealFS{basePath: basePath}
}

func (r *RealFS) Open(name string) (fs.File, error) {
	path := r.resolvePath(name)
	actualPath, err := r.findFileCaseInsensitive(path)
	if err != nil {
		return nil, err
	}
	return os.Open(actualPath)
}

func (r *RealFS) ReadFile(name string) ([]byte, error) {
	path := r.resolvePath(name)
	actualPath, err := r.findFileCaseInsensitive(path)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(actualPath)
}

func (r *RealFS) ReadDir(name string) ([]fs.DirEntry, error) {
	path := r.resolvePath(name)
	return os.ReadDir(path)
}

func (r *RealFS) BasePath() string {
	return r.basePath
}

func (r *RealFS) IsEmbedded() bool {
	return false
}

func (r *RealFS) resolvePath(name string) string {
	// 先頭の "/" や "\" を除去
	cleanName := strings.TrimPrefix(strings.TrimPrefix(name, "/"), "\\")
	if r.basePath != "" {
		return filepath.Join(r.basePath, cleanName)
	}
	return cleanName
}

func (r *RealFS) findFileCaseInsensitive(path string) (string, error) {
	// まず直接アクセスを試みる
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	// 大文字小文字を無視して検索
	dir := filepath.Dir(path)
	filename := filepath.Base(path)
	return FindFileCaseInsensitive(dir, filename)
}

// WalkDir はディレクトリを再帰的に走査する
// 返されるパスはベースパスからの相対パス
func WalkDir(fsys FileSystem, root string, fn fs.WalkDirFunc) error {
	if zipFS, ok := fsys.(*ZipFS); ok {
		path := zipFS.resolvePath(root)
		basePath := zipFS.basePath
		return fs.WalkDir(zipFS.reader, path, func(walkPath string, d fs.DirEntry, err error) error {
			// ベースパスからの相対パスに変換
			relPath := walkPath
			if basePath != "" && strings.HasPrefix(walkPath, basePath+"/") {
				relPath = strings.TrimPrefix(walkPath, basePath+"/")
			} else if basePath != "" && walkPath == basePath {
				relPath = "."
			}
			return fn(relPath, d, err)
		})
	}

	if realFS, ok := fsys.(*RealFS); ok {
		path := root
		if realFS.basePath != "" && !filepath.IsAbs(root) {
			path = filepath.Join(realFS.basePath, root)
		}
		basePath := realFS.basePath
		return filepath.WalkDir(path, func(walkPath string, d fs.DirEntry, err error) error {
			// ベースパスからの相対パスに変換
			relPath := walkPath
			if basePath != "" {
				rel, relErr := filepath.Rel(basePath, walkPath)
				if relErr == nil {
					relPath = rel
				}
			}
			return fn(relPath, d, err)
		})
	}

	return fmt.Errorf("unsupported file system type")
}
