package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// アップロード上限（2MB）
const MaxUploadSize = 2 << 20

var (
	ErrFileTooLarge       = errors.New("file too large")
	ErrUnsupportedFileExt = errors.New("unsupported file extension")
)

// 商品画像で受け付ける拡張子
var ImageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".svg": true,
}

// 振込証憑で受け付ける拡張子
var ProofExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".pdf": true,
}

// 公開ディスクへのファイル保存。保存したパスはroot相対で返し、URLは /storage/<path> になる。
type FileStore struct {
	root string
}

func NewFileStore(root string) *FileStore {
	return &FileStore{root: root}
}

func (s *FileStore) Root() string {
	return s.root
}

// multipartのファイルをdir配下へ保存する。ファイル名は衝突しないように振り直す。
func (s *FileStore) Save(fh *multipart.FileHeader, dir string, allowedExts map[string]bool) (string, error) {
	if fh.Size > MaxUploadSize {
		return "", ErrFileTooLarge
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedExts[ext] {
		return "", ErrUnsupportedFileExt
	}

	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Join(s.root, dir), 0o755); err != nil {
		return "", err
	}

	name := fmt.Sprintf("%s%s", uuid.NewString(), ext)
	rel := filepath.ToSlash(filepath.Join(dir, name))

	dst, err := os.Create(filepath.Join(s.root, dir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}

	return rel, nil
}

// 画像差し替え時の旧ファイル削除。無くてもエラーにしない。
func (s *FileStore) Remove(relPath string) error {
	if relPath == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(relPath)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
