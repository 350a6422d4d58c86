// pkg/filestorage/local_filestorage.go

package filestorage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Все пути, которые возвращает и принимает хранилище, относительны basePath.
type FileStorageInterface interface {
	Save(file io.Reader, originalFileName string, prefix string) (filePath string, err error)
	Copy(srcPath string, prefix string) (filePath string, err error)
	Open(filePath string) (io.ReadCloser, error)
	Delete(filePath string) error
}

type LocalFileStorage struct {
	basePath string
}

func NewLocalFileStorage(basePath string) (*LocalFileStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию: %w", err)
	}
	return &LocalFileStorage{basePath: basePath}, nil
}

func (s *LocalFileStorage) Save(file io.Reader, originalFileName string, prefix string) (string, error) {
	relPath, err := s.newPath(originalFileName, prefix)
	if err != nil {
		return "", err
	}

	if err := s.write(relPath, file); err != nil {
		return "", err
	}
	return relPath, nil
}

// Copy кладёт копию файла в каталог prefix под новым уникальным именем.
func (s *LocalFileStorage) Copy(srcPath string, prefix string) (string, error) {
	src, err := s.Open(srcPath)
	if err != nil {
		return "", err
	}
	defer src.Close()

	return s.Save(src, srcPath, prefix)
}

func (s *LocalFileStorage) Open(filePath string) (io.ReadCloser, error) {
	fullPath, err := s.resolve(filePath)
	if err != nil {
		return nil, err
	}
	return os.Open(fullPath)
}

func (s *LocalFileStorage) Delete(filePath string) error {
	fullPath, err := s.resolve(filePath)
	if err != nil {
		return err
	}

	// Если файла и так нет, считаем операцию успешной.
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *LocalFileStorage) newPath(originalFileName, prefix string) (string, error) {
	ext := filepath.Ext(originalFileName)
	uniqueFileName := fmt.Sprintf("%s-%s%s", time.Now().Format("2006-01-02"), uuid.New().String(), ext)
	datePath := time.Now().Format("2006/01/02")

	relPath := filepath.ToSlash(filepath.Join(prefix, datePath, uniqueFileName))
	if _, err := s.resolve(relPath); err != nil {
		return "", err
	}
	return relPath, nil
}

func (s *LocalFileStorage) write(relPath string, file io.Reader) (err error) {
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return err
	}

	dst, err := os.Create(fullPath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := dst.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(fullPath)
		}
	}()

	_, err = io.Copy(dst, file)
	return err
}

// resolve не даёт выйти за пределы basePath через "..".
func (s *LocalFileStorage) resolve(relPath string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(strings.TrimPrefix(relPath, "/")))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
		return "", fmt.Errorf("недопустимый путь к файлу: %q", relPath)
	}
	return filepath.Join(s.basePath, clean), nil
}
