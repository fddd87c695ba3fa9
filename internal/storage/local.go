// Package storage сохраняет загруженные фотографии отметок на локальный диск.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Leganyst/rollcall/internal/apperr"
	"github.com/Leganyst/rollcall/internal/model"
)

const attendanceDir = "files/attendance"

// LocalStore пишет файлы под корнем root. Ссылка на файл — путь
// относительно root через "/".
type LocalStore struct {
	root       string
	maxBytes   int64
	extensions []string
}

func NewLocalStore(root string, maxMB int) *LocalStore {
	if maxMB <= 0 {
		maxMB = model.MaxAttendanceImageMB
	}
	return &LocalStore{
		root:       root,
		maxBytes:   int64(maxMB) * 1024 * 1024,
		extensions: model.AttendanceImageExtensions,
	}
}

// SaveAttendanceImage сохраняет фото отметки пользователя userID.
// Ссылка имеет вид files/attendance/<user_id>/<unix_nano>-<uuid>.<ext>.
func (s *LocalStore) SaveAttendanceImage(userID uuid.UUID, filename string, r io.Reader, at time.Time) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if !slices.Contains(s.extensions, ext) {
		return "", apperr.Validation("File extension %q is not allowed. Allowed extensions are: %s.", ext, strings.Join(s.extensions, ", "))
	}

	ref := path.Join(attendanceDir, userID.String(), fmt.Sprintf("%d-%s.%s", at.UTC().UnixNano(), uuid.NewString(), ext))
	full := s.Path(ref)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}

	f, err := os.OpenFile(full, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create media file: %w", err)
	}

	// читаем на байт больше лимита, чтобы отличить "ровно лимит" от "больше"
	n, err := io.Copy(f, io.LimitReader(r, s.maxBytes+1))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && n > s.maxBytes {
		err = apperr.Validation("Max file size limit is %dMB.", s.maxBytes/1024/1024)
	}
	if err == nil && n == 0 {
		err = apperr.Validation("The submitted file is empty.")
	}
	if err != nil {
		_ = os.Remove(full)
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return "", err
		}
		return "", fmt.Errorf("write media file: %w", err)
	}

	return ref, nil
}

// Remove удаляет файл по ссылке. Отсутствующий файл не ошибка.
func (s *LocalStore) Remove(ref string) error {
	err := os.Remove(s.Path(ref))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Path переводит ссылку в путь на диске.
func (s *LocalStore) Path(ref string) string {
	return filepath.Join(s.root, filepath.FromSlash(path.Clean("/"+ref)))
}
