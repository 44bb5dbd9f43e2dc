package wizard

import (
	"path/filepath"
	"strings"

	"github.com/botslatam/admin-engine/pkg/apperrors"
)

// MaxFileSize is the size ceiling for uploaded files.
const MaxFileSize = 10 * 1024 * 1024

// FileInfo describes a candidate file before it is uploaded.
type FileInfo struct {
	Name      string
	Size      int64
	MediaType string
}

var allowedExtensions = map[string]bool{
	".xlsx": true,
	".xls":  true,
	".csv":  true,
}

var allowedMediaTypes = map[string]bool{
	"text/csv":                 true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
}

// ValidateFile accepts or rejects a candidate file by its declared media
// type or extension (case-insensitive) and its size. It never inspects the
// file's contents and never touches the network.
func ValidateFile(info FileInfo) error {
	ext := strings.ToLower(filepath.Ext(info.Name))
	if !allowedExtensions[ext] && !allowedMediaTypes[strings.ToLower(info.MediaType)] {
		return apperrors.ErrInvalidFileType
	}
	if info.Size > MaxFileSize {
		return apperrors.ErrFileTooLarge
	}
	return nil
}
