package wizard

import (
	"errors"
	"testing"

	"github.com/botslatam/admin-engine/pkg/apperrors"
)

func TestValidateFile(t *testing.T) {
	tests := []struct {
		name    string
		info    FileInfo
		wantErr error
	}{
		{name: "csv", info: FileInfo{Name: "data.csv", Size: 100}},
		{name: "xlsx", info: FileInfo{Name: "data.xlsx", Size: 100}},
		{name: "xls", info: FileInfo{Name: "data.xls", Size: 100}},
		{name: "uppercase extension", info: FileInfo{Name: "DATA.XLSX", Size: 100}},
		{name: "media type only", info: FileInfo{Name: "export", MediaType: "text/csv", Size: 100}},
		{
			name: "xlsx media type",
			info: FileInfo{Name: "export", MediaType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", Size: 100},
		},
		{name: "pdf", info: FileInfo{Name: "report.pdf", Size: 100}, wantErr: apperrors.ErrInvalidFileType},
		{name: "no extension no type", info: FileInfo{Name: "data", Size: 100}, wantErr: apperrors.ErrInvalidFileType},
		{name: "exactly at limit", info: FileInfo{Name: "data.csv", Size: MaxFileSize}},
		{name: "over limit", info: FileInfo{Name: "data.csv", Size: MaxFileSize + 1}, wantErr: apperrors.ErrFileTooLarge},
		{name: "oversize pdf rejected for type first", info: FileInfo{Name: "report.pdf", Size: MaxFileSize + 1}, wantErr: apperrors.ErrInvalidFileType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFile(tt.info)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected accept, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
