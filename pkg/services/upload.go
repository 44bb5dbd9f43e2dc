package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/botslatam/admin-engine/pkg/apperrors"
	"github.com/botslatam/admin-engine/pkg/ingest"
	"github.com/botslatam/admin-engine/pkg/models"
	"github.com/botslatam/admin-engine/pkg/repositories"
)

// InsertRequest is one ingestion submission: a destination selection, the
// source rows and either a column mapping (existing table) or a new-table
// definition. Exactly one of the two modes is active.
type InsertRequest struct {
	TableName      string               `json:"table_name"`
	ColumnMapping  map[string]string    `json:"column_mapping"` // destination -> source
	Data           []map[string]string  `json:"data"`
	CreateNewTable bool                 `json:"create_new_table"`
	NewTableInfo   *models.NewTableSpec `json:"new_table_info"`
}

// UploadService defines the interface for the file-ingestion operations.
type UploadService interface {
	// Preview validates and parses an uploaded file, returning its columns
	// and a bounded sample of rows.
	Preview(ctx context.Context, filename string, size int64, r io.Reader) (*models.PreviewData, error)
	// Tables returns the catalog of available destination tables keyed by
	// table name.
	Tables(ctx context.Context) (map[string]models.TableDescriptor, error)
	// Insert performs one ingestion submission, creating the destination
	// table first when requested.
	Insert(ctx context.Context, req *InsertRequest) (*models.IngestionResult, error)
	// CreateTable creates a new table from an uploaded file's header with
	// inferred column types, without inserting any rows.
	CreateTable(ctx context.Context, filename string, r io.Reader, tableName, displayName, description string) (*models.TableDescriptor, error)
}

// staticTables carries display metadata for the predefined tables; tables
// created at runtime get their metadata derived from the table name.
var staticTables = map[string]models.TableDescriptor{
	"feriados": {
		Name:        "feriados",
		DisplayName: "Feriados",
		Description: "Tabla de feriados por país",
		Columns:     []string{"pais", "feriado", "fecha"},
	},
	"diccionario_catalogo_empresa": {
		Name:        "diccionario_catalogo_empresa",
		DisplayName: "Diccionario Catálogo Empresa",
		Description: "Tabla de catálogo de empresas",
		Columns:     []string{"empresa", "valor"},
	},
}

// uploadService implements UploadService.
type uploadService struct {
	datasets    repositories.DatasetRepository
	maxFileSize int64
	logger      *zap.Logger
}

// NewUploadService creates a new upload service with dependencies.
func NewUploadService(datasets repositories.DatasetRepository, maxFileSize int64, logger *zap.Logger) UploadService {
	return &uploadService{
		datasets:    datasets,
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

// Preview validates the file's extension and size, parses it and returns a
// bounded sample. Fully empty rows are dropped before counting.
func (s *uploadService) Preview(ctx context.Context, filename string, size int64, r io.Reader) (*models.PreviewData, error) {
	if !ingest.IsSupportedFilename(filename) {
		return nil, apperrors.ErrInvalidFileType
	}
	if size > s.maxFileSize {
		return nil, apperrors.ErrFileTooLarge
	}

	table, err := ingest.Parse(filename, r)
	if err != nil {
		return nil, fmt.Errorf("failed to process file: %w", err)
	}

	sample := table.Rows
	if len(sample) > models.PreviewRowLimit {
		sample = sample[:models.PreviewRowLimit]
	}

	return &models.PreviewData{
		Columns:   table.Columns,
		Rows:      sample,
		TotalRows: len(table.Rows),
		FileInfo: models.FileInfo{
			Filename:     filename,
			Size:         size,
			ColumnsCount: len(table.Columns),
			RowsCount:    len(table.Rows),
		},
	}, nil
}

// Tables returns the available destination tables. Static tables keep their
// curated metadata; dynamically created tables are introspected.
func (s *uploadService) Tables(ctx context.Context) (map[string]models.TableDescriptor, error) {
	existing, err := s.datasets.ListTables(ctx)
	if err != nil {
		return nil, err
	}

	tables := make(map[string]models.TableDescriptor, len(existing))
	for _, name := range existing {
		if static, ok := staticTables[name]; ok {
			tables[name] = static
			continue
		}

		columns, err := s.datasets.GetTableColumns(ctx, name)
		if err != nil {
			return nil, err
		}
		tables[name] = models.TableDescriptor{
			Name:        name,
			DisplayName: displayNameFor(name),
			Description: fmt.Sprintf("Tabla creada desde Excel: %s", name),
			Columns:     columns,
		}
	}

	return tables, nil
}

// displayNameFor turns a table identifier into a human-readable title.
func displayNameFor(name string) string {
	words := strings.Split(strings.ReplaceAll(name, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Insert performs one ingestion submission.
func (s *uploadService) Insert(ctx context.Context, req *InsertRequest) (*models.IngestionResult, error) {
	if req.CreateNewTable && req.NewTableInfo != nil {
		return s.insertIntoNewTable(ctx, req)
	}
	return s.insertIntoExistingTable(ctx, req)
}

func (s *uploadService) insertIntoNewTable(ctx context.Context, req *InsertRequest) (*models.IngestionResult, error) {
	spec := req.NewTableInfo

	tableName := repositories.SanitizeIdentifier(spec.TableName)
	if !repositories.IsValidTableName(tableName) {
		return nil, apperrors.ErrInvalidTableName
	}

	exists, err := s.datasets.TableExists(ctx, tableName)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.ErrTableExists
	}

	columns := make([]models.NewColumnSpec, 0, len(spec.Columns))
	destNames := make([]string, 0, len(spec.Columns))
	for _, col := range spec.Columns {
		if !models.IsValidDataType(col.DataType) {
			return nil, fmt.Errorf("%w: %q for column %q", apperrors.ErrInvalidDataType, col.DataType, col.Name)
		}
		sanitized := col
		sanitized.Name = repositories.SanitizeIdentifier(col.Name)
		columns = append(columns, sanitized)
		destNames = append(destNames, sanitized.Name)
	}

	if err := s.datasets.CreateTable(ctx, tableName, columns); err != nil {
		return nil, err
	}
	s.logger.Info("Created table from upload",
		zap.String("table", tableName),
		zap.Int("columns", len(columns)))

	// Client mappings are keyed by the original column names, while the
	// created table uses sanitized ones. Rekey by sanitized destination so
	// values survive headers like "país"; unmapped destinations fall back to
	// the source column of the same original name.
	mapping := make(map[string]string, len(spec.Columns))
	for i, col := range spec.Columns {
		src, ok := req.ColumnMapping[col.Name]
		if !ok || src == "" {
			src = col.Name
		}
		mapping[destNames[i]] = src
	}

	rows := applyMapping(req.Data, mapping, destNames)
	inserted, skipped, rowErrors, err := s.datasets.InsertRows(ctx, tableName, destNames, rows)
	if err != nil {
		return nil, err
	}

	return &models.IngestionResult{
		Success:       true,
		Message:       fmt.Sprintf("Table '%s' created and data inserted", tableName),
		InsertedCount: inserted,
		SkippedCount:  skipped,
		TotalCount:    len(req.Data),
		TableCreated:  true,
		NewTableName:  tableName,
		Errors:        rowErrors,
	}, nil
}

func (s *uploadService) insertIntoExistingTable(ctx context.Context, req *InsertRequest) (*models.IngestionResult, error) {
	if req.TableName == "" {
		return nil, fmt.Errorf("destination table is required")
	}

	exists, err := s.datasets.TableExists(ctx, req.TableName)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperrors.ErrNotFound
	}

	columns, err := s.datasets.GetTableColumns(ctx, req.TableName)
	if err != nil {
		return nil, err
	}

	rows := applyMapping(req.Data, req.ColumnMapping, columns)
	inserted, skipped, rowErrors, err := s.datasets.InsertRows(ctx, req.TableName, columns, rows)
	if err != nil {
		return nil, err
	}

	return &models.IngestionResult{
		Success:       true,
		Message:       fmt.Sprintf("Data inserted into table '%s'", req.TableName),
		InsertedCount: inserted,
		SkippedCount:  skipped,
		TotalCount:    len(req.Data),
		TableCreated:  false,
		Errors:        rowErrors,
	}, nil
}

// applyMapping rekeys source rows by destination column. Destinations with
// no mapping fall back to a source column of the same name.
func applyMapping(data []map[string]string, mapping map[string]string, columns []string) []map[string]string {
	rows := make([]map[string]string, len(data))
	for i, src := range data {
		row := make(map[string]string, len(columns))
		for _, dst := range columns {
			srcCol, ok := mapping[dst]
			if !ok {
				srcCol = dst
			}
			if v, ok := src[srcCol]; ok {
				row[dst] = v
			}
		}
		rows[i] = row
	}
	return rows
}

// CreateTable creates a new table from an uploaded file's header. Column
// types are inferred from the file's values; no rows are inserted.
func (s *uploadService) CreateTable(ctx context.Context, filename string, r io.Reader, tableName, displayName, description string) (*models.TableDescriptor, error) {
	sanitized := repositories.SanitizeIdentifier(tableName)
	if !repositories.IsValidTableName(sanitized) {
		return nil, apperrors.ErrInvalidTableName
	}

	exists, err := s.datasets.TableExists(ctx, sanitized)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.ErrTableExists
	}

	if !ingest.IsSupportedFilename(filename) {
		return nil, apperrors.ErrInvalidFileType
	}

	table, err := ingest.Parse(filename, r)
	if err != nil {
		return nil, fmt.Errorf("failed to process file: %w", err)
	}

	types := ingest.InferColumnTypes(table)
	columns := make([]models.NewColumnSpec, 0, len(table.Columns))
	names := make([]string, 0, len(table.Columns))
	for _, col := range table.Columns {
		name := repositories.SanitizeIdentifier(col)
		columns = append(columns, models.NewColumnSpec{
			Name:     name,
			DataType: types[col],
		})
		names = append(names, name)
	}

	if err := s.datasets.CreateTable(ctx, sanitized, columns); err != nil {
		return nil, err
	}
	s.logger.Info("Created table from file header", zap.String("table", sanitized))

	if displayName == "" {
		displayName = displayNameFor(sanitized)
	}
	return &models.TableDescriptor{
		Name:        sanitized,
		DisplayName: displayName,
		Description: description,
		Columns:     names,
	}, nil
}

// Ensure uploadService implements UploadService at compile time.
var _ UploadService = (*uploadService)(nil)
