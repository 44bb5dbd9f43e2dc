package models

// TableDescriptor describes a destination table available for ingestion.
type TableDescriptor struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	Description string   `json:"description"`
	Columns     []string `json:"columns"`
}

// FileInfo carries metadata about an uploaded file, echoed back in previews.
type FileInfo struct {
	Filename     string `json:"filename"`
	Size         int64  `json:"size"`
	ColumnsCount int    `json:"columns_count"`
	RowsCount    int    `json:"rows_count"`
}

// PreviewData is a bounded sample of an uploaded file's parsed content.
// Rows is capped at PreviewRowLimit; TotalRows reflects the whole file.
type PreviewData struct {
	Columns   []string            `json:"columns"`
	Rows      []map[string]string `json:"rows"`
	TotalRows int                 `json:"total_rows"`
	FileInfo  FileInfo            `json:"file_info"`
}

// PreviewRowLimit bounds the number of sample rows returned to the client.
const PreviewRowLimit = 10

// ColumnDataType is the SQL type selected for a new table's column.
type ColumnDataType string

const (
	TypeText    ColumnDataType = "TEXT"
	TypeInteger ColumnDataType = "INTEGER"
	TypeReal    ColumnDataType = "REAL"
	TypeDate    ColumnDataType = "DATE"
	TypeBoolean ColumnDataType = "BOOLEAN"
)

// ValidDataTypes contains the column types supported for new tables.
var ValidDataTypes = []ColumnDataType{TypeText, TypeInteger, TypeReal, TypeDate, TypeBoolean}

// IsValidDataType checks if the given type is one of the supported column types.
func IsValidDataType(t ColumnDataType) bool {
	for _, v := range ValidDataTypes {
		if v == t {
			return true
		}
	}
	return false
}

// NewColumnSpec defines one column of a table to be created.
type NewColumnSpec struct {
	Name        string         `json:"name"`
	DisplayName string         `json:"display_name"`
	DataType    ColumnDataType `json:"data_type"`
	Required    bool           `json:"required"`
}

// NewTableSpec defines a table to be created from an uploaded file.
type NewTableSpec struct {
	TableName   string          `json:"table_name"`
	DisplayName string          `json:"display_name"`
	Description string          `json:"description"`
	Columns     []NewColumnSpec `json:"columns"`
}

// IngestionResult reports the outcome of one insertion submission.
// Partial success (some rows skipped) is a normal outcome, not an error.
type IngestionResult struct {
	Success       bool     `json:"success"`
	Message       string   `json:"message,omitempty"`
	InsertedCount int      `json:"inserted_count"`
	SkippedCount  int      `json:"skipped_count"`
	TotalCount    int      `json:"total_count"`
	TableCreated  bool     `json:"table_created"`
	NewTableName  string   `json:"new_table_name,omitempty"`
	Errors        []string `json:"errors,omitempty"`
}

// InsertErrorLimit caps how many per-row errors are enumerated in a result;
// additional failures are summarized by count.
const InsertErrorLimit = 10
