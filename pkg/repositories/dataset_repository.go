package repositories

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/botslatam/admin-engine/pkg/database"
	"github.com/botslatam/admin-engine/pkg/models"
)

// DatasetRepository provides access to the dynamic data tables that files
// are ingested into. Unlike the user repository it works against tables
// whose names and columns are only known at runtime.
type DatasetRepository interface {
	// ListTables returns the names of all public data tables, excluding
	// internal bookkeeping tables.
	ListTables(ctx context.Context) ([]string, error)
	// GetTableColumns returns the data columns of a table in ordinal order,
	// excluding the synthetic id column.
	GetTableColumns(ctx context.Context, table string) ([]string, error)
	// TableExists reports whether the named table exists.
	TableExists(ctx context.Context, table string) (bool, error)
	// CreateTable creates a new table with a synthetic id primary key plus
	// the given column definitions.
	CreateTable(ctx context.Context, table string, columns []models.NewColumnSpec) error
	// InsertRows inserts destination-keyed rows into the table in a single
	// transaction. Rows that fail individually are skipped and reported;
	// the error list is capped at models.InsertErrorLimit with the
	// remainder summarized by count.
	InsertRows(ctx context.Context, table string, columns []string, rows []map[string]string) (inserted, skipped int, rowErrors []string, err error)
}

// internalTables are never exposed as ingestion destinations.
var internalTables = map[string]bool{
	"users":             true,
	"schema_migrations": true,
}

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// IsValidTableName reports whether the name is a safe SQL identifier:
// letters, digits and underscores, not starting with a digit.
func IsValidTableName(name string) bool {
	return name != "" && len(name) <= 63 && tableNamePattern.MatchString(name)
}

// SanitizeIdentifier rewrites an arbitrary column or table name into a safe
// SQL identifier, mirroring what happens to headers taken from user files.
func SanitizeIdentifier(name string) string {
	cleaned := regexp.MustCompile(`[^a-zA-Z0-9_]`).ReplaceAllString(name, "_")
	if cleaned == "" {
		return "_"
	}
	if cleaned[0] >= '0' && cleaned[0] <= '9' {
		cleaned = "t_" + cleaned
	}
	return cleaned
}

// datasetRepository implements DatasetRepository using PostgreSQL.
type datasetRepository struct {
	db *database.DB
}

// NewDatasetRepository creates a new dataset repository.
func NewDatasetRepository(db *database.DB) DatasetRepository {
	return &datasetRepository{db: db}
}

func (r *datasetRepository) ListTables(ctx context.Context) ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
		ORDER BY table_name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		if internalTables[name] {
			continue
		}
		tables = append(tables, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tables: %w", err)
	}

	return tables, nil
}

func (r *datasetRepository) GetTableColumns(ctx context.Context, table string) ([]string, error) {
	query := `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1
		ORDER BY ordinal_position`

	rows, err := r.db.Query(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("failed to get columns of %s: %w", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan column name: %w", err)
		}
		if name == "id" {
			continue
		}
		columns = append(columns, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns: %w", err)
	}

	return columns, nil
}

func (r *datasetRepository) TableExists(ctx context.Context, table string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = 'public' AND table_name = $1
		)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, table).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", table, err)
	}
	return exists, nil
}

// sqlType maps a column data type to its PostgreSQL type.
func sqlType(t models.ColumnDataType) string {
	switch t {
	case models.TypeInteger:
		return "BIGINT"
	case models.TypeReal:
		return "DOUBLE PRECISION"
	case models.TypeDate:
		return "DATE"
	case models.TypeBoolean:
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}

func (r *datasetRepository) CreateTable(ctx context.Context, table string, columns []models.NewColumnSpec) error {
	if !IsValidTableName(table) {
		return fmt.Errorf("unsafe table name: %q", table)
	}

	defs := make([]string, 0, len(columns)+1)
	defs = append(defs, "id BIGSERIAL PRIMARY KEY")
	for _, col := range columns {
		name := SanitizeIdentifier(col.Name)
		def := fmt.Sprintf("%s %s", pgx.Identifier{name}.Sanitize(), sqlType(col.DataType))
		if col.Required {
			def += " NOT NULL"
		}
		defs = append(defs, def)
	}

	query := fmt.Sprintf("CREATE TABLE %s (%s)",
		pgx.Identifier{table}.Sanitize(), strings.Join(defs, ", "))

	if _, err := r.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create table %s: %w", table, err)
	}

	return nil
}

func (r *datasetRepository) InsertRows(ctx context.Context, table string, columns []string, rows []map[string]string) (int, int, []string, error) {
	if !IsValidTableName(table) {
		return 0, len(rows), nil, fmt.Errorf("unsafe table name: %q", table)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, len(rows), nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var inserted, skipped, omitted int
	var rowErrors []string

	for i, row := range rows {
		var cols []string
		var args []any
		// Preserve destination column order; empty and missing cells are
		// treated identically and leave the column out of the insert.
		for _, c := range columns {
			if v, ok := row[c]; ok && v != "" {
				cols = append(cols, pgx.Identifier{c}.Sanitize())
				args = append(args, v)
			}
		}
		if len(cols) == 0 {
			skipped++
			continue
		}

		placeholders := make([]string, len(args))
		for j := range args {
			placeholders[j] = fmt.Sprintf("$%d", j+1)
		}

		query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			pgx.Identifier{table}.Sanitize(),
			strings.Join(cols, ", "),
			strings.Join(placeholders, ", "))

		// Savepoint per row so one bad row does not poison the transaction.
		rowTx, err := tx.Begin(ctx)
		if err != nil {
			return inserted, skipped + (len(rows) - i), rowErrors, fmt.Errorf("failed to create savepoint: %w", err)
		}

		if _, err := rowTx.Exec(ctx, query, args...); err != nil {
			_ = rowTx.Rollback(ctx)
			skipped++
			if len(rowErrors) < models.InsertErrorLimit {
				rowErrors = append(rowErrors, fmt.Sprintf("Row %d: %v", i+1, err))
			} else {
				omitted++
			}
			continue
		}

		if err := rowTx.Commit(ctx); err != nil {
			return inserted, skipped + (len(rows) - i), rowErrors, fmt.Errorf("failed to release savepoint: %w", err)
		}
		inserted++
	}

	if omitted > 0 {
		rowErrors = append(rowErrors, fmt.Sprintf("%d more rows failed (errors omitted)", omitted))
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, len(rows), rowErrors, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return inserted, skipped, rowErrors, nil
}

// Ensure datasetRepository implements DatasetRepository at compile time.
var _ DatasetRepository = (*datasetRepository)(nil)
