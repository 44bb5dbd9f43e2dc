package wizard

import (
	"fmt"

	"github.com/botslatam/admin-engine/pkg/apperrors"
	"github.com/botslatam/admin-engine/pkg/models"
)

// MappingBuilder assembles the destination→source column mapping for an
// existing table. Every preview column is a candidate source for every
// destination column.
type MappingBuilder struct {
	destColumns []string
	candidates  []string
	assignments map[string]string
}

// NewMappingBuilder starts a mapping for the given table from the given
// preview.
func NewMappingBuilder(table models.TableDescriptor, preview *models.PreviewData) *MappingBuilder {
	return &MappingBuilder{
		destColumns: append([]string(nil), table.Columns...),
		candidates:  append([]string(nil), preview.Columns...),
		assignments: map[string]string{},
	}
}

// DestinationColumns returns the destination columns in table order.
func (b *MappingBuilder) DestinationColumns() []string {
	return b.destColumns
}

// Candidates returns the source columns a destination column may map to.
func (b *MappingBuilder) Candidates() []string {
	return b.candidates
}

// Assign maps a destination column to a source column. An empty source
// clears the assignment.
func (b *MappingBuilder) Assign(dest, source string) error {
	found := false
	for _, c := range b.destColumns {
		if c == dest {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("unknown destination column %q", dest)
	}
	if source == "" {
		delete(b.assignments, dest)
		return nil
	}
	b.assignments[dest] = source
	return nil
}

// Validate reports every destination column still lacking a source
// assignment at once, in destination order.
func (b *MappingBuilder) Validate() error {
	var missing []string
	for _, dest := range b.destColumns {
		if b.assignments[dest] == "" {
			missing = append(missing, dest)
		}
	}
	if len(missing) > 0 {
		return &IncompleteMappingError{Missing: missing}
	}
	return nil
}

// Mapping returns the completed destination→source mapping.
func (b *MappingBuilder) Mapping() map[string]string {
	mapping := make(map[string]string, len(b.assignments))
	for dest, source := range b.assignments {
		mapping[dest] = source
	}
	return mapping
}

// NewTableBuilder assembles the definition of a table to be created. One
// column row is seeded per preview column with the name fixed to the
// source column, defaulting to TEXT and required.
type NewTableBuilder struct {
	TableName   string
	DisplayName string
	Description string

	columns []models.NewColumnSpec
}

// NewNewTableBuilder seeds a definition from the given preview.
func NewNewTableBuilder(preview *models.PreviewData) *NewTableBuilder {
	columns := make([]models.NewColumnSpec, 0, len(preview.Columns))
	for _, name := range preview.Columns {
		columns = append(columns, models.NewColumnSpec{
			Name:        name,
			DisplayName: name,
			DataType:    models.TypeText,
			Required:    true,
		})
	}
	return &NewTableBuilder{columns: columns}
}

// Columns returns the current column definitions.
func (b *NewTableBuilder) Columns() []models.NewColumnSpec {
	return b.columns
}

// SetDataType changes the data type of the i-th column.
func (b *NewTableBuilder) SetDataType(i int, dataType models.ColumnDataType) error {
	if i < 0 || i >= len(b.columns) {
		return fmt.Errorf("column index %d out of range", i)
	}
	if !models.IsValidDataType(dataType) {
		return fmt.Errorf("%w: %s", apperrors.ErrInvalidDataType, dataType)
	}
	b.columns[i].DataType = dataType
	return nil
}

// SetDisplayName changes the display name of the i-th column. The column's
// destination name itself stays fixed to the source column.
func (b *NewTableBuilder) SetDisplayName(i int, displayName string) error {
	if i < 0 || i >= len(b.columns) {
		return fmt.Errorf("column index %d out of range", i)
	}
	b.columns[i].DisplayName = displayName
	return nil
}

// SetRequired changes the required flag of the i-th column.
func (b *NewTableBuilder) SetRequired(i int, required bool) error {
	if i < 0 || i >= len(b.columns) {
		return fmt.Errorf("column index %d out of range", i)
	}
	b.columns[i].Required = required
	return nil
}

// RemoveColumn drops the i-th column row without affecting the others.
func (b *NewTableBuilder) RemoveColumn(i int) error {
	if i < 0 || i >= len(b.columns) {
		return fmt.Errorf("column index %d out of range", i)
	}
	b.columns = append(b.columns[:i], b.columns[i+1:]...)
	return nil
}

// Validate reports the absent mandatory table-level fields at once.
func (b *NewTableBuilder) Validate() error {
	var missing []string
	if b.TableName == "" {
		missing = append(missing, "table_name")
	}
	if b.DisplayName == "" {
		missing = append(missing, "display_name")
	}
	if len(missing) > 0 {
		return &MissingTableMetadataError{Missing: missing}
	}
	return nil
}

// Spec returns the completed new-table definition.
func (b *NewTableBuilder) Spec() *models.NewTableSpec {
	return &models.NewTableSpec{
		TableName:   b.TableName,
		DisplayName: b.DisplayName,
		Description: b.Description,
		Columns:     append([]models.NewColumnSpec(nil), b.columns...),
	}
}

// IdentityMapping derives the column mapping for a new table: each column
// maps to itself.
func (b *NewTableBuilder) IdentityMapping() map[string]string {
	mapping := make(map[string]string, len(b.columns))
	for _, col := range b.columns {
		mapping[col.Name] = col.Name
	}
	return mapping
}
