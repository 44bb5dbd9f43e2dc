package ingest

import (
	"strconv"
	"strings"
	"time"

	"github.com/botslatam/admin-engine/pkg/models"
)

// dateLayouts are the formats accepted when voting a column as DATE.
var dateLayouts = []string{"2006-01-02", "02/01/2006"}

// InferColumnTypes guesses a SQL type for every column from the observed
// values. A column keeps a candidate type only if every non-empty cell
// parses as that type; empty cells do not vote. Columns with no values
// default to TEXT.
func InferColumnTypes(t *Table) map[string]models.ColumnDataType {
	types := make(map[string]models.ColumnDataType, len(t.Columns))
	for _, col := range t.Columns {
		types[col] = inferColumn(col, t.Rows)
	}
	return types
}

func inferColumn(col string, rows []map[string]string) models.ColumnDataType {
	isInt, isReal, isBool, isDate := true, true, true, true
	seen := false

	for _, row := range rows {
		v := row[col]
		if v == "" {
			continue
		}
		seen = true

		if isInt {
			if _, err := strconv.ParseInt(v, 10, 64); err != nil {
				isInt = false
			}
		}
		if isReal {
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				isReal = false
			}
		}
		if isBool && !isBoolean(v) {
			isBool = false
		}
		if isDate && !isDateValue(v) {
			isDate = false
		}

		if !isInt && !isReal && !isBool && !isDate {
			return models.TypeText
		}
	}

	if !seen {
		return models.TypeText
	}

	// Columns holding only 0/1 count as integers; true/false-style values
	// become BOOLEAN only when they are not all numeric.
	switch {
	case isBool && !isInt:
		return models.TypeBoolean
	case isInt:
		return models.TypeInteger
	case isReal:
		return models.TypeReal
	case isDate:
		return models.TypeDate
	case isBool:
		return models.TypeBoolean
	default:
		return models.TypeText
	}
}

func isBoolean(v string) bool {
	switch strings.ToLower(v) {
	case "true", "false", "si", "no", "yes", "1", "0":
		return true
	}
	return false
}

func isDateValue(v string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, v); err == nil {
			return true
		}
	}
	return false
}
