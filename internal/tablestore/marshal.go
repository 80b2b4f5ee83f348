package tablestore

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/roach88/silo/internal/grid"
)

// marshalRow serializes row i of cols as a JSON array.
// Long values are written as JSON integers, String values as JSON strings.
func marshalRow(cols []grid.Column, i int) (string, error) {
	cells := make([]any, len(cols))
	for j, c := range cols {
		cells[j] = c.Value(i)
	}
	data, err := json.Marshal(cells)
	if err != nil {
		return "", fmt.Errorf("marshal row %d: %w", i, err)
	}
	return string(data), nil
}

// unmarshalRow decodes a JSON cell array and appends each cell to the
// matching column. Numbers are decoded with UseNumber so int64 values
// survive without float rounding.
func unmarshalRow(cells string, cols []grid.Column) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(cells)))
	dec.UseNumber()

	var values []any
	if err := dec.Decode(&values); err != nil {
		return fmt.Errorf("unmarshal row: %w", err)
	}
	if len(values) != len(cols) {
		return fmt.Errorf("unmarshal row: %d cells for %d columns", len(values), len(cols))
	}

	for j := range cols {
		switch v := values[j].(type) {
		case string:
			if err := cols[j].Append(v); err != nil {
				return fmt.Errorf("unmarshal row: %w", err)
			}
		case json.Number:
			n, err := v.Int64()
			if err != nil {
				return fmt.Errorf("unmarshal row: column %s: %w", cols[j].Name, err)
			}
			if err := cols[j].Append(n); err != nil {
				return fmt.Errorf("unmarshal row: %w", err)
			}
		default:
			return fmt.Errorf("unmarshal row: column %s: unexpected cell type %T", cols[j].Name, v)
		}
	}
	return nil
}
