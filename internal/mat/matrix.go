// Package mat holds the row-major float32 matrix type used to decode
// batched vectors off the wire before they reach the catalog.
package mat

import (
	"encoding/json"
	"fmt"

	"github.com/samber/lo"
)

// Matrix32 represents a matrix with float32 data in row-major order.
type Matrix32 struct {
	Rows int
	Cols int
	Data []float32 // Data[i*Cols+j] = element at row i, col j
}

// New builds a Matrix32 from a slice of equal-length rows.
func New(rows [][]float32) (*Matrix32, error) {
	if len(rows) == 0 {
		return &Matrix32{Data: []float32{}}, nil
	}

	cols := len(rows[0])
	if _, bad := lo.Find(rows, func(row []float32) bool { return len(row) != cols }); bad {
		return nil, fmt.Errorf("inconsistent row lengths in input data")
	}

	m := &Matrix32{Rows: len(rows), Cols: cols, Data: make([]float32, len(rows)*cols)}
	for i, row := range rows {
		copy(m.Data[i*cols:(i+1)*cols], row)
	}
	return m, nil
}

// Row returns the slice backing row i. It aliases the matrix's storage.
func (m *Matrix32) Row(i int) []float32 {
	return m.Data[i*m.Cols : (i+1)*m.Cols]
}

// Rows32 splits the matrix back into one slice per row, copying each.
func (m *Matrix32) Rows32() [][]float32 {
	out := make([][]float32, m.Rows)
	for i := range out {
		row := make([]float32, m.Cols)
		copy(row, m.Row(i))
		out[i] = row
	}
	return out
}

// UnmarshalJSON accepts JSON in the format [[1.0, 2.0], [3.0, 4.0]].
func (m *Matrix32) UnmarshalJSON(data []byte) error {
	var rows [][]float32
	if err := json.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("failed to unmarshal matrix: %w", err)
	}

	built, err := New(rows)
	if err != nil {
		return err
	}
	*m = *built
	return nil
}
