// Package equipment ingests equipment lists and seeds diagrams from them.
//
// An equipment list is the procurement-side view of a system: one row per
// device model with a quantity. Seeding expands each row into that many
// placed devices so the engineer starts wiring instead of drawing boxes.
package equipment

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tracewire/tracewire/pkg/diagram"
)

var (
	// ErrMissingModel is returned for rows without a model designation.
	ErrMissingModel = errors.New("equipment row has no model")

	// ErrBadQuantity is returned for non-positive or unparsable quantities.
	ErrBadQuantity = errors.New("equipment quantity must be a positive integer")
)

// Row is one line of an equipment list.
type Row struct {
	Model       string `json:"model"`
	Description string `json:"description,omitempty"`
	Quantity    int    `json:"quantity"`
	Remarks     string `json:"remarks,omitempty"`
}

// ParseCSV reads rows from CSV with a header line. Recognized columns are
// model, description, quantity, and remarks (case-insensitive, any order);
// unknown columns are ignored. A missing quantity column defaults to 1.
func ParseCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	col := map[string]int{}
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := col["model"]; !ok {
		return nil, fmt.Errorf("%w: no model column", ErrMissingModel)
	}

	field := func(record []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var rows []Row
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		row := Row{
			Model:       field(record, "model"),
			Description: field(record, "description"),
			Remarks:     field(record, "remarks"),
			Quantity:    1,
		}
		if q := field(record, "quantity"); q != "" {
			n, err := strconv.Atoi(q)
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("line %d: %w: %q", line, ErrBadQuantity, q)
			}
			row.Quantity = n
		}
		if row.Model == "" {
			return nil, fmt.Errorf("line %d: %w", line, ErrMissingModel)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ParseJSON reads a JSON array of rows. Zero quantities default to 1;
// negative ones are rejected.
func ParseJSON(r io.Reader) ([]Row, error) {
	var rows []Row
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode equipment list: %w", err)
	}
	for i := range rows {
		if rows[i].Model == "" {
			return nil, fmt.Errorf("row %d: %w", i+1, ErrMissingModel)
		}
		if rows[i].Quantity < 0 {
			return nil, fmt.Errorf("row %d: %w: %d", i+1, ErrBadQuantity, rows[i].Quantity)
		}
		if rows[i].Quantity == 0 {
			rows[i].Quantity = 1
		}
	}
	return rows, nil
}

// Seed grid placement.
const (
	seedOriginX = 60.0
	seedOriginY = 60.0
	seedGapX    = 40.0
	seedGapY    = 40.0
	seedColumns = 5
)

// Seed expands rows into devices on the diagram. Each unit becomes one
// node labeled "<model>-<n>" with the description and remarks carried into
// its metadata, laid out in a fixed-width grid. Returns the new node ids
// in placement order.
func Seed(d *diagram.Diagram, rows []Row) ([]string, error) {
	var ids []string
	slot := 0
	for _, row := range rows {
		if row.Model == "" {
			return nil, ErrMissingModel
		}
		for unit := 1; unit <= row.Quantity; unit++ {
			colIdx := slot % seedColumns
			rowIdx := slot / seedColumns
			n := diagram.Node{
				Label:       fmt.Sprintf("%s-%d", row.Model, unit),
				Model:       row.Model,
				Description: row.Description,
				Position: diagram.Point{
					X: seedOriginX + float64(colIdx)*(diagram.DefaultNodeWidth+seedGapX),
					Y: seedOriginY + float64(rowIdx)*(diagram.DefaultNodeHeight+seedGapY),
				},
				Meta: diagram.NodeMeta{Notes: row.Remarks},
			}
			created, err := d.AddNode(n)
			if err != nil {
				return ids, fmt.Errorf("seed %s: %w", n.Label, err)
			}
			ids = append(ids, created.ID)
			slot++
		}
	}
	return ids, nil
}
