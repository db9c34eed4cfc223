package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/njchilds90/symlower/sx"
)

// result is one lowered output. Values is row-major; matrix is set instead
// in print mode.
type result struct {
	Name   string          `json:"name"`
	Rows   int             `json:"rows"`
	Cols   int             `json:"cols"`
	Values []float64       `json:"values,omitempty"`
	Expr   json.RawMessage `json:"expr,omitempty"`
	matrix *sx.Matrix
}

func write(w io.Writer, cfg *config, results []result) error {
	if cfg.format == "json" {
		for i := range results {
			if results[i].matrix == nil {
				continue
			}
			encoded, err := sx.ToJSON(results[i].matrix)
			if err != nil {
				return err
			}
			results[i].Expr = json.RawMessage(encoded)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	for _, r := range results {
		if r.matrix != nil {
			if _, err := fmt.Fprintf(w, "%s = %s\n", r.Name, r.matrix); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(w, "%s (%dx%d)\n", r.Name, r.Rows, r.Cols); err != nil {
			return err
		}
		for row := range r.Rows {
			cells := make([]string, r.Cols)
			for col := range r.Cols {
				cells[col] = strconv.FormatFloat(r.Values[row*r.Cols+col], 'g', 10, 64)
			}
			if _, err := fmt.Fprintf(w, "  %s\n", strings.Join(cells, " ")); err != nil {
				return err
			}
		}
	}
	return nil
}
