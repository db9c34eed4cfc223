package symlower

import (
	"cmp"
	"slices"

	"github.com/njchilds90/symlower/expr"
	"github.com/njchilds90/symlower/sx"
)

type piece struct {
	start int
	rows  *sx.Matrix
}

// domainConcatenation lays the children's parts out by global start index.
// Each repetition is ordered on its own; pieces with equal starts keep the
// order of their children and parts.
func (s *Session) domainConcatenation(dc *expr.DomainConcatenation) (*sx.Matrix, error) {
	children := dc.Children()
	lowered, err := s.lowerAll(children)
	if err != nil {
		return nil, err
	}
	var out []*sx.Matrix
	for r := 0; r < dc.Repetitions(); r++ {
		var pieces []piece
		for i := range children {
			for _, part := range dc.Parts(i) {
				ds := part.Reps[r]
				rows, err := lowered[i].Slice(ds.Local.Start, ds.Local.Stop)
				if err != nil {
					return nil, err
				}
				pieces = append(pieces, piece{start: ds.Start, rows: rows})
			}
		}
		slices.SortStableFunc(pieces, func(a, b piece) int { return cmp.Compare(a.start, b.start) })
		for _, p := range pieces {
			out = append(out, p.rows)
		}
	}
	return sx.Vertcat(out...)
}
