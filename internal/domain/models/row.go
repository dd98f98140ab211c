package models

import (
	"fmt"
	"strings"
)

// CellKind tags the variant held by a Cell.
type CellKind int

const (
	CellNumber CellKind = iota
	// CellDateLike is a string cell containing a date separator. Whether it
	// actually parses as a date is decided by the normalizer.
	CellDateLike
	CellText
)

// Cell is one untyped column value from an upstream row, reduced to a tagged
// variant so the normalizer can branch explicitly instead of inspecting
// runtime types.
type Cell struct {
	Kind   CellKind
	Number float64
	Text   string
}

// NumberCell wraps a numeric value.
func NumberCell(v float64) Cell {
	return Cell{Kind: CellNumber, Number: v}
}

// TextCell wraps a string value, tagging it date-like when it contains the
// date separator.
func TextCell(s string) Cell {
	if strings.Contains(s, "-") {
		return Cell{Kind: CellDateLike, Text: s}
	}
	return Cell{Kind: CellText, Text: s}
}

// RawRow is an ordered sequence of cells. Column layout is not guaranteed
// stable across calls; only position order within one row is meaningful.
type RawRow []Cell

// AsMap renders the row as a column-indexed map for the packet's raw audit
// payload.
func (r RawRow) AsMap() map[string]interface{} {
	m := make(map[string]interface{}, len(r))
	for i, c := range r {
		key := fmt.Sprintf("c%d", i)
		switch c.Kind {
		case CellNumber:
			m[key] = c.Number
		default:
			m[key] = c.Text
		}
	}
	return m
}
