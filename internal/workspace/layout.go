package workspace

import (
	"strconv"
	"strings"
)

// The Marquee grid is 12 units wide. Layout strings pack rows, columns and
// component references into tokens of the form r(...), cW(...) and $N, with
// no whitespace. The string is a bit-exact contract with server-persisted
// workspaces, so the width allocation rules below (integer split, last child
// absorbs the remainder) must not change.
const maxGridUnits = 12

// RowElement is a direct child of a Row: any Component, or a nested *Column.
type RowElement interface {
	rowElement()
}

// ColumnElement is a direct child of a Column: any Component, or a nested *Row.
type ColumnElement interface {
	columnElement()
}

// Row is a horizontal band of the grid holding components and columns.
type Row struct {
	children []RowElement
}

func NewRow(children ...RowElement) (*Row, error) {
	r := &Row{}
	if err := r.SetChildren(children); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Row) Children() []RowElement {
	return append([]RowElement(nil), r.children...)
}

// SetChildren replaces the row's children. The incoming list is validated on
// its own; if it exceeds grid capacity the previous children are kept and a
// *CapacityError is returned.
func (r *Row) SetChildren(children []RowElement) error {
	elems := make([]interface{}, len(children))
	for i, c := range children {
		elems[i] = c
	}
	if err := checkCapacity("row", elems); err != nil {
		return err
	}
	r.children = append([]RowElement(nil), children...)
	return nil
}

func (r *Row) columnElement() {}

// Column is a vertical slice of a row holding components and nested rows.
// A zero width means the enclosing row allocates it.
type Column struct {
	width    int
	children []ColumnElement
}

func NewColumn(width int, children ...ColumnElement) (*Column, error) {
	c := &Column{width: width}
	if err := c.SetChildren(children); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Column) Width() int {
	return c.width
}

func (c *Column) Children() []ColumnElement {
	return append([]ColumnElement(nil), c.children...)
}

// SetChildren replaces the column's children, validating the incoming list
// against grid capacity. Nested rows span the column and stay out of the
// width arithmetic; they still count toward the child limit.
func (c *Column) SetChildren(children []ColumnElement) error {
	elems := make([]interface{}, len(children))
	for i, ch := range children {
		elems[i] = ch
	}
	if err := checkCapacity("column", elems); err != nil {
		return err
	}
	c.children = append([]ColumnElement(nil), children...)
	return nil
}

func (c *Column) rowElement() {}

// elementWidth returns the declared width of a sized element, or -1 for a
// pass-through row.
func elementWidth(elem interface{}) int {
	switch e := elem.(type) {
	case *Row:
		return -1
	case *Column:
		return e.width
	case Component:
		return e.Width()
	}
	return -1
}

func checkCapacity(container string, elems []interface{}) error {
	if len(elems) > maxGridUnits {
		return &CapacityError{Container: container, Limit: "count", Count: len(elems)}
	}
	total := 0
	for _, elem := range elems {
		w := elementWidth(elem)
		switch {
		case w < 0: // nested row, spans the column
		case w == 0:
			total++ // auto width occupies at least one unit
		default:
			total += w
		}
	}
	if total > maxGridUnits {
		return &CapacityError{Container: container, Limit: "width", Count: len(elems), Width: total}
	}
	return nil
}

// allocateWidths computes the emitted width for each element of a container.
// Pass-through rows get -1. With no explicit widths the 12 units split
// evenly and the last element takes the remainder; with explicit widths the
// unset elements share the leftover and the last unset element absorbs any
// slack so the container totals exactly 12.
func allocateWidths(elems []interface{}) []int {
	widths := make([]int, len(elems))
	sized := 0
	widthSum := 0
	autoCount := 0
	for i, elem := range elems {
		w := elementWidth(elem)
		widths[i] = w
		if w < 0 {
			continue
		}
		sized++
		if w == 0 {
			autoCount++
		} else {
			widthSum += w
		}
	}
	if sized == 0 {
		return widths
	}

	if widthSum == 0 {
		// Equal split: 12/n each, remainder wholly on the last element.
		size := maxGridUnits / sized
		last := size + maxGridUnits%sized
		seen := 0
		for i := range widths {
			if widths[i] < 0 {
				continue
			}
			seen++
			if seen == sized {
				widths[i] = last
			} else {
				widths[i] = size
			}
		}
		return widths
	}

	if autoCount == 0 {
		return widths
	}
	def := (maxGridUnits - widthSum) / autoCount
	lastAuto := maxGridUnits - widthSum - def*(autoCount-1)
	seen := 0
	for i := range widths {
		if widths[i] != 0 {
			continue
		}
		seen++
		if seen == autoCount {
			widths[i] = lastAuto
		} else {
			widths[i] = def
		}
	}
	return widths
}

// encodeLayout serializes the grid into the layout grammar plus the flat
// component list the $N tokens index into. Selector components are appended
// after every positioned component, unreferenced by the layout string.
func encodeLayout(rows []*Row, selectors []Component) (string, []wireComponent, error) {
	var sb strings.Builder
	var comps []wireComponent
	for _, row := range rows {
		if err := appendRow(&sb, row, &comps); err != nil {
			return "", nil, err
		}
	}
	for _, sel := range selectors {
		wc, err := encodeComponent(sel)
		if err != nil {
			return "", nil, err
		}
		comps = append(comps, wc)
	}
	return sb.String(), comps, nil
}

func appendRow(sb *strings.Builder, row *Row, comps *[]wireComponent) error {
	sb.WriteByte('r')
	sb.WriteByte('(')
	elems := make([]interface{}, len(row.children))
	for i, c := range row.children {
		elems[i] = c
	}
	if err := appendElements(sb, elems, comps); err != nil {
		return err
	}
	sb.WriteByte(')')
	return nil
}

func appendElements(sb *strings.Builder, elems []interface{}, comps *[]wireComponent) error {
	widths := allocateWidths(elems)
	for i, elem := range elems {
		switch e := elem.(type) {
		case *Row:
			if err := appendRow(sb, e, comps); err != nil {
				return err
			}
		case *Column:
			sb.WriteByte('c')
			sb.WriteString(strconv.Itoa(widths[i]))
			sb.WriteByte('(')
			inner := make([]interface{}, len(e.children))
			for j, c := range e.children {
				inner[j] = c
			}
			if err := appendElements(sb, inner, comps); err != nil {
				return err
			}
			sb.WriteByte(')')
		case Component:
			wc, err := encodeComponent(e)
			if err != nil {
				return err
			}
			sb.WriteByte('c')
			sb.WriteString(strconv.Itoa(widths[i]))
			sb.WriteString("($")
			sb.WriteString(strconv.Itoa(len(*comps)))
			sb.WriteByte(')')
			*comps = append(*comps, wc)
		}
	}
	return nil
}

type layoutToken struct {
	text string
	pos  int
}

// splitTokens cuts s into balanced top-level tokens using a parenthesis
// depth counter. base is the offset of s within the full layout string, for
// error positions.
func splitTokens(s string, base int) ([]layoutToken, error) {
	var tokens []layoutToken
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return nil, decodeErrf(base+i, "unbalanced ')'")
			}
			if depth == 0 {
				tokens = append(tokens, layoutToken{text: s[start : i+1], pos: base + start})
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, decodeErrf(base+len(s), "unbalanced '(': %d unclosed", depth)
	}
	if start != len(s) {
		return nil, decodeErrf(base+start, "trailing token %q has no body", s[start:])
	}
	return tokens, nil
}

// parseLayout is the inverse of encodeLayout: it rebuilds the row tree from
// the layout string and the flat component list. Components never referenced
// by a $N token come back separately as selector components, in their
// original order.
func parseLayout(layout string, wires []wireComponent) ([]*Row, []Component, error) {
	referenced := make([]bool, len(wires))
	tokens, err := splitTokens(layout, 0)
	if err != nil {
		return nil, nil, err
	}

	var rows []*Row
	for _, tok := range tokens {
		if tok.text[0] != 'r' {
			return nil, nil, decodeErrf(tok.pos, "expected row token, got %q", tok.text)
		}
		elem, err := parseToken(tok, wires, referenced)
		if err != nil {
			return nil, nil, err
		}
		rows = append(rows, elem.(*Row))
	}

	var selectors []Component
	for i, w := range wires {
		if referenced[i] {
			continue
		}
		comp, err := decodeComponent(w, 0)
		if err != nil {
			return nil, nil, err
		}
		selectors = append(selectors, comp)
	}
	return rows, selectors, nil
}

// parseToken decodes one balanced token into a *Row, *Column or Component.
func parseToken(tok layoutToken, wires []wireComponent, referenced []bool) (interface{}, error) {
	open := strings.IndexByte(tok.text, '(')
	if open < 0 {
		return nil, decodeErrf(tok.pos, "token %q has no body", tok.text)
	}
	prefix := tok.text[:open]
	inner := tok.text[open+1 : len(tok.text)-1]

	switch prefix[0] {
	case 'r':
		if prefix != "r" {
			return nil, decodeErrf(tok.pos, "malformed row prefix %q", prefix)
		}
		elems, err := parseTokens(inner, tok.pos+open+1, wires, referenced)
		if err != nil {
			return nil, err
		}
		rowChildren := make([]RowElement, len(elems))
		for i, e := range elems {
			re, ok := e.(RowElement)
			if !ok {
				return nil, decodeErrf(tok.pos, "row may not directly contain another row")
			}
			rowChildren[i] = re
		}
		row, err := NewRow(rowChildren...)
		if err != nil {
			return nil, err
		}
		return row, nil
	case 'c':
		scale, err := strconv.Atoi(prefix[1:])
		if err != nil || scale < 1 || scale > maxGridUnits {
			return nil, decodeErrf(tok.pos, "malformed column width %q", prefix)
		}
		if strings.HasPrefix(inner, "$") {
			idx, err := strconv.Atoi(inner[1:])
			if err != nil {
				return nil, decodeErrf(tok.pos+open+1, "malformed component reference %q", inner)
			}
			if idx < 0 || idx >= len(wires) {
				return nil, decodeErrf(tok.pos+open+1, "component reference $%d out of range (%d components)", idx, len(wires))
			}
			comp, err := decodeComponent(wires[idx], scale)
			if err != nil {
				return nil, err
			}
			referenced[idx] = true
			return comp, nil
		}
		elems, err := parseTokens(inner, tok.pos+open+1, wires, referenced)
		if err != nil {
			return nil, err
		}
		colChildren := make([]ColumnElement, len(elems))
		for i, e := range elems {
			ce, ok := e.(ColumnElement)
			if !ok {
				return nil, decodeErrf(tok.pos, "column may not directly contain another column")
			}
			colChildren[i] = ce
		}
		col, err := NewColumn(scale, colChildren...)
		if err != nil {
			return nil, err
		}
		return col, nil
	default:
		return nil, decodeErrf(tok.pos, "unrecognized token %q", tok.text)
	}
}

func parseTokens(s string, base int, wires []wireComponent, referenced []bool) ([]interface{}, error) {
	tokens, err := splitTokens(s, base)
	if err != nil {
		return nil, err
	}
	elems := make([]interface{}, len(tokens))
	for i, tok := range tokens {
		elem, err := parseToken(tok, wires, referenced)
		if err != nil {
			return nil, err
		}
		elems[i] = elem
	}
	return elems, nil
}

// GridRow is one resolved band of a rendered workspace.
type GridRow struct {
	Cells []GridCell `json:"cells"`
}

// GridCell is a slot with its computed width. Component cells carry the kind
// and ID; column cells carry their nested rows.
type GridCell struct {
	Width int       `json:"width"`
	Kind  Kind      `json:"kind,omitempty"`
	ID    string    `json:"id,omitempty"`
	Rows  []GridRow `json:"rows,omitempty"`
}

func resolveGrid(rows []*Row) []GridRow {
	out := make([]GridRow, len(rows))
	for i, row := range rows {
		elems := make([]interface{}, len(row.children))
		for j, c := range row.children {
			elems[j] = c
		}
		out[i] = GridRow{Cells: resolveCells(elems)}
	}
	return out
}

func resolveCells(elems []interface{}) []GridCell {
	widths := allocateWidths(elems)
	cells := make([]GridCell, 0, len(elems))
	for i, elem := range elems {
		switch e := elem.(type) {
		case *Row:
			inner := make([]interface{}, len(e.children))
			for j, c := range e.children {
				inner[j] = c
			}
			cells = append(cells, GridCell{Width: maxGridUnits, Rows: []GridRow{{Cells: resolveCells(inner)}}})
		case *Column:
			inner := make([]interface{}, len(e.children))
			for j, c := range e.children {
				inner[j] = c
			}
			cells = append(cells, GridCell{Width: widths[i], Rows: groupColumnRows(inner)})
		case Component:
			cells = append(cells, GridCell{Width: widths[i], Kind: e.Kind(), ID: e.ID()})
		}
	}
	return cells
}

// groupColumnRows renders a column's children: nested rows become bands of
// their own, loose components form a single band in declaration order.
func groupColumnRows(elems []interface{}) []GridRow {
	var out []GridRow
	var loose []interface{}
	flush := func() {
		if len(loose) > 0 {
			out = append(out, GridRow{Cells: resolveCells(loose)})
			loose = nil
		}
	}
	for _, elem := range elems {
		if r, ok := elem.(*Row); ok {
			flush()
			inner := make([]interface{}, len(r.children))
			for j, c := range r.children {
				inner[j] = c
			}
			out = append(out, GridRow{Cells: resolveCells(inner)})
			continue
		}
		loose = append(loose, elem)
	}
	flush()
	return out
}
