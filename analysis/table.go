package analysis

// table.go builds the renderable model for an opportunity's resource
// breakdown table: resolved columns, grouped rows with section headers, and
// a synthesized totals row where the data does not supply its own.

import (
	"github.com/ybalkhateeb/cntxt-delivery-analysis/opportunity"
)

// placeholder is rendered for absent values outside the numeric formats.
const placeholder = "-"

// generalSection names the group for rows without a section when at least
// one other row is sectioned.
const generalSection = "General"

// defaultTableTitle is used when the record does not name its table.
const defaultTableTitle = "Resource & Effort Breakdown"

// CellFormatter is the formatting contract the table builder consumes. A
// nil amount must render a zero-equivalent or placeholder, never fail.
type CellFormatter interface {
	USD(v *float64) string
	SAR(v *float64) string
	Dual(v *float64) string
	Number(v *float64) string
}

// numericRenderers dispatches a column format to its formatter. Formats
// outside this table render as text.
var numericRenderers = map[opportunity.ColumnFormat]func(CellFormatter, *float64) string{
	opportunity.FormatCurrency: func(f CellFormatter, v *float64) string { return f.USD(v) },
	opportunity.FormatSAR:      func(f CellFormatter, v *float64) string { return f.SAR(v) },
	opportunity.FormatDual:     func(f CellFormatter, v *float64) string { return f.Dual(v) },
	opportunity.FormatNumber:   func(f CellFormatter, v *float64) string { return f.Number(v) },
}

// totalKeys is the allow-list of row fields summed into the synthesized
// totals row.
var totalKeys = map[string]bool{
	"totalPrice":  true,
	"marginPrice": true,
	"sureTotal":   true,
	"cntxtTotal":  true,
	"price":       true,
	"costPerRole": true,
}

// RowKind distinguishes the three row shapes in a built table.
type RowKind int

const (
	// RowItem is a rendered line item.
	RowItem RowKind = iota
	// RowHeader is a synthetic section header spanning all columns.
	RowHeader
	// RowTotal is the synthesized trailing totals row.
	RowTotal
)

// TableRow is one renderable row. Header rows carry only a Title; item and
// total rows carry one rendered cell per column.
type TableRow struct {
	Kind    RowKind
	Title   string
	Cells   []string
	Summary bool // data-supplied subtotal, styled like a total
}

// IsHeader reports whether the row is a section header, for templates.
func (r TableRow) IsHeader() bool {
	return r.Kind == RowHeader
}

// IsTotal reports whether the row should be styled as a total, for
// templates.
func (r TableRow) IsTotal() bool {
	return r.Kind == RowTotal || r.Summary
}

// ResourceTable is the complete rendering model for one opportunity's
// resource breakdown.
type ResourceTable struct {
	Title   string
	Columns []opportunity.TableColumnDef
	Rows    []TableRow
}

// DefaultColumns returns the four-column projection used when a record does
// not override its table layout.
func DefaultColumns() []opportunity.TableColumnDef {
	return []opportunity.TableColumnDef{
		{Header: "Role", Key: "role", Format: opportunity.FormatText},
		{Header: "Seniority / Qty", Key: "seniority", Format: opportunity.FormatText},
		{Header: "Est. Effort (FTE Days)", Key: "fteDays", Format: opportunity.FormatNumber},
		{Header: "Total Cost", Key: "totalPrice", Format: opportunity.FormatCurrency},
	}
}

// ResolveColumns returns the record's column override when present,
// otherwise the default projection.
func ResolveColumns(o opportunity.Opportunity) []opportunity.TableColumnDef {
	if len(o.ResourceColumns) > 0 {
		return o.ResourceColumns
	}
	return DefaultColumns()
}

// BuildResourceTable produces the rendering model for the record's resource
// breakdown. Rebuilding with identical inputs produces a structurally equal
// table.
func BuildResourceTable(o opportunity.Opportunity, f CellFormatter) ResourceTable {
	table := ResourceTable{
		Title:   o.ResourceTableTitle,
		Columns: ResolveColumns(o),
	}
	if table.Title == "" {
		table.Title = defaultTableTitle
	}

	hasSummaryRow := false
	for _, row := range o.ResourceDetails {
		if row.Summary {
			hasSummaryRow = true
			break
		}
	}

	for _, row := range orderRows(o.ResourceDetails) {
		if row.header != "" {
			table.Rows = append(table.Rows, TableRow{Kind: RowHeader, Title: row.header})
			continue
		}
		item := TableRow{
			Kind:    RowItem,
			Cells:   make([]string, len(table.Columns)),
			Summary: row.row.Summary,
		}
		for i, col := range table.Columns {
			item.Cells[i] = renderCell(row.row, col, f)
		}
		table.Rows = append(table.Rows, item)
	}

	// A data-supplied summary row suppresses the synthesized totals row so
	// subtotals are not double counted.
	if len(o.ResourceDetails) > 0 && !hasSummaryRow {
		table.Rows = append(table.Rows, totalsRow(o.ResourceDetails, table.Columns, f))
	}
	return table
}

// orderedRow is either a section header (header != "") or a line item.
type orderedRow struct {
	header string
	row    opportunity.ResourceRow
}

// orderRows applies the grouping rule: when no row carries a section the
// sequence is unchanged; otherwise rows are partitioned by section in
// first-seen order (section-less rows under "General"), each group preceded
// by a header and keeping its rows in original relative order.
func orderRows(rows []opportunity.ResourceRow) []orderedRow {
	hasSections := false
	for _, r := range rows {
		if r.Section != "" {
			hasSections = true
			break
		}
	}

	ordered := make([]orderedRow, 0, len(rows))
	if !hasSections {
		for _, r := range rows {
			ordered = append(ordered, orderedRow{row: r})
		}
		return ordered
	}

	var sections []string
	groups := map[string][]opportunity.ResourceRow{}
	for _, r := range rows {
		section := r.Section
		if section == "" {
			section = generalSection
		}
		if _, ok := groups[section]; !ok {
			sections = append(sections, section)
		}
		groups[section] = append(groups[section], r)
	}
	for _, section := range sections {
		ordered = append(ordered, orderedRow{header: section})
		for _, r := range groups[section] {
			ordered = append(ordered, orderedRow{row: r})
		}
	}
	return ordered
}

// renderCell renders one (row, column) cell.
func renderCell(row opportunity.ResourceRow, col opportunity.TableColumnDef, f CellFormatter) string {
	label, hasLabel := row.Label(col.Key)
	num, hasNum := row.Number(col.Key)

	// The default "Seniority / Qty" column shows a quantity when the row has
	// no seniority.
	if col.Key == "seniority" && label == "" && !hasNum {
		if qty, ok := row.Number("qty"); ok {
			return "Qty: " + f.Number(&qty)
		}
	}

	// An explicitly blank value (key present, empty string) renders empty,
	// unlike a missing one.
	if hasLabel && label == "" {
		return ""
	}

	if render, ok := numericRenderers[col.Format]; ok {
		if hasNum {
			return render(f, &num)
		}
		// A textual value under a numeric column (eg an effort recorded as
		// "12 weeks") renders as given.
		if hasLabel {
			return label
		}
		return render(f, nil)
	}

	// Text and unspecified formats.
	switch {
	case hasLabel:
		return label
	case hasNum:
		return f.Number(&num)
	default:
		return placeholder
	}
}

// totalsRow synthesizes the trailing totals row. Allow-listed columns sum
// their field over non-summary rows (missing values as 0) and render in the
// column's denomination; the first column carries the literal "Total" and
// all other columns are empty.
func totalsRow(rows []opportunity.ResourceRow, columns []opportunity.TableColumnDef, f CellFormatter) TableRow {
	total := TableRow{
		Kind:  RowTotal,
		Cells: make([]string, len(columns)),
	}
	for i, col := range columns {
		if i == 0 {
			total.Cells[i] = "Total"
			continue
		}
		if !totalKeys[col.Key] {
			total.Cells[i] = ""
			continue
		}
		var sum float64
		for _, r := range rows {
			if r.Summary {
				continue
			}
			if v, ok := r.Number(col.Key); ok {
				sum += v
			}
		}
		if col.Format == opportunity.FormatSAR {
			total.Cells[i] = f.SAR(&sum)
		} else {
			total.Cells[i] = f.USD(&sum)
		}
	}
	return total
}
