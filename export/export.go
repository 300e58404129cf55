// Package export writes the analysis results to an xlsx workbook for
// sharing with people who do not have the dashboard running: a summary
// sheet, a listing of the filtered opportunities and one breakdown sheet
// per record carrying resource details.
package export

import (
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/ybalkhateeb/cntxt-delivery-analysis/analysis"
	"github.com/ybalkhateeb/cntxt-delivery-analysis/format"
	"github.com/ybalkhateeb/cntxt-delivery-analysis/opportunity"
)

// summarySheet and listingSheet name the two fixed workbook sheets.
const (
	summarySheet = "Summary"
	listingSheet = "Opportunities"
)

// listingHeader is the header row of the opportunities sheet.
var listingHeader = []string{
	"ID", "Customer", "Service", "Status", "Close Date", "Deal Value",
	"Delivery Quote", "Delivery Effort", "Partner", "Partner Quote",
	"Partner Effort", "Issue",
}

// Save builds the workbook for the filter and writes it to path.
func Save(engine *analysis.Engine, formatter *format.Formatter, filter analysis.Filter, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create export file %q: %w", path, err)
	}
	defer f.Close()
	if err := Write(engine, formatter, filter, f); err != nil {
		return err
	}
	return f.Close()
}

// Write builds the workbook for the filter and writes it to w.
func Write(engine *analysis.Engine, formatter *format.Formatter, filter analysis.Filter, w io.Writer) error {
	wb, err := build(engine, formatter, filter)
	if err != nil {
		return err
	}
	defer wb.Close()
	if _, err := wb.WriteTo(w); err != nil {
		return fmt.Errorf("workbook write error: %w", err)
	}
	return nil
}

// build assembles the workbook from the engine's evaluation of the filter.
func build(engine *analysis.Engine, formatter *format.Formatter, filter analysis.Filter) (*excelize.File, error) {

	result := engine.Evaluate(filter)

	wb := excelize.NewFile()

	// The default sheet becomes the summary sheet.
	if err := wb.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("summary sheet error: %w", err)
	}
	if err := writeSummary(wb, filter, result.Summary, formatter); err != nil {
		return nil, err
	}

	if err := writeListing(wb, result.Opportunities, formatter); err != nil {
		return nil, err
	}

	for _, o := range result.Opportunities {
		if !o.HasResourceDetails() {
			continue
		}
		if err := writeBreakdown(wb, o, formatter); err != nil {
			return nil, err
		}
	}

	return wb, nil
}

// writeSummary writes the filter description and headline statistics.
func writeSummary(wb *excelize.File, filter analysis.Filter, s analysis.Summary, formatter *format.Formatter) error {

	serviceType := filter.ServiceType
	if serviceType == "" {
		serviceType = analysis.AllServiceTypes
	}
	focus := "All Deals"
	if filter.KeyFocusOnly {
		focus = "Key Focus"
	}

	rows := [][2]string{
		{"Scope", focus},
		{"Service", serviceType},
		{"Delivery Pipeline", formatter.USD(&s.DeliveryPipeline)},
		{"Potential Loss", formatter.USD(&s.PotentialLoss)},
		{"Variance Deals", fmt.Sprintf("%d", s.VarianceDeals)},
		{"Avg Variance", formatter.Percent(s.AvgVariancePct)},
	}
	for i, row := range rows {
		if err := setRow(wb, summarySheet, i+1, []any{row[0], row[1]}); err != nil {
			return err
		}
	}
	return wb.SetColWidth(summarySheet, "A", "B", 22)
}

// writeListing writes one row per opportunity in subset order.
func writeListing(wb *excelize.File, opps []opportunity.Opportunity, formatter *format.Formatter) error {

	if _, err := wb.NewSheet(listingSheet); err != nil {
		return fmt.Errorf("listing sheet error: %w", err)
	}

	header := make([]any, len(listingHeader))
	for i, h := range listingHeader {
		header[i] = h
	}
	if err := setRow(wb, listingSheet, 1, header); err != nil {
		return err
	}

	for i, o := range opps {
		partner := ""
		if o.PartnerName != nil {
			partner = *o.PartnerName
		}
		issue := ""
		if o.IssueText != nil {
			issue = *o.IssueText
		}
		row := []any{
			o.ID,
			o.Customer,
			o.ServiceType,
			o.StatusLabel,
			o.CloseDate,
			o.DealValue,
			formatter.USD(o.DeliveryPrice),
			stringOr(o.DeliveryEffort, ""),
			partner,
			formatter.USD(o.PartnerPrice),
			stringOr(o.PartnerEffort, ""),
			issue,
		}
		if err := setRow(wb, listingSheet, i+2, row); err != nil {
			return err
		}
	}
	return wb.SetColWidth(listingSheet, "A", "L", 18)
}

// writeBreakdown writes the resource table of a single record to its own
// sheet, named by the record id.
func writeBreakdown(wb *excelize.File, o opportunity.Opportunity, formatter *format.Formatter) error {

	if _, err := wb.NewSheet(o.ID); err != nil {
		return fmt.Errorf("breakdown sheet %q error: %w", o.ID, err)
	}

	table := analysis.BuildResourceTable(o, formatter)

	if err := setRow(wb, o.ID, 1, []any{table.Title}); err != nil {
		return err
	}

	header := make([]any, len(table.Columns))
	for i, col := range table.Columns {
		header[i] = col.Header
	}
	if err := setRow(wb, o.ID, 2, header); err != nil {
		return err
	}

	rowNo := 3
	for _, row := range table.Rows {
		var cells []any
		if row.IsHeader() {
			cells = []any{row.Title}
		} else {
			cells = make([]any, len(row.Cells))
			for i, c := range row.Cells {
				cells[i] = c
			}
		}
		if err := setRow(wb, o.ID, rowNo, cells); err != nil {
			return err
		}
		rowNo++
	}

	lastCol, err := excelize.ColumnNumberToName(len(table.Columns))
	if err != nil {
		return err
	}
	return wb.SetColWidth(o.ID, "A", lastCol, 20)
}

// setRow writes the values along row rowNo starting at column A.
func setRow(wb *excelize.File, sheet string, rowNo int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNo)
	if err != nil {
		return err
	}
	if err := wb.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("sheet %q row %d error: %w", sheet, rowNo, err)
	}
	return nil
}

func stringOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
