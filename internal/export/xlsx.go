// Package export writes a location's delivery log as an .xlsx workbook.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/diewo77/go-deliveries/internal/ledger"
	"github.com/diewo77/go-deliveries/internal/models"
)

// SheetName is the worksheet holding the log.
const SheetName = "Deliveries"

// ContentType is the MIME type of the workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// headerRow is the row carrying the column titles; data follows it.
const headerRow = 5

// FileName returns the download name for a location's export.
func FileName(loc models.Location, today string) string {
	return fmt.Sprintf("deliveries-%d-%s.xlsx", loc.ID, today)
}

// WriteDeliveries writes the rows and totals of panel. Labels and dates
// follow f; amounts are stored as numbers.
func WriteDeliveries(w io.Writer, loc models.Location, panel ledger.PanelState, f ledger.Formatter) error {
	x := excelize.NewFile()
	defer x.Close()

	if err := x.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	bold, err := x.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("bold style: %w", err)
	}
	header, err := x.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	amountFmt := "#,##0.00"
	amount, err := x.NewStyle(&excelize.Style{CustomNumFmt: &amountFmt})
	if err != nil {
		return fmt.Errorf("amount style: %w", err)
	}

	set := func(cell string, v any) {
		if err == nil {
			err = x.SetCellValue(SheetName, cell, v)
		}
	}

	set("A1", loc.Name)
	set("A2", loc.Description())
	set("A3", f.T("filter_start"))
	set("B3", panel.Filter.Start)
	set("C3", f.T("filter_end"))
	set("D3", panel.Filter.End)

	headers := []string{"ID", f.T("delivered_at"), f.T("kg_delivered"), f.T("price")}
	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		set(fmt.Sprintf("%s%d", col, headerRow), h)
		if err == nil {
			err = x.SetColWidth(SheetName, col, col, 16)
		}
	}

	row := headerRow + 1
	for _, d := range panel.Deliveries {
		set(fmt.Sprintf("A%d", row), d.ID)
		set(fmt.Sprintf("B%d", row), f.Date(d.DeliveredAt))
		set(fmt.Sprintf("C%d", row), d.KgDelivered.InexactFloat64())
		set(fmt.Sprintf("D%d", row), d.Price.InexactFloat64())
		row++
	}
	last := row - 1

	row++
	totalPeriodRow := row
	set(fmt.Sprintf("A%d", row), f.T("total_period"))
	set(fmt.Sprintf("C%d", row), panel.TotalPeriod.InexactFloat64())
	row++
	set(fmt.Sprintf("A%d", row), f.T("total_all"))
	if panel.TotalAllFailed {
		set(fmt.Sprintf("C%d", row), "—")
	} else {
		set(fmt.Sprintf("C%d", row), panel.TotalAll.InexactFloat64())
	}
	if err != nil {
		return fmt.Errorf("write cells: %w", err)
	}

	styles := []struct {
		from, to string
		style    int
	}{
		{"A1", "A1", bold},
		{"A3", "A3", bold},
		{"C3", "C3", bold},
		{fmt.Sprintf("A%d", headerRow), fmt.Sprintf("D%d", headerRow), header},
		{fmt.Sprintf("A%d", totalPeriodRow), fmt.Sprintf("A%d", row), bold},
		{fmt.Sprintf("C%d", totalPeriodRow), fmt.Sprintf("C%d", row), amount},
	}
	if last > headerRow {
		styles = append(styles, struct {
			from, to string
			style    int
		}{fmt.Sprintf("C%d", headerRow+1), fmt.Sprintf("D%d", last), amount})
	}
	for _, s := range styles {
		if err := x.SetCellStyle(SheetName, s.from, s.to, s.style); err != nil {
			return fmt.Errorf("style %s: %w", s.from, err)
		}
	}

	if last > headerRow {
		ref := fmt.Sprintf("A%d:D%d", headerRow, last)
		if err := x.AutoFilter(SheetName, ref, []excelize.AutoFilterOptions{}); err != nil {
			return fmt.Errorf("auto filter: %w", err)
		}
	}

	if _, err := x.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
