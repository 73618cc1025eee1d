package report

import (
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	statementSheet = "Statement"
	noTransactions = "No transactions"
	// StatementContentType is the MIME type of the rendered workbook.
	StatementContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var statementHeader = []any{"Date", "Transaction Amounts", "Total Amount"}

type statementDay struct {
	date    time.Time
	amounts []int64
	total   int64
}

func renderStatement(month time.Time, days []statementDay) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", statementSheet); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	title, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, err
	}

	steps := []func() error{
		func() error { return f.SetCellValue(statementSheet, "A1", "Monthly Transactions Statement") },
		func() error { return f.MergeCell(statementSheet, "A1", "C1") },
		func() error { return f.SetCellStyle(statementSheet, "A1", "C1", title) },
		func() error { return f.SetCellValue(statementSheet, "A2", "Expenses for "+month.Format("January 2006")) },
		func() error { return f.MergeCell(statementSheet, "A2", "C2") },
		func() error { return f.SetCellStyle(statementSheet, "A2", "C2", bold) },
		func() error { return f.SetSheetRow(statementSheet, "A3", &statementHeader) },
		func() error { return f.SetCellStyle(statementSheet, "A3", "C3", bold) },
		func() error { return f.SetColWidth(statementSheet, "A", "A", 15) },
		func() error { return f.SetColWidth(statementSheet, "B", "B", 30) },
		func() error { return f.SetColWidth(statementSheet, "C", "C", 15) },
	}

	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}

	for i, d := range days {
		cell, err := excelize.CoordinatesToCellName(1, i+4)
		if err != nil {
			return nil, err
		}

		row := []any{d.date.Format(dayKey), joinAmounts(d.amounts), d.total}
		if err := f.SetSheetRow(statementSheet, cell, &row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func joinAmounts(amounts []int64) string {
	if len(amounts) == 0 {
		return noTransactions
	}

	parts := make([]string, len(amounts))
	for i, a := range amounts {
		parts[i] = strconv.FormatInt(a, 10)
	}

	return strings.Join(parts, ", ")
}
