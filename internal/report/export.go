package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Skufu/glucocheck/internal/assessment"
	"github.com/Skufu/glucocheck/internal/vitals"
)

// HistoryHeader is the column order of the CSV and XLSX history exports.
var HistoryHeader = []string{
	"Date", "Time", "Risk Level", "Probability", "BMI", "Glucose",
	"Blood Pressure", "Age", "Pregnancies", "Skin Thickness", "Insulin", "DPF",
}

var rowFields = []string{
	vitals.BMI, vitals.Glucose, vitals.BloodPressure, vitals.Age,
	vitals.Pregnancies, vitals.SkinThickness, vitals.Insulin, vitals.DPF,
}

const historySheet = "History"

func CSVFilename(now time.Time) string {
	return fmt.Sprintf("diabetes_assessment_history_%s.csv", now.Format("2006-01-02"))
}

func XLSXFilename(now time.Time) string {
	return fmt.Sprintf("diabetes_assessment_history_%s.xlsx", now.Format("2006-01-02"))
}

// historyRow formats rec in loc for the history exports.
func historyRow(rec assessment.Record, loc *time.Location) []string {
	ts := rec.Timestamp.In(loc)
	row := []string{
		ts.Format("01/02/2006"),
		ts.Format("3:04:05 PM"),
		Outcome(rec),
		assessment.FormatPercent(rec.Probability),
	}
	for _, f := range rowFields {
		row = append(row, vitals.FormatNumber(rec.Inputs.Get(f)))
	}
	return row
}

// WriteCSV writes the history export, header first, in history order.
func WriteCSV(w io.Writer, history []assessment.Record, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(HistoryHeader); err != nil {
		return err
	}
	for _, rec := range history {
		if err := cw.Write(historyRow(rec, loc)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the same rows as WriteCSV as a workbook with numeric
// cells for the inputs.
func WriteXLSX(w io.Writer, history []assessment.Record, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(historySheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for col, h := range HistoryHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(historySheet, cell, h); err != nil {
			return fmt.Errorf("set header %s: %w", cell, err)
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(HistoryHeader), 1)
	if err := f.SetCellStyle(historySheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for r, rec := range history {
		row := historyRow(rec, loc)
		values := make([]any, 0, len(row))
		for c, v := range row {
			if c < 4 {
				values = append(values, v)
				continue
			}
			values = append(values, rec.Inputs.Get(rowFields[c-4]))
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(historySheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", r+2, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
