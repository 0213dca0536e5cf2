// Package export renders roster data as spreadsheet workbooks.
package export

import (
	"io"
	"sort"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"workforce/backend/internal/entity"
)

const (
	rosterSheet  = "Roster"
	summarySheet = "Summary"
)

var rosterHeaders = []string{"Shift ID", "Staff ID", "Full Name", "Work Day", "Start", "End", "Hours"}

// Roster writes shifts to w as an xlsx workbook with one row per shift and a
// summary sheet of total hours per staff member. names maps staff ids to
// full names; missing names are left blank.
func Roster(w io.Writer, shifts []entity.Shift, names map[int]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", rosterSheet); err != nil {
		return errors.Wrap(err, "naming roster sheet")
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.Wrap(err, "creating header style")
	}

	if err := writeRow(f, rosterSheet, 1, toCells(rosterHeaders)); err != nil {
		return err
	}
	if err := f.SetCellStyle(rosterSheet, "A1", "G1", bold); err != nil {
		return errors.Wrap(err, "styling roster header")
	}

	totals := map[int]float64{}
	for i, s := range shifts {
		row := []interface{}{
			s.ID,
			s.StaffID,
			names[s.StaffID],
			s.WorkDay.Format("2006-01-02"),
			s.StartTime,
			s.EndTime,
			s.DurationHours,
		}
		if err := writeRow(f, rosterSheet, i+2, row); err != nil {
			return err
		}
		totals[s.StaffID] += s.DurationHours
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return errors.Wrap(err, "creating summary sheet")
	}
	if err := writeRow(f, summarySheet, 1, toCells([]string{"Staff ID", "Full Name", "Total Hours"})); err != nil {
		return err
	}
	if err := f.SetCellStyle(summarySheet, "A1", "C1", bold); err != nil {
		return errors.Wrap(err, "styling summary header")
	}

	ids := make([]int, 0, len(totals))
	for id := range totals {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for i, id := range ids {
		if err := writeRow(f, summarySheet, i+2, []interface{}{id, names[id], totals[id]}); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(rosterSheet, "C", "C", 28); err != nil {
		return errors.Wrap(err, "sizing roster columns")
	}

	if err := f.Write(w); err != nil {
		return errors.Wrap(err, "writing workbook")
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return errors.Wrap(err, "cell name")
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return errors.Wrapf(err, "setting %s!%s", sheet, cell)
		}
	}
	return nil
}

func toCells(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
