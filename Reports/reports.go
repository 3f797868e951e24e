// Package Reports summarizes and exports the delivery queue.
package Reports

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"Lulan/Models"
)

const sheetName = "Deliveries"

type Summary struct {
	Total         int            `json:"total"`
	Urgent        int            `json:"urgent"`
	Normal        int            `json:"normal"`
	BySource      map[string]int `json:"by_source"`
	ByDestination map[string]int `json:"by_destination"`
	Items         int            `json:"items"`
}

func Summarize(tasks []Models.Task) Summary {
	summary := Summary{BySource: map[string]int{}, ByDestination: map[string]int{}}
	for _, task := range tasks {
		summary.Total++
		if task.IsUrgent() {
			summary.Urgent++
		} else {
			summary.Normal++
		}
		summary.BySource[task.Source]++
		summary.ByDestination[task.Destination]++
		summary.Items += len(task.Items)
	}
	return summary
}

// Workbook renders the queue as an xlsx file, one task per row.
func Workbook(tasks []Models.Task) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	headers := []string{"ID", "Priority", "Source", "Destination", "Items", "Requester", "Timestamp"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6E6FA"}, Pattern: 1},
	})
	if err == nil {
		f.SetRowStyle(sheetName, 1, 1, headerStyle)
	}
	urgentStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Color: "#E53935"}})
	if err != nil {
		urgentStyle = 0
	}

	for i, task := range tasks {
		row := i + 2
		values := []interface{}{
			task.ID,
			string(task.Priority),
			task.Source,
			task.Destination,
			strings.Join(task.Items, ", "),
			task.Requester,
			task.Timestamp,
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(sheetName, cell, value)
		}
		if task.IsUrgent() && urgentStyle != 0 {
			cell, _ := excelize.CoordinatesToCellName(2, row)
			f.SetCellStyle(sheetName, cell, cell, urgentStyle)
		}
	}

	f.SetColWidth(sheetName, "A", "G", 18)
	f.SetColWidth(sheetName, "E", "E", 40)

	if f.GetSheetName(0) != sheetName {
		f.DeleteSheet("Sheet1")
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("error writing Excel file to buffer: %v", err)
	}
	return &buf, nil
}
