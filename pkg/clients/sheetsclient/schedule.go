package sheetsclient

import (
	"fmt"
	"time"
)

const (
	dateHeader = "Date"
	noteHeader = "Holiday"
	// rows above the header are left free for a title
	headerRow = 2
)

// PublishedScheduleRow is one day of a published schedule
type PublishedScheduleRow struct {
	Date    time.Time
	Holiday string   // holiday description, empty on ordinary days
	Cells   []string // one employee name per column, empty when unfilled
}

// PublishedSchedule is a date by duty-shift grid
type PublishedSchedule struct {
	Start   time.Time
	End     time.Time
	Columns []string
	Rows    []PublishedScheduleRow
}

// TabTitle names the tab a schedule is published to, e.g. "Mon Jan 01 2024 - Wed Jan 31 2024"
func (s *PublishedSchedule) TabTitle() string {
	return fmt.Sprintf("%s - %s", s.Start.Format("Mon Jan 02 2006"), s.End.Format("Mon Jan 02 2006"))
}

// PublishSchedule writes a schedule to its own tab. A new tab is created when
// missing. When the tab exists, the generated columns are overwritten and any
// columns a user added after them are kept, matched by date.
func (c *Client) PublishSchedule(spreadsheetID string, schedule *PublishedSchedule) error {
	title := schedule.TabTitle()

	exists, err := c.sheetExists(spreadsheetID, title)
	if err != nil {
		return err
	}

	var existing [][]interface{}
	if exists {
		existing, err = c.GetValues(spreadsheetID, fmt.Sprintf("%s!A1:ZZ", title))
		if err != nil {
			return fmt.Errorf("failed to read existing tab data: %w", err)
		}
	} else if _, err := c.CreateSheet(spreadsheetID, title); err != nil {
		return fmt.Errorf("failed to create tab: %w", err)
	}

	if err := c.UpdateValues(spreadsheetID, fmt.Sprintf("%s!A1", title), buildGrid(schedule, existing)); err != nil {
		return fmt.Errorf("failed to write schedule tab: %w", err)
	}
	return nil
}

// buildGrid lays out the schedule below headerRow empty rows. Extra columns
// found in existing, to the right of the generated ones, are carried over.
func buildGrid(schedule *PublishedSchedule, existing [][]interface{}) [][]interface{} {
	generated := 2 + len(schedule.Columns)

	var extraHeader []interface{}
	extraByDate := make(map[string][]interface{})
	if len(existing) > headerRow {
		oldHeader := existing[headerRow]
		oldGenerated := generatedWidth(oldHeader)
		if len(oldHeader) > oldGenerated {
			extraHeader = oldHeader[oldGenerated:]
			for _, row := range existing[headerRow+1:] {
				if len(row) <= oldGenerated {
					continue
				}
				if date, ok := row[0].(string); ok {
					extraByDate[date] = row[oldGenerated:]
				}
			}
		}
	}

	grid := make([][]interface{}, 0, headerRow+1+len(schedule.Rows))
	for i := 0; i < headerRow; i++ {
		grid = append(grid, []interface{}{})
	}

	header := make([]interface{}, 0, generated+len(extraHeader))
	header = append(header, dateHeader)
	for _, col := range schedule.Columns {
		header = append(header, col)
	}
	header = append(header, noteHeader)
	header = append(header, extraHeader...)
	grid = append(grid, header)

	for _, row := range schedule.Rows {
		date := row.Date.Format("Mon Jan 02 2006")
		line := make([]interface{}, 0, len(header))
		line = append(line, date)
		for i := range schedule.Columns {
			cell := ""
			if i < len(row.Cells) {
				cell = row.Cells[i]
			}
			line = append(line, cell)
		}
		line = append(line, row.Holiday)
		if extra, ok := extraByDate[date]; ok {
			line = append(line, extra...)
		}
		grid = append(grid, line)
	}
	return grid
}

// generatedWidth finds how many leading columns of an old header were written
// by PublishSchedule: everything up to and including the holiday column
func generatedWidth(header []interface{}) int {
	for i, cell := range header {
		if s, ok := cell.(string); ok && s == noteHeader {
			return i + 1
		}
	}
	return len(header)
}
