package sheets

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

// Client is the Google Sheets implementation of the engine's API. It is
// constructed once per run with an authenticated HTTP client and passed in;
// no credentials are read inside the methods.
type Client struct {
	svc *sheetsapi.Service
}

func NewClient(ctx context.Context, httpClient *http.Client) (*Client, error) {
	svc, err := sheetsapi.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// EnsureTab returns the sheet ID of the tab with the given title, creating
// it and writing the header row when it does not exist. Lookup is literal
// title equality.
func (c *Client) EnsureTab(ctx context.Context, spreadsheetID, title string, header []string) (int64, error) {
	meta, err := c.svc.Spreadsheets.Get(spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sh := range meta.Sheets {
		if sh.Properties != nil && sh.Properties.Title == title {
			return sh.Properties.SheetId, nil
		}
	}

	resp, err := c.svc.Spreadsheets.BatchUpdate(spreadsheetID, &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			AddSheet: &sheetsapi.AddSheetRequest{
				Properties: &sheetsapi.SheetProperties{Title: title},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("add sheet %q: %w", title, err)
	}
	sheetID := resp.Replies[0].AddSheet.Properties.SheetId

	headerRow := make([]interface{}, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	_, err = c.svc.Spreadsheets.Values.Update(spreadsheetID, rangeA1(title, "A1"), &sheetsapi.ValueRange{
		Values: [][]interface{}{headerRow},
	}).ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("write header for %q: %w", title, err)
	}
	return sheetID, nil
}

// ReadColumn reads one column from row 2 downward as strings.
func (c *Client) ReadColumn(ctx context.Context, spreadsheetID, title string, column int) ([]string, error) {
	l := columnLetter(column)
	rng := rangeA1(title, fmt.Sprintf("%s2:%s", l, l))
	resp, err := c.svc.Spreadsheets.Values.Get(spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	values := make([]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		if len(row) == 0 {
			values = append(values, "")
			continue
		}
		values = append(values, fmt.Sprint(row[0]))
	}
	return values, nil
}

// ReadRows reads the full-width data rows from row 2 downward as strings.
// The API trims trailing empty cells and rows from the result, so rows whose
// leading cells are empty (undated entries) still come back as long as any
// cell holds a value.
func (c *Client) ReadRows(ctx context.Context, spreadsheetID, title string) ([][]string, error) {
	rng := rangeA1(title, "A2:ZZ")
	resp, err := c.svc.Spreadsheets.Values.Get(spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	rows := make([][]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = fmt.Sprint(v)
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

// AppendRows appends rows after the last non-empty row of the tab, with
// USER_ENTERED input so localized numbers and SUM formulas are interpreted
// the way manual entry would be.
func (c *Client) AppendRows(ctx context.Context, spreadsheetID, title string, rows [][]interface{}) error {
	_, err := c.svc.Spreadsheets.Values.Append(spreadsheetID, rangeA1(title, "A1"), &sheetsapi.ValueRange{
		Values: rows,
	}).ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to %q: %w", title, err)
	}
	return nil
}

// DeleteRow removes one row by 0-based grid index, shifting the rows below
// it up.
func (c *Client) DeleteRow(ctx context.Context, spreadsheetID string, sheetID, rowIndex int64) error {
	_, err := c.svc.Spreadsheets.BatchUpdate(spreadsheetID, &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			DeleteDimension: &sheetsapi.DeleteDimensionRequest{
				Range: &sheetsapi.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: rowIndex,
					EndIndex:   rowIndex + 1,
				},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("delete row %d: %w", rowIndex, err)
	}
	return nil
}

// SetCheckboxValidation applies a strict boolean rule over [startRow, endRow)
// of one column, rendering checkboxes on exactly the current data rows.
func (c *Client) SetCheckboxValidation(ctx context.Context, spreadsheetID string, sheetID, startRow, endRow, column int64) error {
	_, err := c.svc.Spreadsheets.BatchUpdate(spreadsheetID, &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			SetDataValidation: &sheetsapi.SetDataValidationRequest{
				Range: &sheetsapi.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    startRow,
					EndRowIndex:      endRow,
					StartColumnIndex: column,
					EndColumnIndex:   column + 1,
				},
				Rule: &sheetsapi.DataValidationRule{
					Condition:    &sheetsapi.BooleanCondition{Type: "BOOLEAN"},
					Strict:       true,
					ShowCustomUi: true,
				},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("set checkbox validation: %w", err)
	}
	return nil
}

func rangeA1(title, cells string) string {
	return fmt.Sprintf("'%s'!%s", title, cells)
}
