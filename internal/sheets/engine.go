// Package sheets contains the reconciliation/append engine and the Google
// Sheets client behind it. The engine turns extracted entries into appended
// rows with effectively-once semantics: duplicate keys are filtered against
// the tab's identifier column, the trailing TOTAL row is rewritten on every
// pass, and the checkbox validation range is resized to the data extent.
package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"vinted-ledger/internal/normalize"
)

// Entry is one extracted record reduced to what the engine needs: the cells
// to append, the date that buckets and orders it, and the dedup key (empty
// for categories without an identifier column).
type Entry struct {
	Date    time.Time
	HasDate bool
	Key     string
	Cells   []interface{}
}

// TabSpec is the fixed per-category sheet layout. Column indexes are
// 0-based and positional against Header; they must stay in sync with the
// row builders or dedup and validation land on the wrong columns.
type TabSpec struct {
	Category string
	Header   []string

	// KeyColumn is the dedup identifier column, -1 when the category has
	// none and relies solely on the mailbox label to prevent reprocessing.
	KeyColumn int

	// SumColumns receive native =SUM formulas in the TOTAL row. Empty
	// means the tab carries no totals row at all.
	SumColumns []int

	// CheckboxColumn gets a boolean validation rule across the data rows,
	// -1 when the layout has no verified column.
	CheckboxColumn int

	// MonthTabbed tabs are named after the entry's month ("mars 2024");
	// otherwise every entry goes to FixedTitle. UndatedTitle is where
	// dateless entries of a month-tabbed category land ("" drops them).
	MonthTabbed  bool
	FixedTitle   string
	UndatedTitle string
}

// API is the spreadsheet transport the engine drives. Row indexes are
// 0-based grid coordinates; ReadColumn returns the cell values of one column
// starting at row 2 (the first data row), ReadRows the full-width data rows
// from the same point.
type API interface {
	EnsureTab(ctx context.Context, spreadsheetID, title string, header []string) (int64, error)
	ReadColumn(ctx context.Context, spreadsheetID, title string, column int) ([]string, error)
	ReadRows(ctx context.Context, spreadsheetID, title string) ([][]string, error)
	AppendRows(ctx context.Context, spreadsheetID, title string, rows [][]interface{}) error
	DeleteRow(ctx context.Context, spreadsheetID string, sheetID, rowIndex int64) error
	SetCheckboxValidation(ctx context.Context, spreadsheetID string, sheetID, startRow, endRow, column int64) error
}

// Engine reconciles extracted entries into spreadsheet rows.
type Engine struct {
	api    API
	logger *slog.Logger
}

func NewEngine(api API, logger *slog.Logger) *Engine {
	return &Engine{api: api, logger: logger}
}

// Reconcile groups entries into tabs, filters out already-present keys,
// appends the survivors in date order and maintains the TOTAL row and
// checkbox validation of each touched tab. It returns the number of data
// rows appended. A failing tab aborts the remaining ones; tabs already
// written stay committed.
func (e *Engine) Reconcile(ctx context.Context, spreadsheetID string, spec TabSpec, entries []Entry) (int, error) {
	buckets := make(map[string][]Entry)
	var order []string
	for _, entry := range entries {
		title, ok := e.bucketTitle(spec, entry)
		if !ok {
			e.logger.Warn("dropping undated entry", "category", spec.Category)
			continue
		}
		if _, seen := buckets[title]; !seen {
			order = append(order, title)
		}
		buckets[title] = append(buckets[title], entry)
	}

	appended := 0
	for _, title := range order {
		n, err := e.reconcileTab(ctx, spreadsheetID, spec, title, buckets[title])
		appended += n
		if err != nil {
			return appended, fmt.Errorf("tab %q: %w", title, err)
		}
		e.logger.Info("tab reconciled", "category", spec.Category, "tab", title, "appended", n)
	}
	return appended, nil
}

func (e *Engine) bucketTitle(spec TabSpec, entry Entry) (string, bool) {
	if !spec.MonthTabbed {
		return spec.FixedTitle, true
	}
	if entry.HasDate {
		return normalize.MonthLabel(entry.Date), true
	}
	if spec.UndatedTitle != "" {
		return spec.UndatedTitle, true
	}
	return "", false
}

func (e *Engine) reconcileTab(ctx context.Context, spreadsheetID string, spec TabSpec, title string, entries []Entry) (int, error) {
	sheetID, err := e.api.EnsureTab(ctx, spreadsheetID, title, spec.Header)
	if err != nil {
		return 0, fmt.Errorf("ensure tab: %w", err)
	}

	known := make(map[string]struct{})
	if spec.KeyColumn >= 0 {
		keys, err := e.api.ReadColumn(ctx, spreadsheetID, title, spec.KeyColumn)
		if err != nil {
			return 0, fmt.Errorf("read key column: %w", err)
		}
		for _, k := range keys {
			if k != "" {
				known[k] = struct{}{}
			}
		}
	}

	var fresh []Entry
	for _, entry := range entries {
		if entry.Key != "" {
			if _, dup := known[entry.Key]; dup {
				e.logger.Info("skipping duplicate", "category", spec.Category, "tab", title, "key", entry.Key)
				continue
			}
			known[entry.Key] = struct{}{}
		}
		fresh = append(fresh, entry)
	}

	// Ascending by date, dateless rows last; stable so equal dates keep
	// their extraction order.
	sort.SliceStable(fresh, func(i, j int) bool {
		if fresh[i].HasDate != fresh[j].HasDate {
			return fresh[i].HasDate
		}
		return fresh[i].Date.Before(fresh[j].Date)
	})

	if len(fresh) > 0 {
		rows := make([][]interface{}, len(fresh))
		for i, entry := range fresh {
			rows[i] = entry.Cells
		}
		if err := e.api.AppendRows(ctx, spreadsheetID, title, rows); err != nil {
			return 0, fmt.Errorf("append rows: %w", err)
		}
	}

	dataRows, err := e.refreshTotals(ctx, spreadsheetID, spec, title, sheetID)
	if err != nil {
		return len(fresh), err
	}

	if spec.CheckboxColumn >= 0 && dataRows > 0 {
		err := e.api.SetCheckboxValidation(ctx, spreadsheetID, sheetID, 1, int64(1+dataRows), int64(spec.CheckboxColumn))
		if err != nil {
			return len(fresh), fmt.Errorf("set checkbox validation: %w", err)
		}
	}

	return len(fresh), nil
}

// refreshTotals deletes any existing TOTAL row, then appends a fresh one
// with native SUM formulas spanning the current data extent, so the sheet
// recomputes if edited by hand. Returns the number of data rows.
//
// The extent is measured over full-width rows, not the date column alone:
// "Sans date" rows have an empty date cell, and the values API trims
// trailing empty cells, so a single-column read would miss them entirely.
func (e *Engine) refreshTotals(ctx context.Context, spreadsheetID string, spec TabSpec, title string, sheetID int64) (int, error) {
	rows, err := e.api.ReadRows(ctx, spreadsheetID, title)
	if err != nil {
		return 0, fmt.Errorf("read data rows: %w", err)
	}

	totalIdx := -1
	for i, row := range rows {
		if len(row) > 0 && strings.Contains(strings.ToUpper(row[0]), "TOTAL") {
			totalIdx = i
			break
		}
	}
	if totalIdx >= 0 {
		// rows start at sheet row 2 == grid index 1.
		if err := e.api.DeleteRow(ctx, spreadsheetID, sheetID, int64(totalIdx+1)); err != nil {
			return 0, fmt.Errorf("delete total row: %w", err)
		}
		rows = append(rows[:totalIdx], rows[totalIdx+1:]...)
	}

	dataRows := 0
	for _, row := range rows {
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				dataRows++
				break
			}
		}
	}

	if len(spec.SumColumns) == 0 || dataRows == 0 {
		return dataRows, nil
	}

	lastRow := 1 + dataRows
	total := make([]interface{}, len(spec.Header))
	for i := range total {
		total[i] = ""
	}
	total[0] = "TOTAL"
	for _, c := range spec.SumColumns {
		l := columnLetter(c)
		total[c] = fmt.Sprintf("=SUM(%s2:%s%d)", l, l, lastRow)
	}
	if err := e.api.AppendRows(ctx, spreadsheetID, title, [][]interface{}{total}); err != nil {
		return dataRows, fmt.Errorf("append total row: %w", err)
	}
	return dataRows, nil
}

// columnLetter converts a 0-based column index to its A1 letter.
func columnLetter(col int) string {
	s := ""
	for col >= 0 {
		s = string(rune('A'+col%26)) + s
		col = col/26 - 1
	}
	return s
}
