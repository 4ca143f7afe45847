package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vinted-ledger/internal/extract"
	"vinted-ledger/internal/gmail"
	"vinted-ledger/internal/sheets"
)

type fakeMailbox struct {
	docs       map[string]gmail.Document
	listOrder  []string
	listErr    error
	labelErrs  map[string]error
	labeled    []string
	listCalls  int
	labelCalls int
}

func (m *fakeMailbox) ListMessageIDs(ctx context.Context, query string) ([]string, error) {
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.listOrder, nil
}

func (m *fakeMailbox) Document(ctx context.Context, id string) (gmail.Document, error) {
	doc, ok := m.docs[id]
	if !ok {
		return gmail.Document{}, fmt.Errorf("message %s: not found", id)
	}
	return doc, nil
}

func (m *fakeMailbox) EnsureLabel(ctx context.Context, name string) (string, error) {
	return "Label_" + name, nil
}

func (m *fakeMailbox) ApplyLabel(ctx context.Context, msgID, labelID string) error {
	m.labelCalls++
	if err := m.labelErrs[msgID]; err != nil {
		return err
	}
	m.labeled = append(m.labeled, msgID)
	return nil
}

type fakeAppender struct {
	entries []sheets.Entry
	calls   int
	err     error
}

func (a *fakeAppender) Reconcile(ctx context.Context, spreadsheetID string, spec sheets.TabSpec, entries []sheets.Entry) (int, error) {
	a.calls++
	a.entries = append(a.entries, entries...)
	if a.err != nil {
		return 0, a.err
	}
	return len(entries), nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// textCategory builds entries straight from the collapsed body text so tests
// control extraction outcomes through the fixture HTML.
func textCategory(id string) Category {
	return Category{
		Name:          extract.Category("test"),
		Query:         "subject:test",
		Label:         "test-label",
		SpreadsheetID: id,
		Spec:          sheets.TabSpec{FixedTitle: "Test", KeyColumn: -1, CheckboxColumn: -1},
		Build: func(text, receivedAt string) (sheets.Entry, bool) {
			if strings.Contains(text, "miss") {
				return sheets.Entry{}, false
			}
			return sheets.Entry{Cells: []interface{}{text}}, true
		},
	}
}

func htmlDoc(body string) gmail.Document {
	return gmail.Document{HTML: "<html><body>" + body + "</body></html>", ReceivedAt: "1710496800000"}
}

func TestRunSkipsMessagesWithoutHTML(t *testing.T) {
	mailbox := &fakeMailbox{
		listOrder: []string{"m1", "m2", "m3"},
		docs: map[string]gmail.Document{
			"m1": htmlDoc("one"),
			"m2": {HTML: "", ReceivedAt: "1710496800000"},
			"m3": htmlDoc("three"),
		},
	}
	appender := &fakeAppender{}
	o := New(mailbox, appender, []Category{textCategory("sheet-1")}, Options{BatchSize: 100}, testLogger())

	report, err := o.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Categories, 1)

	rep := report.Categories[0]
	assert.Equal(t, 3, rep.Listed)
	assert.Equal(t, 2, rep.Extracted)
	assert.Equal(t, 1, rep.Skipped)
	assert.Equal(t, 2, rep.Appended)
	assert.Equal(t, []string{"m1", "m3"}, mailbox.labeled)
}

func TestRunExtractionMissLeavesMessageUnlabeled(t *testing.T) {
	mailbox := &fakeMailbox{
		listOrder: []string{"m1", "m2"},
		docs: map[string]gmail.Document{
			"m1": htmlDoc("miss"),
			"m2": htmlDoc("hit"),
		},
	}
	appender := &fakeAppender{}
	o := New(mailbox, appender, []Category{textCategory("sheet-1")}, Options{BatchSize: 100}, testLogger())

	report, err := o.Run(context.Background())
	require.NoError(t, err)

	rep := report.Categories[0]
	assert.Equal(t, 1, rep.Extracted)
	assert.Equal(t, 1, rep.Skipped)
	assert.Equal(t, []string{"m2"}, mailbox.labeled)
	require.Len(t, appender.entries, 1)
}

func TestRunLabelFailureStillAppendsRecord(t *testing.T) {
	mailbox := &fakeMailbox{
		listOrder: []string{"m1", "m2"},
		docs: map[string]gmail.Document{
			"m1": htmlDoc("one"),
			"m2": htmlDoc("two"),
		},
		labelErrs: map[string]error{"m1": errors.New("modify denied")},
	}
	appender := &fakeAppender{}
	o := New(mailbox, appender, []Category{textCategory("sheet-1")}, Options{BatchSize: 100}, testLogger())

	report, err := o.Run(context.Background())
	require.NoError(t, err)

	rep := report.Categories[0]
	assert.Equal(t, 2, rep.Extracted)
	assert.Equal(t, 1, rep.Tagged)
	assert.Equal(t, 2, rep.Appended)
	assert.Len(t, appender.entries, 2)
}

func TestRunBatchSizeBoundsWorkAndReportsRemaining(t *testing.T) {
	docs := make(map[string]gmail.Document)
	var ids []string
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("m%d", i)
		ids = append(ids, id)
		docs[id] = htmlDoc(id)
	}
	mailbox := &fakeMailbox{listOrder: ids, docs: docs}
	appender := &fakeAppender{}
	o := New(mailbox, appender, []Category{textCategory("sheet-1")}, Options{BatchSize: 2}, testLogger())

	report, err := o.Run(context.Background())
	require.NoError(t, err)

	rep := report.Categories[0]
	assert.Equal(t, 5, rep.Listed)
	assert.Equal(t, 2, rep.Batched)
	assert.Equal(t, 3, rep.Remaining)
	assert.Equal(t, 3, report.TotalRemaining())
	assert.Len(t, appender.entries, 2)
}

func TestRunDryRunTouchesNothing(t *testing.T) {
	mailbox := &fakeMailbox{
		listOrder: []string{"m1"},
		docs:      map[string]gmail.Document{"m1": htmlDoc("one")},
	}
	appender := &fakeAppender{}
	o := New(mailbox, appender, []Category{textCategory("sheet-1")},
		Options{BatchSize: 100, DryRun: true}, testLogger())

	report, err := o.Run(context.Background())
	require.NoError(t, err)

	rep := report.Categories[0]
	assert.Equal(t, 1, rep.Extracted)
	assert.Equal(t, 0, rep.Tagged)
	assert.Equal(t, 0, rep.Appended)
	assert.Zero(t, mailbox.labelCalls)
	assert.Zero(t, appender.calls)
}

func TestRunCategoryFailureDoesNotStopOthers(t *testing.T) {
	good := textCategory("sheet-good")
	bad := textCategory("sheet-bad")
	bad.Query = "subject:bad"

	mailbox := &fakeMailbox{
		listOrder: []string{"m1"},
		docs:      map[string]gmail.Document{"m1": htmlDoc("one")},
	}
	failing := &fakeAppender{err: errors.New("quota exceeded")}

	// One appender fails every reconcile, so both categories error while
	// still both running to completion.
	o := New(mailbox, failing, []Category{bad, good}, Options{BatchSize: 100}, testLogger())
	report, err := o.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 of 2 categories failed")
	require.Len(t, report.Categories, 2)
	assert.Equal(t, 2, mailbox.listCalls)
	for _, rep := range report.Categories {
		assert.Contains(t, rep.Err, "quota exceeded")
	}
}

func TestRunSkipsCategoriesWithoutSpreadsheet(t *testing.T) {
	mailbox := &fakeMailbox{}
	appender := &fakeAppender{}
	disabled := textCategory("")
	o := New(mailbox, appender, []Category{disabled}, Options{BatchSize: 100}, testLogger())

	report, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Categories)
	assert.Zero(t, mailbox.listCalls)
}

func TestRunListFailureReportsCategoryError(t *testing.T) {
	mailbox := &fakeMailbox{listErr: errors.New("rate limited")}
	appender := &fakeAppender{}
	o := New(mailbox, appender, []Category{textCategory("sheet-1")}, Options{BatchSize: 100}, testLogger())

	report, err := o.Run(context.Background())
	require.Error(t, err)
	require.Len(t, report.Categories, 1)
	assert.Contains(t, report.Categories[0].Err, "rate limited")
	assert.Zero(t, appender.calls)
}
