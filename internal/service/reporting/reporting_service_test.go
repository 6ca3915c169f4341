package reporting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/costquote/internal/domain/models"
)

var fixedNow = time.Date(2024, 6, 14, 20, 0, 0, 0, time.UTC)

type fakeQuotes struct {
	expiring *models.ExpiringQuotations
	report   *models.ProfitAnalysisReport
	err      error
	days     int
}

func (f *fakeQuotes) Expiring(_ context.Context, days int) (*models.ExpiringQuotations, error) {
	f.days = days
	return f.expiring, f.err
}

func (f *fakeQuotes) ProfitAnalysis(context.Context, *time.Time, *time.Time) (*models.ProfitAnalysisReport, error) {
	return f.report, f.err
}

type fakeSheets struct {
	appended map[string][][]interface{}
	written  map[string][][]interface{}
	cleared  []string
	existing [][]interface{}
}

func newFakeSheets() *fakeSheets {
	return &fakeSheets{appended: map[string][][]interface{}{}, written: map[string][][]interface{}{}}
}

func (f *fakeSheets) WriteRow(_ context.Context, sheetRange string, values []interface{}) error {
	f.appended[sheetRange] = append(f.appended[sheetRange], values)
	return nil
}

func (f *fakeSheets) WriteRows(_ context.Context, sheetRange string, rows [][]interface{}) error {
	f.written[sheetRange] = rows
	return nil
}

func (f *fakeSheets) ClearRange(_ context.Context, sheetRange string) error {
	f.cleared = append(f.cleared, sheetRange)
	return nil
}

func (f *fakeSheets) ReadRange(context.Context, string) ([][]interface{}, error) {
	return f.existing, nil
}

type fakeNotifier struct {
	messages []string
	err      error
}

func (f *fakeNotifier) Notify(_ context.Context, text string) error {
	f.messages = append(f.messages, text)
	return f.err
}

func sampleExpiring() *models.ExpiringQuotations {
	return &models.ExpiringQuotations{
		ExpiringInDays: 7,
		Quotations: []models.ExpiringQuotation{
			{
				Quotation:   models.Quotation{ID: primitive.NewObjectID(), SellingPrice: 120, ProfitMargin: 20, ValidUntil: fixedNow.AddDate(0, 0, 2)},
				ProductName: "Widget",
				ProductCode: "WDG",
				State:       models.QuotationExpiringSoon,
			},
		},
	}
}

func sampleReport() *models.ProfitAnalysisReport {
	return &models.ProfitAnalysisReport{
		Analysis: []models.ProfitAnalysisRow{
			{ProductName: "Widget", ProductCode: "WDG", Category: "parts", AvgSellingPrice: 120, AvgCost: 100, AvgGrossProfit: 20, AvgProfitMargin: 20.004, QuotationCount: 2, LastUpdated: fixedNow},
		},
		Summary: models.ProfitSummary{TotalProducts: 1, TotalQuotations: 2, AvgProfitMargin: 20, TotalAvgGrossProfit: 20, HighestProfitMargin: 20.004, MostProfitableProduct: "Widget"},
	}
}

func newTestService(q QuotationReports, sheets *fakeSheets, n *fakeNotifier) *Service {
	var svc *Service
	switch {
	case sheets == nil && n == nil:
		svc = NewService(q, nil, nil, nil)
	case sheets == nil:
		svc = NewService(q, nil, n, nil)
	case n == nil:
		svc = NewService(q, sheets, nil, nil)
	default:
		svc = NewService(q, sheets, n, nil)
	}
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestExpiringDigest(t *testing.T) {
	quotes := &fakeQuotes{expiring: sampleExpiring()}
	svc := newTestService(quotes, nil, nil)

	msg, count, err := svc.ExpiringDigest(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, 7, quotes.days)
	assert.Contains(t, msg, "1 quotation(s) expire in the next 7 days")
	assert.Contains(t, msg, "Widget (WDG): 120.00, margin 20.00%, until 2024-06-16 [Expiring Soon]")
}

func TestSendExpiringDigestSkipsEmpty(t *testing.T) {
	quotes := &fakeQuotes{expiring: &models.ExpiringQuotations{ExpiringInDays: 7}}
	n := &fakeNotifier{}
	svc := newTestService(quotes, nil, n)

	require.NoError(t, svc.SendExpiringDigest(context.Background(), 7))
	assert.Empty(t, n.messages)

	quotes.expiring = sampleExpiring()
	require.NoError(t, svc.SendExpiringDigest(context.Background(), 7))
	assert.Len(t, n.messages, 1)
}

func TestSendExpiringDigestPropagatesErrors(t *testing.T) {
	n := &fakeNotifier{err: errors.New("webhook down")}
	svc := newTestService(&fakeQuotes{expiring: sampleExpiring()}, nil, n)
	assert.ErrorContains(t, svc.SendExpiringDigest(context.Background(), 7), "webhook down")

	svc = newTestService(&fakeQuotes{err: errors.New("db down")}, nil, nil)
	assert.ErrorContains(t, svc.SendExpiringDigest(context.Background(), 7), "db down")
}

func TestExportProfitAnalysis(t *testing.T) {
	sheets := newFakeSheets()
	sheets.existing = [][]interface{}{
		{"Date", "Products", "Quotations", "Avg margin"},
		{"2024-06-07", "1", "1", "15.5"},
	}
	n := &fakeNotifier{}
	svc := newTestService(&fakeQuotes{report: sampleReport()}, sheets, n)

	require.NoError(t, svc.ExportAndNotify(context.Background()))

	assert.Equal(t, []string{analysisClearRange}, sheets.cleared)
	rows := sheets.written[analysisDataRange]
	require.Len(t, rows, 2)
	assert.Equal(t, "Product", rows[0][0])
	assert.Equal(t, 20.0, rows[1][6])
	assert.Equal(t, "2024-06-14", rows[1][8])

	summary := sheets.appended[summaryDataRange]
	require.Len(t, summary, 1)
	assert.Equal(t, "2024-06-14", summary[0][0])

	require.Len(t, n.messages, 1)
	assert.Contains(t, n.messages[0], "average margin 20.00%")
	assert.Contains(t, n.messages[0], "+4.50 pts")
	assert.Contains(t, n.messages[0], "Best product: Widget")
}

func TestExportWithoutHistory(t *testing.T) {
	sheets := newFakeSheets()
	svc := newTestService(&fakeQuotes{report: sampleReport()}, sheets, nil)

	statement, err := svc.ExportProfitAnalysis(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, statement, "Change since last export")
}

func TestExportDisabledWithoutSheet(t *testing.T) {
	svc := newTestService(&fakeQuotes{report: sampleReport()}, nil, nil)
	_, err := svc.ExportProfitAnalysis(context.Background())
	assert.ErrorIs(t, err, ErrExportDisabled)
}
