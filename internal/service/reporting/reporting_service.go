// Package reporting turns quotation reports into back-office digests and
// spreadsheet exports.
package reporting

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/costquote/internal/domain/costing"
	"github.com/mamadbah2/costquote/internal/domain/models"
	repo "github.com/mamadbah2/costquote/internal/repository/sheets"
	"github.com/mamadbah2/costquote/pkg/clients/notify"
)

const (
	dateLayout         = "2006-01-02"
	analysisClearRange = "ProfitAnalysis!A:J"
	analysisDataRange  = "ProfitAnalysis!A1"
	summaryDataRange   = "Summary!A:F"
)

// ErrExportDisabled is returned when no spreadsheet is configured.
var ErrExportDisabled = errors.New("report export is not configured")

// QuotationReports supplies the reports this service formats.
type QuotationReports interface {
	Expiring(ctx context.Context, days int) (*models.ExpiringQuotations, error)
	ProfitAnalysis(ctx context.Context, from, to *time.Time) (*models.ProfitAnalysisReport, error)
}

// Service produces digests and exports. The sheet repository and the
// notifier are optional.
type Service struct {
	quotes   QuotationReports
	repo     repo.Repository
	notifier notify.Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewService wires a new reporting service instance.
func NewService(quotes QuotationReports, repository repo.Repository, notifier notify.Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{quotes: quotes, repo: repository, notifier: notifier, logger: logger, now: time.Now}
}

// ExpiringDigest renders the quotations expiring within days as a chat message.
// The count is returned so callers can skip empty digests.
func (s *Service) ExpiringDigest(ctx context.Context, days int) (string, int, error) {
	res, err := s.quotes.Expiring(ctx, days)
	if err != nil {
		return "", 0, fmt.Errorf("load expiring quotations: %w", err)
	}
	if len(res.Quotations) == 0 {
		return fmt.Sprintf("No quotation expires in the next %d days.", res.ExpiringInDays), 0, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d quotation(s) expire in the next %d days:\n", len(res.Quotations), res.ExpiringInDays)
	for _, q := range res.Quotations {
		name := q.ProductName
		if name == "" {
			name = q.ProductID.Hex()
		}
		fmt.Fprintf(&b, "- %s (%s): %.2f, margin %.2f%%, until %s [%s]\n",
			name, q.ProductCode, q.SellingPrice, q.ProfitMargin, q.ValidUntil.Format(dateLayout), q.State)
	}
	return strings.TrimRight(b.String(), "\n"), len(res.Quotations), nil
}

// SendExpiringDigest posts the expiring digest when at least one quotation is concerned.
func (s *Service) SendExpiringDigest(ctx context.Context, days int) error {
	msg, count, err := s.ExpiringDigest(ctx, days)
	if err != nil {
		return err
	}
	if count == 0 {
		s.logger.Debug("no expiring quotations, digest skipped")
		return nil
	}
	if s.notifier == nil {
		s.logger.Info("expiring digest", zap.Int("count", count), zap.String("message", msg))
		return nil
	}
	if err := s.notifier.Notify(ctx, msg); err != nil {
		return fmt.Errorf("send expiring digest: %w", err)
	}
	s.logger.Info("expiring digest sent", zap.Int("count", count))
	return nil
}

// ExportProfitAnalysis rewrites the ProfitAnalysis sheet with the current
// report and appends a line to the Summary sheet. It returns a short
// statement comparing the average margin with the previous export.
func (s *Service) ExportProfitAnalysis(ctx context.Context) (string, error) {
	if s.repo == nil {
		return "", ErrExportDisabled
	}

	report, err := s.quotes.ProfitAnalysis(ctx, nil, nil)
	if err != nil {
		return "", fmt.Errorf("load profit analysis: %w", err)
	}

	rows := make([][]interface{}, 0, len(report.Analysis)+1)
	rows = append(rows, []interface{}{
		"Product", "Code", "Category", "Avg selling price", "Avg cost",
		"Avg gross profit", "Avg margin %", "Quotations", "Last updated",
	})
	for _, row := range report.Analysis {
		rows = append(rows, []interface{}{
			row.ProductName,
			row.ProductCode,
			row.Category,
			costing.Round2(row.AvgSellingPrice),
			costing.Round2(row.AvgCost),
			costing.Round2(row.AvgGrossProfit),
			costing.Round2(row.AvgProfitMargin),
			row.QuotationCount,
			row.LastUpdated.Format(dateLayout),
		})
	}

	if err := s.repo.ClearRange(ctx, analysisClearRange); err != nil {
		return "", fmt.Errorf("clear analysis sheet: %w", err)
	}
	if err := s.repo.WriteRows(ctx, analysisDataRange, rows); err != nil {
		return "", fmt.Errorf("write analysis sheet: %w", err)
	}

	previous, hasPrevious := s.lastExportedMargin(ctx)

	summary := report.Summary
	today := s.now().UTC().Format(dateLayout)
	if err := s.repo.WriteRow(ctx, summaryDataRange, []interface{}{
		today,
		summary.TotalProducts,
		summary.TotalQuotations,
		summary.AvgProfitMargin,
		summary.TotalAvgGrossProfit,
		summary.MostProfitableProduct,
	}); err != nil {
		return "", fmt.Errorf("append summary row: %w", err)
	}

	statement := fmt.Sprintf("Profit report (%s): %d products, %d quotations, average margin %.2f%%.",
		today, summary.TotalProducts, summary.TotalQuotations, summary.AvgProfitMargin)
	if hasPrevious {
		statement += fmt.Sprintf(" Change since last export: %+.2f pts.", summary.AvgProfitMargin-previous)
	}
	if summary.MostProfitableProduct != "" {
		statement += fmt.Sprintf(" Best product: %s.", summary.MostProfitableProduct)
	}
	s.logger.Info("profit analysis exported", zap.Int("rows", len(report.Analysis)))
	return statement, nil
}

// ExportAndNotify runs the export and posts its statement when a notifier is configured.
func (s *Service) ExportAndNotify(ctx context.Context) error {
	statement, err := s.ExportProfitAnalysis(ctx)
	if err != nil {
		return err
	}
	if s.notifier == nil {
		return nil
	}
	if err := s.notifier.Notify(ctx, statement); err != nil {
		return fmt.Errorf("send profit report: %w", err)
	}
	return nil
}

// lastExportedMargin reads the most recent parsable average margin of the Summary sheet.
func (s *Service) lastExportedMargin(ctx context.Context) (float64, bool) {
	rows, err := s.repo.ReadRange(ctx, summaryDataRange)
	if err != nil {
		s.logger.Debug("summary history unavailable", zap.Error(err))
		return 0, false
	}

	for i := len(rows) - 1; i >= 0; i-- {
		row := rows[i]
		if len(row) < 4 {
			continue
		}
		if _, err := parseDate(row[0]); err != nil {
			continue
		}
		margin, err := parseFloat(row[3])
		if err != nil {
			s.logger.Debug("skip summary row with invalid margin", zap.Any("value", row[3]), zap.Error(err))
			continue
		}
		return margin, true
	}
	return 0, false
}

func parseDate(value interface{}) (time.Time, error) {
	str := fmt.Sprint(value)
	if str == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if len(str) > 10 {
		str = str[:10]
	}
	return time.Parse(dateLayout, str)
}

func parseFloat(value interface{}) (float64, error) {
	str := strings.TrimSpace(fmt.Sprint(value))
	if str == "" {
		return 0, fmt.Errorf("empty numeric value")
	}
	return strconv.ParseFloat(str, 64)
}
