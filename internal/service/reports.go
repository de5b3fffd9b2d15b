package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/takudzwam/pamsika/internal/domain"
)

// Reports handles write-once report intake. There is no read path here;
// moderation tooling consumes the records out-of-band.
type Reports struct {
	store  domain.ReportStore
	logger *slog.Logger
	now    func() time.Time
}

// NewReports creates a Reports service.
func NewReports(store domain.ReportStore, logger *slog.Logger) *Reports {
	return &Reports{
		store:  store,
		logger: logger.With(slog.String("component", "reports")),
		now:    time.Now,
	}
}

// ReportInput carries a complaint about another participant.
type ReportInput struct {
	ReporterID  string
	ReportedID  string
	OfferID     string
	Reason      string
	Description string
}

// File records a report and returns it.
func (r *Reports) File(ctx context.Context, in ReportInput) (domain.Report, error) {
	report := domain.Report{
		ID:          uuid.NewString(),
		ReporterID:  in.ReporterID,
		ReportedID:  in.ReportedID,
		OfferID:     in.OfferID,
		Reason:      in.Reason,
		Description: in.Description,
		CreatedAt:   r.now().UTC(),
	}

	if err := r.store.Put(ctx, report); err != nil {
		return domain.Report{}, fmt.Errorf("reports: persist: %w", err)
	}

	r.logger.InfoContext(ctx, "report filed",
		slog.String("report_id", report.ID),
		slog.String("reporter_id", report.ReporterID),
		slog.String("reported_id", report.ReportedID),
	)
	return report, nil
}
