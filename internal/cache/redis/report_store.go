package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/takudzwam/pamsika/internal/domain"
)

// ReportStore implements domain.ReportStore. Reports are write-once;
// moderation tooling reads them out-of-band.
//
// Key schema:
//
//	report:{id} - hash with field "data" containing JSON
type ReportStore struct {
	rdb *redis.Client
}

// NewReportStore creates a ReportStore backed by the given Client.
func NewReportStore(c *Client) *ReportStore {
	return &ReportStore{rdb: c.Underlying()}
}

func reportKey(id string) string { return "report:" + id }

// Put stores a report record.
func (s *ReportStore) Put(ctx context.Context, report domain.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("redis: marshal report %s: %w", report.ID, err)
	}
	if err := s.rdb.HSet(ctx, reportKey(report.ID), "data", data).Err(); err != nil {
		return fmt.Errorf("redis: put report %s: %w", report.ID, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.ReportStore = (*ReportStore)(nil)
