package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tubesage/tubesage/internal/domain"
)

// ReportStore defines the interface for persisting exported reports
type ReportStore interface {
	PutReport(ctx context.Context, key string, body []byte) error
	GenerateDownloadURL(ctx context.Context, key string) (string, error)
}

// ExportResult describes an exported source-tracking report. When no
// store is configured the report is returned inline and URL is empty.
type ExportResult struct {
	Report      TrackerReport
	DownloadURL string
}

// ReportService exports session source-tracking reports, to object
// storage when configured.
type ReportService struct {
	sessions *SessionService
	store    ReportStore
}

// NewReportService creates a new ReportService instance. A nil store
// means reports are served inline only.
func NewReportService(sessions *SessionService, store ReportStore) *ReportService {
	return &ReportService{sessions: sessions, store: store}
}

// Export builds the session's report and uploads it when a store is
// configured.
func (s *ReportService) Export(ctx context.Context, sessionID string) (*ExportResult, error) {
	report, err := s.sessions.Report(sessionID)
	if err != nil {
		return nil, err
	}

	result := &ExportResult{Report: *report}
	if s.store == nil {
		return result, nil
	}

	body, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to encode report", err)
	}

	key := fmt.Sprintf("reports/%s/%s.json", sessionID, report.GeneratedAt.Format("20060102T150405Z"))
	if err := s.store.PutReport(ctx, key, body); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to upload report", err)
	}

	url, err := s.store.GenerateDownloadURL(ctx, key)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to presign report", err)
	}

	result.DownloadURL = url
	return result, nil
}
