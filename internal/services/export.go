package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"lumenai/internal/domain"
	"lumenai/internal/metrics"
)

// ExportHeader is the fixed column order of the inquiry CSV export.
var ExportHeader = []string{
	"ID", "Name", "Email", "Phone", "Company", "Country", "Job Title",
	"Job Description", "Status", "Admin Notes", "Created At", "Updated At",
}

// ExportFilename returns the attachment name for an export generated at now.
func ExportFilename(now time.Time) string {
	return fmt.Sprintf("inquiries-export-%s.csv", now.UTC().Format(dateOnlyLayout))
}

func exportRecord(inq *domain.Inquiry) []string {
	return []string{
		inq.ID,
		inq.Name,
		inq.Email,
		inq.Phone,
		inq.CompanyName,
		inq.Country,
		inq.JobTitle,
		inq.JobDescription,
		string(inq.Status),
		inq.AdminNotes,
		inq.CreatedAt.UTC().Format(time.RFC3339),
		inq.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// ExportCSV streams every inquiry matching f to w as CSV and returns the row count.
// Fields containing commas, quotes or line breaks are quoted with quotes doubled.
func (s *InquiryService) ExportCSV(ctx context.Context, f *InquiryFilter, w io.Writer) (int, error) {
	s.log.For(ctx).Info("Export request", zap.String("status", string(f.Status)))

	rows, err := s.db.WithContext(ctx).Model(&domain.Inquiry{}).Scopes(f.scope, f.order).Rows()
	if err != nil {
		s.log.For(ctx).Error("Export failed: database error", zap.Error(err))
		return 0, storeError("export inquiries", err)
	}
	defer rows.Close()

	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return 0, err
	}

	n := 0
	for rows.Next() {
		var inq domain.Inquiry
		if err := s.db.ScanRows(rows, &inq); err != nil {
			return n, storeError("read inquiry", err)
		}
		if err := cw.Write(exportRecord(&inq)); err != nil {
			return n, err
		}
		n++
	}
	if err := rows.Err(); err != nil {
		return n, storeError("export inquiries", err)
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return n, err
	}

	s.log.For(ctx).Info("Export successful", zap.Int("rows", n))
	metrics.RecordExport(n)
	return n, nil
}
