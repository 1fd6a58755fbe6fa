package services

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	goa "goa.design/goa/v3/pkg"
	"gorm.io/gorm"

	"lumenai/internal/domain"
	apperrors "lumenai/pkg/errors"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
	dateOnlyLayout   = "2006-01-02"
)

// InquiryFilter narrows the inquiry set. Zero values mean "no constraint".
type InquiryFilter struct {
	Status        domain.InquiryStatus
	Company       string
	CreatedFrom   time.Time // inclusive
	CreatedBefore time.Time // exclusive
	SortBy        domain.SortField
	SortOrder     domain.SortOrder
}

// InquiryQuery is a filter plus the requested page.
type InquiryQuery struct {
	InquiryFilter
	Page  int
	Limit int
}

// Pagination describes the returned page.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// InquiryMetrics are whole-table status counts, independent of any filter.
type InquiryMetrics struct {
	Total      int64 `json:"total"`
	Pending    int64 `json:"pending"`
	InProgress int64 `json:"inProgress"`
	Completed  int64 `json:"completed"`
	Rejected   int64 `json:"rejected"`
}

// InquiryPage is the admin list response.
type InquiryPage struct {
	Inquiries  []domain.Inquiry `json:"inquiries"`
	Pagination Pagination       `json:"pagination"`
	Metrics    InquiryMetrics   `json:"metrics"`
}

// ParseInquiryFilter reads status, company, dateFrom, dateTo, sortBy and sortOrder.
func ParseInquiryFilter(values url.Values) (InquiryFilter, error) {
	var details []apperrors.FieldError
	add := func(field string, err error) {
		details = append(details, apperrors.FieldError{Field: field, Message: err.Error()})
	}

	f := InquiryFilter{SortBy: domain.SortByCreatedAt, SortOrder: domain.SortDesc}

	if raw := values.Get("status"); raw != "" && raw != "all" {
		status, ok := domain.ParseInquiryStatus(raw)
		if !ok {
			add("status", goa.InvalidEnumValueError("status", raw, []any{"all", "pending", "in-progress", "completed", "rejected"}))
		}
		f.Status = status
	}

	f.Company = strings.TrimSpace(values.Get("company"))

	if raw := values.Get("dateFrom"); raw != "" {
		t, _, err := parseDate(raw)
		if err != nil {
			add("dateFrom", goa.InvalidFormatError("dateFrom", raw, goa.FormatDateTime, err))
		}
		f.CreatedFrom = t
	}
	if raw := values.Get("dateTo"); raw != "" {
		t, dateOnly, err := parseDate(raw)
		if err != nil {
			add("dateTo", goa.InvalidFormatError("dateTo", raw, goa.FormatDateTime, err))
		}
		if dateOnly {
			f.CreatedBefore = t.AddDate(0, 0, 1)
		} else if !t.IsZero() {
			f.CreatedBefore = t.Add(time.Nanosecond)
		}
	}
	if !f.CreatedFrom.IsZero() && !f.CreatedBefore.IsZero() && !f.CreatedFrom.Before(f.CreatedBefore) {
		details = append(details, apperrors.FieldError{Field: "dateFrom", Message: "dateFrom must not be after dateTo"})
	}

	if raw := values.Get("sortBy"); raw != "" {
		f.SortBy = domain.SortField(raw)
		if _, ok := f.SortBy.Column(); !ok {
			add("sortBy", goa.InvalidEnumValueError("sortBy", raw, domain.SortFields()))
		}
	}
	if raw := values.Get("sortOrder"); raw != "" {
		f.SortOrder = domain.SortOrder(strings.ToLower(raw))
		if !f.SortOrder.Valid() {
			add("sortOrder", goa.InvalidEnumValueError("sortOrder", raw, []any{"asc", "desc"}))
		}
	}

	if len(details) > 0 {
		return InquiryFilter{}, apperrors.Validation("invalid query parameters", details...)
	}
	return f, nil
}

// ParseInquiryQuery reads the filter plus page and limit.
func ParseInquiryQuery(values url.Values) (*InquiryQuery, error) {
	var details []apperrors.FieldError

	f, err := ParseInquiryFilter(values)
	if err != nil {
		appErr, _ := apperrors.As(err)
		details = append(details, appErr.Details...)
	}

	page, limit, pageDetails := ParsePage(values)
	details = append(details, pageDetails...)

	if len(details) > 0 {
		return nil, apperrors.Validation("invalid query parameters", details...)
	}
	return &InquiryQuery{InquiryFilter: f, Page: page, Limit: limit}, nil
}

// ParsePage reads page and limit, defaulting to 1 and DefaultPageLimit.
// Problems are returned as field details so callers can merge them.
func ParsePage(values url.Values) (page, limit int, details []apperrors.FieldError) {
	page, limit = 1, DefaultPageLimit
	if raw := values.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		switch {
		case err != nil:
			details = append(details, fieldErr("page", goa.InvalidFieldTypeError("page", raw, "integer")))
		case n < 1:
			details = append(details, fieldErr("page", goa.InvalidRangeError("page", n, 1, true)))
		default:
			page = n
		}
	}
	if raw := values.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		switch {
		case err != nil:
			details = append(details, fieldErr("limit", goa.InvalidFieldTypeError("limit", raw, "integer")))
		case n < 1:
			details = append(details, fieldErr("limit", goa.InvalidRangeError("limit", n, 1, true)))
		case n > MaxPageLimit:
			details = append(details, fieldErr("limit", goa.InvalidRangeError("limit", n, MaxPageLimit, false)))
		default:
			limit = n
		}
	}
	return page, limit, details
}

func fieldErr(field string, err error) apperrors.FieldError {
	return apperrors.FieldError{Field: field, Message: err.Error()}
}

// parseDate accepts YYYY-MM-DD (UTC midnight) or RFC 3339.
func parseDate(raw string) (t time.Time, dateOnly bool, err error) {
	if t, err = time.Parse(dateOnlyLayout, raw); err == nil {
		return t, true, nil
	}
	t, err = time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false, err
	}
	return t.UTC(), false, nil
}

// escapeLike escapes LIKE wildcards so user input only matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// scope applies the filter conditions, not the ordering.
func (f *InquiryFilter) scope(db *gorm.DB) *gorm.DB {
	if f.Status != "" {
		db = db.Where("status = ?", f.Status)
	}
	if f.Company != "" {
		db = db.Where(`LOWER(company_name) LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(f.Company))+"%")
	}
	if !f.CreatedFrom.IsZero() {
		db = db.Where("created_at >= ?", f.CreatedFrom)
	}
	if !f.CreatedBefore.IsZero() {
		db = db.Where("created_at < ?", f.CreatedBefore)
	}
	return db
}

// order applies the allow-listed sort with id as a stable tiebreaker.
func (f *InquiryFilter) order(db *gorm.DB) *gorm.DB {
	col, ok := f.SortBy.Column()
	if !ok {
		col = "created_at"
	}
	dir := f.SortOrder.SQL()
	return db.Order(col + " " + dir).Order("id " + dir)
}

// List returns one filtered, sorted page together with whole-table metrics.
func (s *InquiryService) List(ctx context.Context, q *InquiryQuery) (*InquiryPage, error) {
	s.log.For(ctx).Debug("List request", zap.Int("page", q.Page), zap.Int("limit", q.Limit), zap.String("status", string(q.Status)))

	page := &InquiryPage{Inquiries: []domain.Inquiry{}}
	var total int64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		offset, ok := pageOffset(q.Page, q.Limit)
		if !ok {
			return nil
		}
		db := s.db.WithContext(gctx).Model(&domain.Inquiry{}).Scopes(q.scope, q.order)
		return db.Offset(offset).Limit(q.Limit).Find(&page.Inquiries).Error
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).Model(&domain.Inquiry{}).Scopes(q.scope).Count(&total).Error
	})
	g.Go(func() error {
		m, err := s.metrics(gctx)
		if err != nil {
			return err
		}
		page.Metrics = *m
		return nil
	})
	if err := g.Wait(); err != nil {
		s.log.For(ctx).Error("List failed: database error", zap.Error(err))
		return nil, storeError("list inquiries", err)
	}

	page.Pagination = Pagination{
		Page:       q.Page,
		Limit:      q.Limit,
		Total:      total,
		TotalPages: int((total + int64(q.Limit) - 1) / int64(q.Limit)),
	}
	return page, nil
}

// Metrics returns whole-table status counts.
func (s *InquiryService) Metrics(ctx context.Context) (*InquiryMetrics, error) {
	m, err := s.metrics(ctx)
	if err != nil {
		return nil, storeError("count inquiries", err)
	}
	return m, nil
}

// metrics reads all status counts in one grouped statement so that
// Total always equals the sum of the four buckets.
func (s *InquiryService) metrics(ctx context.Context) (*InquiryMetrics, error) {
	var rows []struct {
		Status domain.InquiryStatus
		Count  int64
	}
	err := s.db.WithContext(ctx).Model(&domain.Inquiry{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	m := &InquiryMetrics{}
	for _, r := range rows {
		switch r.Status {
		case domain.StatusPending:
			m.Pending = r.Count
		case domain.StatusInProgress:
			m.InProgress = r.Count
		case domain.StatusCompleted:
			m.Completed = r.Count
		case domain.StatusRejected:
			m.Rejected = r.Count
		}
	}
	m.Total = m.Pending + m.InProgress + m.Completed + m.Rejected
	return m, nil
}
