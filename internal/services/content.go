package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"lumenai/internal/domain"
	"lumenai/internal/util"
	apperrors "lumenai/pkg/errors"
)

// readOnlyFields are managed by the server and ignored in request bodies.
var readOnlyFields = []string{"id", "createdAt", "updatedAt", "publishedAt", "contentHtml"}

const maxSlugAttempts = 100

// ListOptions selects one page of content.
type ListOptions struct {
	Page   int
	Limit  int
	Scopes []func(*gorm.DB) *gorm.DB
}

// ContentPage is a page of content items.
type ContentPage[T any] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// ContentService provides CRUD with a published gate for one content type.
type ContentService[T any, PT interface {
	*T
	domain.Content
}] struct {
	db       *gorm.DB
	resource string
	log      serviceLog
	prepare  func(PT) error
}

// NewContentService creates a content service; resource names the type in errors and logs.
func NewContentService[T any, PT interface {
	*T
	domain.Content
}](db *gorm.DB, resource string) *ContentService[T, PT] {
	return &ContentService[T, PT]{
		db:       db,
		resource: resource,
		log:      serviceLog(strings.ReplaceAll(resource, " ", "_")),
	}
}

// WithPublicView sets a hook applied to every item served publicly.
func (s *ContentService[T, PT]) WithPublicView(fn func(PT) error) *ContentService[T, PT] {
	s.prepare = fn
	return s
}

// NewBlogService creates the blog service; public reads carry rendered HTML.
func NewBlogService(db *gorm.DB) *ContentService[domain.Blog, *domain.Blog] {
	return NewContentService[domain.Blog](db, "blog").WithPublicView(renderBlog)
}

// NewCaseStudyService creates the case study service.
func NewCaseStudyService(db *gorm.DB) *ContentService[domain.CaseStudy, *domain.CaseStudy] {
	return NewContentService[domain.CaseStudy](db, "case study")
}

// NewEventService creates the event service.
func NewEventService(db *gorm.DB) *ContentService[domain.Event, *domain.Event] {
	return NewContentService[domain.Event](db, "event")
}

func renderBlog(b *domain.Blog) error {
	html, err := util.RenderMarkdown(b.Content)
	if err != nil {
		return err
	}
	b.ContentHTML = html
	return nil
}

// UpcomingEvents keeps events that have not started before now.
func UpcomingEvents(now time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("starts_at >= ?", now)
	}
}

// Create builds a new item from the supplied JSON fields.
func (s *ContentService[T, PT]) Create(ctx context.Context, fields map[string]json.RawMessage) (PT, error) {
	item := PT(new(T))
	if err := apply(item, fields); err != nil {
		return nil, err
	}
	item.Normalize()
	if err := item.Validate(); err != nil {
		s.log.For(ctx).Info("Create failed: validation error", zap.Error(err))
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		slug, err := s.uniqueSlug(tx, item, 0)
		if err != nil {
			return err
		}
		item.Meta().Slug = slug
		return tx.Create(item).Error
	})
	if err != nil {
		return nil, s.writeError(ctx, "create", err)
	}

	s.log.For(ctx).Info("Create successful", zap.Uint("id", item.Meta().ID), zap.String("slug", item.Meta().Slug))
	return item, nil
}

// Get returns any item by id.
func (s *ContentService[T, PT]) Get(ctx context.Context, id uint) (PT, error) {
	item := PT(new(T))
	if err := s.db.WithContext(ctx).First(item, id).Error; err != nil {
		return nil, notFoundOr(err, s.resource)
	}
	return item, nil
}

// Update merges the supplied JSON fields into an existing item.
func (s *ContentService[T, PT]) Update(ctx context.Context, id uint, fields map[string]json.RawMessage) (PT, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	oldSlug := item.Meta().Slug
	if err := apply(item, fields); err != nil {
		return nil, err
	}
	item.Normalize()
	if err := item.Validate(); err != nil {
		s.log.For(ctx).Info("Update failed: validation error", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if item.Meta().Slug != oldSlug || item.Meta().Slug == "" {
			slug, err := s.uniqueSlug(tx, item, id)
			if err != nil {
				return err
			}
			item.Meta().Slug = slug
		}
		return tx.Save(item).Error
	})
	if err != nil {
		return nil, s.writeError(ctx, "update", err)
	}

	s.log.For(ctx).Info("Update successful", zap.Uint("id", id))
	return item, nil
}

// Delete removes an item permanently.
func (s *ContentService[T, PT]) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(PT(new(T)), id)
	if res.Error != nil {
		return storeError("delete "+s.resource, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound(s.resource)
	}
	s.log.For(ctx).Info("Delete successful", zap.Uint("id", id))
	return nil
}

// List returns every item, newest first.
func (s *ContentService[T, PT]) List(ctx context.Context, opts ListOptions) (*ContentPage[T], error) {
	return s.page(ctx, opts, "created_at DESC, id DESC", false)
}

// ListPublished returns published items in their public order.
func (s *ContentService[T, PT]) ListPublished(ctx context.Context, opts ListOptions) (*ContentPage[T], error) {
	var zero T
	return s.page(ctx, opts, PT(&zero).PublicOrder(), true)
}

// GetPublished returns a published item by slug; drafts are reported as missing.
func (s *ContentService[T, PT]) GetPublished(ctx context.Context, slug string) (PT, error) {
	if !util.IsValidSlug(slug) {
		return nil, apperrors.NotFound(s.resource)
	}
	item := PT(new(T))
	err := s.db.WithContext(ctx).Where("slug = ? AND published = ?", slug, true).First(item).Error
	if err != nil {
		return nil, notFoundOr(err, s.resource)
	}
	if s.prepare != nil {
		if err := s.prepare(item); err != nil {
			return nil, apperrors.Internal("failed to render "+s.resource, err)
		}
	}
	return item, nil
}

func (s *ContentService[T, PT]) page(ctx context.Context, opts ListOptions, order string, public bool) (*ContentPage[T], error) {
	page, limit := normalizePage(opts.Page, opts.Limit)

	db := s.db.WithContext(ctx).Model(PT(new(T))).Scopes(opts.Scopes...)
	if public {
		db = db.Where("published = ?", true)
	}

	var total int64
	if err := db.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, storeError("count "+s.resource, err)
	}

	items := []T{}
	if offset, ok := pageOffset(page, limit); ok {
		if err := db.Session(&gorm.Session{}).Order(order).Offset(offset).Limit(limit).Find(&items).Error; err != nil {
			return nil, storeError("list "+s.resource, err)
		}
	}
	if public && s.prepare != nil {
		for i := range items {
			if err := s.prepare(PT(&items[i])); err != nil {
				return nil, apperrors.Internal("failed to render "+s.resource, err)
			}
		}
	}

	return &ContentPage[T]{
		Items: items,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: int((total + int64(limit) - 1) / int64(limit)),
		},
	}, nil
}

// uniqueSlug returns the requested or derived slug, suffixed -2, -3, … until unused.
func (s *ContentService[T, PT]) uniqueSlug(tx *gorm.DB, item PT, selfID uint) (string, error) {
	base := util.Slugify(item.Meta().Slug)
	if base == "" {
		base = util.Slugify(item.SlugSource())
	}
	if base == "" {
		base = strings.ReplaceAll(s.resource, " ", "-")
	}

	candidate := base
	for n := 2; n <= maxSlugAttempts+1; n++ {
		var count int64
		q := tx.Model(PT(new(T))).Where("slug = ?", candidate)
		if selfID != 0 {
			q = q.Where("id <> ?", selfID)
		}
		if err := q.Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
	return "", apperrors.Validation("invalid "+s.resource, apperrors.FieldError{Field: "slug", Message: "slug is already taken"})
}

func (s *ContentService[T, PT]) writeError(ctx context.Context, op string, err error) error {
	if _, ok := apperrors.As(err); ok {
		return err
	}
	if isUniqueViolation(err) {
		return apperrors.Validation("invalid "+s.resource, apperrors.FieldError{Field: "slug", Message: "slug is already taken"})
	}
	s.log.For(ctx).Error(op+" failed: database error", zap.Error(err))
	return storeError(op+" "+s.resource, err)
}

// apply decodes the writable fields onto item.
func apply(item any, fields map[string]json.RawMessage) error {
	for _, f := range readOnlyFields {
		delete(fields, f)
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return apperrors.Validation("invalid request body")
	}
	if err := json.Unmarshal(raw, item); err != nil {
		return apperrors.Validation("invalid request body", apperrors.FieldError{Field: "body", Message: err.Error()})
	}
	return nil
}

// normalizePage clamps page and limit to their allowed ranges.
func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}

// maxRowOffset bounds the OFFSET passed to the database.
const maxRowOffset = math.MaxInt32

// pageOffset returns the row offset of page. It reports false when the page
// lies beyond any table this service can hold, so callers return no rows
// instead of letting (page-1)*limit overflow.
func pageOffset(page, limit int) (int, bool) {
	if page-1 > maxRowOffset/limit {
		return 0, false
	}
	return (page - 1) * limit, true
}
