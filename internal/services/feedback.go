package services

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"lumenai/internal/domain"
	"lumenai/internal/metrics"
	apperrors "lumenai/pkg/errors"
)

// PublicFeedback is the testimonial shape shown on the site, without contact details.
type PublicFeedback struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Company   string    `json:"company"`
	Rating    int       `json:"rating"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// FeedbackService implements feedback submission and moderation
type FeedbackService struct {
	db       *gorm.DB
	notifier *Notifier
	log      serviceLog
}

// NewFeedbackService creates a new feedback service
func NewFeedbackService(db *gorm.DB, notifier *Notifier) *FeedbackService {
	return &FeedbackService{db: db, notifier: notifier, log: serviceLog("feedback")}
}

// Submit stores unapproved feedback and notifies the admin in the background.
func (s *FeedbackService) Submit(ctx context.Context, in *domain.FeedbackInput) (*domain.Feedback, error) {
	in.Normalize()
	s.log.For(ctx).Info("Submit request", zap.String("name", in.Name), zap.Int("rating", in.Rating))

	if err := in.Validate(); err != nil {
		s.log.For(ctx).Info("Submit failed: validation error", zap.Error(err))
		return nil, err
	}

	fb := in.Feedback()
	if err := s.db.WithContext(ctx).Create(fb).Error; err != nil {
		s.log.For(ctx).Error("Submit failed: database error", zap.Error(err))
		return nil, storeError("save feedback", err)
	}

	s.log.For(ctx).Info("Submit successful", zap.Uint("id", fb.ID))
	metrics.RecordFeedbackSubmission()
	if s.notifier != nil {
		s.notifier.FeedbackReceived(*fb)
	}
	return fb, nil
}

// ListApproved returns approved feedback, newest first.
func (s *FeedbackService) ListApproved(ctx context.Context, page, limit int) ([]PublicFeedback, *Pagination, error) {
	items, p, err := s.list(ctx, func(db *gorm.DB) *gorm.DB { return db.Where("approved = ?", true) }, page, limit)
	if err != nil {
		return nil, nil, err
	}
	out := make([]PublicFeedback, len(items))
	for i, fb := range items {
		out[i] = PublicFeedback{
			ID:        fb.ID,
			Name:      fb.Name,
			Company:   fb.Company,
			Rating:    fb.Rating,
			Message:   fb.Message,
			CreatedAt: fb.CreatedAt,
		}
	}
	return out, p, nil
}

// List returns feedback for moderation; approved nil means all.
func (s *FeedbackService) List(ctx context.Context, approved *bool, page, limit int) ([]domain.Feedback, *Pagination, error) {
	return s.list(ctx, func(db *gorm.DB) *gorm.DB {
		if approved == nil {
			return db
		}
		return db.Where("approved = ?", *approved)
	}, page, limit)
}

func (s *FeedbackService) list(ctx context.Context, scope func(*gorm.DB) *gorm.DB, page, limit int) ([]domain.Feedback, *Pagination, error) {
	page, limit = normalizePage(page, limit)
	db := s.db.WithContext(ctx).Model(&domain.Feedback{}).Scopes(scope)

	var total int64
	if err := db.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, nil, storeError("count feedback", err)
	}
	items := []domain.Feedback{}
	if offset, ok := pageOffset(page, limit); ok {
		err := db.Session(&gorm.Session{}).Order("created_at DESC, id DESC").
			Offset(offset).Limit(limit).Find(&items).Error
		if err != nil {
			return nil, nil, storeError("list feedback", err)
		}
	}
	return items, &Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	}, nil
}

// SetApproved approves or hides feedback.
func (s *FeedbackService) SetApproved(ctx context.Context, id uint, approved bool) (*domain.Feedback, error) {
	res := s.db.WithContext(ctx).Model(&domain.Feedback{}).Where("id = ?", id).
		Updates(map[string]any{"approved": approved, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return nil, storeError("update feedback", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.NotFound("feedback")
	}
	s.log.For(ctx).Info("SetApproved successful", zap.Uint("id", id), zap.Bool("approved", approved))

	var fb domain.Feedback
	if err := s.db.WithContext(ctx).First(&fb, id).Error; err != nil {
		return nil, notFoundOr(err, "feedback")
	}
	return &fb, nil
}

// Delete removes feedback permanently.
func (s *FeedbackService) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&domain.Feedback{}, id)
	if res.Error != nil {
		return storeError("delete feedback", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("feedback")
	}
	s.log.For(ctx).Info("Delete successful", zap.Uint("id", id))
	return nil
}
