package services

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"lumenai/internal/domain"
	"lumenai/internal/metrics"
)

const (
	sourceContactForm = "contact_form"
	sourceAdmin       = "admin"
)

// InquiryService stores inquiries and answers the admin dashboard queries.
type InquiryService struct {
	db       *gorm.DB
	notifier *Notifier
	log      serviceLog
	now      func() time.Time
}

// NewInquiryService creates a new inquiry service
func NewInquiryService(db *gorm.DB, notifier *Notifier) *InquiryService {
	return &InquiryService{
		db:       db,
		notifier: notifier,
		log:      serviceLog("inquiry"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Submit stores a contact form submission and notifies the admin in the background.
func (s *InquiryService) Submit(ctx context.Context, in *domain.InquiryInput) (*domain.Inquiry, error) {
	inq, err := s.create(ctx, in, sourceContactForm)
	if err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.InquiryReceived(*inq)
	}
	return inq, nil
}

// Create stores an inquiry entered by an admin.
func (s *InquiryService) Create(ctx context.Context, in *domain.InquiryInput) (*domain.Inquiry, error) {
	return s.create(ctx, in, sourceAdmin)
}

func (s *InquiryService) create(ctx context.Context, in *domain.InquiryInput, source string) (*domain.Inquiry, error) {
	in.Normalize()
	s.log.For(ctx).Info("Create request", zap.String("source", source), zap.String("company", in.CompanyName))

	if err := in.Validate(); err != nil {
		s.log.For(ctx).Info("Create failed: validation error", zap.Error(err))
		return nil, err
	}

	inq := in.Inquiry()
	now := s.now()
	inq.CreatedAt = now
	inq.UpdatedAt = now

	if err := s.db.WithContext(ctx).Create(inq).Error; err != nil {
		s.log.For(ctx).Error("Create failed: database error", zap.Error(err))
		return nil, storeError("save inquiry", err)
	}

	s.log.For(ctx).Info("Create successful", zap.String("id", inq.ID), zap.String("source", source))
	metrics.RecordInquiryCreated(source)
	return inq, nil
}

// Get returns one inquiry by id.
func (s *InquiryService) Get(ctx context.Context, id string) (*domain.Inquiry, error) {
	var inq domain.Inquiry
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&inq).Error; err != nil {
		return nil, notFoundOr(err, "inquiry")
	}
	return &inq, nil
}

// Update applies a partial status and notes change. Nothing is written when
// validation fails, so the stored status stays as it was.
func (s *InquiryService) Update(ctx context.Context, id string, u *domain.InquiryUpdate) (*domain.Inquiry, error) {
	if err := u.Validate(); err != nil {
		s.log.For(ctx).Info("Update failed: validation error", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	changes := map[string]any{"updated_at": s.now()}
	if u.Status != nil {
		changes["status"] = *u.Status
	}
	if u.AdminNotes != nil {
		changes["admin_notes"] = *u.AdminNotes
	}

	res := s.db.WithContext(ctx).Model(&domain.Inquiry{}).Where("id = ?", id).Updates(changes)
	if res.Error != nil {
		s.log.For(ctx).Error("Update failed: database error", zap.String("id", id), zap.Error(res.Error))
		return nil, storeError("update inquiry", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, notFoundOr(gorm.ErrRecordNotFound, "inquiry")
	}

	if u.Status != nil {
		metrics.RecordStatusChange(*u.Status)
	}
	s.log.For(ctx).Info("Update successful", zap.String("id", id))
	return s.Get(ctx, id)
}

// SetStatus moves an inquiry to status.
func (s *InquiryService) SetStatus(ctx context.Context, id, status string) (*domain.Inquiry, error) {
	return s.Update(ctx, id, &domain.InquiryUpdate{Status: &status})
}

// SetAdminNotes replaces the internal notes of an inquiry.
func (s *InquiryService) SetAdminNotes(ctx context.Context, id, notes string) (*domain.Inquiry, error) {
	return s.Update(ctx, id, &domain.InquiryUpdate{AdminNotes: &notes})
}

// Delete removes an inquiry permanently.
func (s *InquiryService) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Inquiry{})
	if res.Error != nil {
		s.log.For(ctx).Error("Delete failed: database error", zap.String("id", id), zap.Error(res.Error))
		return storeError("delete inquiry", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFoundOr(gorm.ErrRecordNotFound, "inquiry")
	}
	s.log.For(ctx).Info("Delete successful", zap.String("id", id))
	return nil
}
