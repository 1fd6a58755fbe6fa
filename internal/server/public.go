package server

import (
	"net/http"

	"lumenai/internal/domain"
	"lumenai/internal/services"
	apperrors "lumenai/pkg/errors"
)

const (
	contactReceived  = "Thank you for reaching out. Our team will get back to you shortly."
	feedbackReceived = "Thank you for your feedback. It will appear once approved."
)

func (s *Server) mountPublic() {
	s.handle(http.MethodGet, "/health", s.health)
	s.handle(http.MethodGet, "/api/services", s.listServices)
	s.handleLimited("chat", http.MethodPost, "/api/chat", s.chat)
	s.handleLimited("contact", http.MethodPost, "/api/contact", s.submitContact)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) error {
	result, ok := s.svc.Health.Check(r.Context())
	status := http.StatusOK
	if !ok {
		status = http.StatusServiceUnavailable
	}
	return encode(w, r, status, result)
}

func (s *Server) listServices(w http.ResponseWriter, r *http.Request) error {
	return encode(w, r, http.StatusOK, map[string]any{"services": s.svc.Catalog.List()})
}

type chatRequest struct {
	Message string `json:"message"`
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) error {
	var req chatRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	reply, err := s.svc.Chat.Reply(req.Message)
	if err != nil {
		return err
	}
	return encode(w, r, http.StatusOK, reply)
}

type contactResponse struct {
	Message string          `json:"message"`
	Inquiry *domain.Inquiry `json:"inquiry"`
}

func (s *Server) submitContact(w http.ResponseWriter, r *http.Request) error {
	var in domain.InquiryInput
	if err := decode(r, &in); err != nil {
		return err
	}
	inq, err := s.svc.Inquiries.Submit(r.Context(), &in)
	if err != nil {
		return err
	}
	return encode(w, r, http.StatusCreated, contactResponse{Message: contactReceived, Inquiry: inq})
}

func (s *Server) mountFeedback() {
	s.handleLimited("feedback", http.MethodPost, "/api/feedback", s.submitFeedback)
	s.handle(http.MethodGet, "/api/feedback", s.listApprovedFeedback)

	s.handleAdmin(http.MethodGet, "/api/admin/feedback", s.listFeedback)
	s.handleAdmin(http.MethodPatch, "/api/admin/feedback/{id}", s.moderateFeedback)
	s.handleAdmin(http.MethodDelete, "/api/admin/feedback/{id}", s.deleteFeedback)
}

func (s *Server) submitFeedback(w http.ResponseWriter, r *http.Request) error {
	var in domain.FeedbackInput
	if err := decode(r, &in); err != nil {
		return err
	}
	fb, err := s.svc.Feedback.Submit(r.Context(), &in)
	if err != nil {
		return err
	}
	return encode(w, r, http.StatusCreated, map[string]any{"message": feedbackReceived, "feedback": fb})
}

type feedbackPage[T any] struct {
	Feedback   []T                 `json:"feedback"`
	Pagination services.Pagination `json:"pagination"`
}

func (s *Server) listApprovedFeedback(w http.ResponseWriter, r *http.Request) error {
	page, limit, err := pageParams(r)
	if err != nil {
		return err
	}
	items, p, err := s.svc.Feedback.ListApproved(r.Context(), page, limit)
	if err != nil {
		return err
	}
	return encode(w, r, http.StatusOK, feedbackPage[services.PublicFeedback]{Feedback: items, Pagination: *p})
}

func (s *Server) listFeedback(w http.ResponseWriter, r *http.Request) error {
	page, limit, err := pageParams(r)
	if err != nil {
		return err
	}
	approved, err := boolParam(r, "approved")
	if err != nil {
		return err
	}
	items, p, err := s.svc.Feedback.List(r.Context(), approved, page, limit)
	if err != nil {
		return err
	}
	return encode(w, r, http.StatusOK, feedbackPage[domain.Feedback]{Feedback: items, Pagination: *p})
}

type moderateRequest struct {
	Approved *bool `json:"approved"`
}

func (s *Server) moderateFeedback(w http.ResponseWriter, r *http.Request) error {
	id, err := s.pathID(r, "feedback")
	if err != nil {
		return err
	}
	var req moderateRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	if req.Approved == nil {
		return apperrors.Validation("invalid feedback update",
			apperrors.FieldError{Field: "approved", Message: "approved is required"})
	}
	fb, err := s.svc.Feedback.SetApproved(r.Context(), id, *req.Approved)
	if err != nil {
		return err
	}
	return encode(w, r, http.StatusOK, fb)
}

func (s *Server) deleteFeedback(w http.ResponseWriter, r *http.Request) error {
	id, err := s.pathID(r, "feedback")
	if err != nil {
		return err
	}
	if err := s.svc.Feedback.Delete(r.Context(), id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
