package server

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"lumenai/internal/domain"
	"lumenai/internal/services"
)

func (s *Server) mountInquiries() {
	s.handleAdmin(http.MethodGet, "/api/admin/inquiries", s.listInquiries)
	s.handleAdmin(http.MethodPost, "/api/admin/inquiries", s.createInquiry)
	s.handleAdmin(http.MethodGet, "/api/admin/inquiries/{id}", s.getInquiry)
	s.handleAdmin(http.MethodPatch, "/api/admin/inquiries/{id}", s.updateInquiry)
	s.handleAdmin(http.MethodDelete, "/api/admin/inquiries/{id}", s.deleteInquiry)
	s.handleAdmin(http.MethodGet, "/api/admin/analytics", s.inquiryMetrics)
	s.handleAdmin(http.MethodGet, "/api/admin/analytics/export", s.exportInquiries)
}

func (s *Server) listInquiries(w http.ResponseWriter, r *http.Request) error {
	q, err := services.ParseInquiryQuery(r.URL.Query())
	if err != nil {
		return err
	}
	page, err := s.svc.Inquiries.List(r.Context(), q)
	if err != nil {
		return err
	}
	return encode(w, r, http.StatusOK, page)
}

func (s *Server) createInquiry(w http.ResponseWriter, r *http.Request) error {
	var in domain.InquiryInput
	if err := decode(r, &in); err != nil {
		return err
	}
	inq, err := s.svc.Inquiries.Create(r.Context(), &in)
	if err != nil {
		return err
	}
	return encode(w, r, http.StatusCreated, inq)
}

func (s *Server) getInquiry(w http.ResponseWriter, r *http.Request) error {
	inq, err := s.svc.Inquiries.Get(r.Context(), s.mux.Vars(r)["id"])
	if err != nil {
		return err
	}
	return encode(w, r, http.StatusOK, inq)
}

func (s *Server) updateInquiry(w http.ResponseWriter, r *http.Request) error {
	var u domain.InquiryUpdate
	if err := decode(r, &u); err != nil {
		return err
	}
	inq, err := s.svc.Inquiries.Update(r.Context(), s.mux.Vars(r)["id"], &u)
	if err != nil {
		return err
	}
	return encode(w, r, http.StatusOK, inq)
}

func (s *Server) deleteInquiry(w http.ResponseWriter, r *http.Request) error {
	if err := s.svc.Inquiries.Delete(r.Context(), s.mux.Vars(r)["id"]); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Server) inquiryMetrics(w http.ResponseWriter, r *http.Request) error {
	m, err := s.svc.Inquiries.Metrics(r.Context())
	if err != nil {
		return err
	}
	return encode(w, r, http.StatusOK, m)
}

// exportInquiries streams the filtered inquiries as a CSV attachment.
func (s *Server) exportInquiries(w http.ResponseWriter, r *http.Request) error {
	f, err := services.ParseInquiryFilter(r.URL.Query())
	if err != nil {
		return err
	}

	out := &attachmentWriter{w: w, filename: services.ExportFilename(s.now())}
	if _, err := s.svc.Inquiries.ExportCSV(r.Context(), &f, out); err != nil {
		if !out.started {
			return err
		}
		// Headers are gone; the client sees a truncated file.
		requestLog(r).Error("Export aborted mid-stream", zap.Error(err))
	}
	return nil
}

// attachmentWriter sends the CSV headers on the first write, so a failure
// before any output can still be reported as a JSON error.
type attachmentWriter struct {
	w        http.ResponseWriter
	filename string
	started  bool
}

func (a *attachmentWriter) Write(p []byte) (int, error) {
	if !a.started {
		a.started = true
		a.w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		a.w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", a.filename))
		a.w.WriteHeader(http.StatusOK)
	}
	return a.w.Write(p)
}
