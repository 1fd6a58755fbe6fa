package server

import (
	"encoding/json"
	"net/http"

	"gorm.io/gorm"

	"lumenai/internal/domain"
	"lumenai/internal/services"
)

// scopeFunc derives extra public list conditions from the request.
type scopeFunc func(r *http.Request) ([]func(*gorm.DB) *gorm.DB, error)

// mountContent registers public and admin routes for one content type under
// /api/{plural} and /api/admin/{plural}.
func mountContent[T any, PT interface {
	*T
	domain.Content
}](s *Server, plural, resource string, svc *services.ContentService[T, PT], publicScopes scopeFunc) {
	public := "/api/" + plural
	admin := "/api/admin/" + plural

	s.handle(http.MethodGet, public, func(w http.ResponseWriter, r *http.Request) error {
		opts, err := listOptions(r)
		if err != nil {
			return err
		}
		if publicScopes != nil {
			scopes, err := publicScopes(r)
			if err != nil {
				return err
			}
			opts.Scopes = append(opts.Scopes, scopes...)
		}
		page, err := svc.ListPublished(r.Context(), opts)
		if err != nil {
			return err
		}
		return encode(w, r, http.StatusOK, page)
	})

	s.handle(http.MethodGet, public+"/{slug}", func(w http.ResponseWriter, r *http.Request) error {
		item, err := svc.GetPublished(r.Context(), s.mux.Vars(r)["slug"])
		if err != nil {
			return err
		}
		return encode(w, r, http.StatusOK, item)
	})

	s.handleAdmin(http.MethodGet, admin, func(w http.ResponseWriter, r *http.Request) error {
		opts, err := listOptions(r)
		if err != nil {
			return err
		}
		published, err := boolParam(r, "published")
		if err != nil {
			return err
		}
		if published != nil {
			opts.Scopes = append(opts.Scopes, func(db *gorm.DB) *gorm.DB {
				return db.Where("published = ?", *published)
			})
		}
		page, err := svc.List(r.Context(), opts)
		if err != nil {
			return err
		}
		return encode(w, r, http.StatusOK, page)
	})

	s.handleAdmin(http.MethodPost, admin, func(w http.ResponseWriter, r *http.Request) error {
		var fields map[string]json.RawMessage
		if err := decode(r, &fields); err != nil {
			return err
		}
		item, err := svc.Create(r.Context(), fields)
		if err != nil {
			return err
		}
		return encode(w, r, http.StatusCreated, item)
	})

	s.handleAdmin(http.MethodGet, admin+"/{id}", func(w http.ResponseWriter, r *http.Request) error {
		id, err := s.pathID(r, resource)
		if err != nil {
			return err
		}
		item, err := svc.Get(r.Context(), id)
		if err != nil {
			return err
		}
		return encode(w, r, http.StatusOK, item)
	})

	s.handleAdmin(http.MethodPatch, admin+"/{id}", func(w http.ResponseWriter, r *http.Request) error {
		id, err := s.pathID(r, resource)
		if err != nil {
			return err
		}
		var fields map[string]json.RawMessage
		if err := decode(r, &fields); err != nil {
			return err
		}
		item, err := svc.Update(r.Context(), id, fields)
		if err != nil {
			return err
		}
		return encode(w, r, http.StatusOK, item)
	})

	s.handleAdmin(http.MethodDelete, admin+"/{id}", func(w http.ResponseWriter, r *http.Request) error {
		id, err := s.pathID(r, resource)
		if err != nil {
			return err
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			return err
		}
		w.WriteHeader(http.StatusNoContent)
		return nil
	})
}

func listOptions(r *http.Request) (services.ListOptions, error) {
	page, limit, err := pageParams(r)
	if err != nil {
		return services.ListOptions{}, err
	}
	return services.ListOptions{Page: page, Limit: limit}, nil
}

// upcomingScope limits public event listings to future events when ?upcoming=true.
func (s *Server) upcomingScope(r *http.Request) ([]func(*gorm.DB) *gorm.DB, error) {
	upcoming, err := boolParam(r, "upcoming")
	if err != nil || upcoming == nil || !*upcoming {
		return nil, err
	}
	return []func(*gorm.DB) *gorm.DB{services.UpcomingEvents(s.now())}, nil
}
