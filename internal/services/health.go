package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"lumenai/internal/database"
)

const healthTimeout = 2 * time.Second

// HealthResult is the body of GET /health.
type HealthResult struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Version  string `json:"version"`
	Database string `json:"database"`
}

// HealthService implements the health service
type HealthService struct {
	db      *gorm.DB
	service string
	version string
}

// NewHealthService creates a new health service
func NewHealthService(db *gorm.DB, service, version string) *HealthService {
	return &HealthService{db: db, service: service, version: version}
}

// Check reports whether the service and its database are reachable.
func (s *HealthService) Check(ctx context.Context) (*HealthResult, bool) {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	result := &HealthResult{Status: "healthy", Service: s.service, Version: s.version, Database: "ok"}
	if err := database.HealthCheck(ctx, s.db); err != nil {
		result.Status = "degraded"
		result.Database = "unreachable"
		return result, false
	}
	return result, true
}
