package ports

import (
	"context"

	"github.com/aretw0/parsetrail/pkg/domain"
)

// ParseRequest is the payload sent to the parsing service.
type ParseRequest struct {
	Sentence  string           `json:"sentence"`
	Grammar   string           `json:"grammar"`
	Algorithm domain.Algorithm `json:"algorithm"`
}

// TraceService is the external parsing service, treated as an opaque collaborator.
type TraceService interface {
	// Parse issues exactly one request and returns the ordered steps on success.
	// Any non-success status or transport failure is returned as an error.
	Parse(ctx context.Context, req ParseRequest) ([]domain.Step, error)
}
