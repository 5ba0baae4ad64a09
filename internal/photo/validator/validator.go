// Package validator holds the size/type check applied to candidate photos.
package validator

import (
	"strings"

	"github.com/veronicavalera/gritgirls/internal/photo/domain"
)

const DefaultMaxMB = 5

type Validator struct {
	maxMB    int
	maxBytes int64
}

func New(maxMB int) *Validator {
	if maxMB <= 0 {
		maxMB = DefaultMaxMB
	}
	return &Validator{maxMB: maxMB, maxBytes: int64(maxMB) * 1024 * 1024}
}

func (v *Validator) MaxMB() int { return v.maxMB }

func (v *Validator) MaxBytes() int64 { return v.maxBytes }

// Check returns nil for an acceptable file and a *domain.RejectionError
// otherwise. Size is checked before type.
func (v *Validator) Check(f domain.LocalFile) error {
	if f.SizeBytes > v.maxBytes {
		return &domain.RejectionError{Name: f.Name, Reason: domain.ReasonOversized}
	}
	if !strings.HasPrefix(f.MimeType, "image/") {
		return &domain.RejectionError{Name: f.Name, Reason: domain.ReasonWrongType}
	}
	return nil
}

// Partition splits files into accepted and rejected, keeping input order.
func (v *Validator) Partition(files []domain.LocalFile) ([]domain.LocalFile, []*domain.RejectionError) {
	var (
		accepted []domain.LocalFile
		rejected []*domain.RejectionError
	)
	for _, f := range files {
		if err := v.Check(f); err != nil {
			rejected = append(rejected, err.(*domain.RejectionError))
			continue
		}
		accepted = append(accepted, f)
	}
	return accepted, rejected
}
