package extract

import (
	"bytes"
	"context"

	"github.com/parchment-labs/parchment/internal/domain"
)

// Service dispatches extraction to the per-format extractor.
type Service struct{}

// NewService creates the extraction dispatcher.
func NewService() *Service {
	return &Service{}
}

// Extract picks the extractor for the filename's extension and runs it.
func (s *Service) Extract(ctx context.Context, filename string, data []byte) ([]domain.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ext, err := ForFile(filename)
	if err != nil {
		return nil, err
	}
	return ext.Extract(bytes.NewReader(data), filename)
}
