package service

import (
	"context"

	"github.com/gluglu/gluglu-backend/internal/inventory/repository"
	"github.com/gluglu/gluglu-backend/pkg/logger"
)

// ShiftService handles shift lifecycle
type ShiftService struct {
	shiftRepo *repository.ShiftRepository
	logger    *logger.Logger
}

// NewShiftService creates a new shift service
func NewShiftService(shiftRepo *repository.ShiftRepository, log *logger.Logger) *ShiftService {
	return &ShiftService{
		shiftRepo: shiftRepo,
		logger:    log,
	}
}

// Open opens a new shift
func (s *ShiftService) Open(ctx context.Context, shift *repository.Shift) error {
	if err := s.shiftRepo.Open(ctx, shift); err != nil {
		return err
	}

	s.logger.Info().Int64("shift_id", shift.ID).Str("name", shift.Name).Msg("shift opened")
	return nil
}

// Close closes an open shift
func (s *ShiftService) Close(ctx context.Context, id int64) (*repository.Shift, error) {
	shift, err := s.shiftRepo.Close(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("shift_id", shift.ID).Msg("shift closed")
	return shift, nil
}

// Get gets a shift by ID
func (s *ShiftService) Get(ctx context.Context, id int64) (*repository.Shift, error) {
	return s.shiftRepo.GetByID(ctx, id)
}

// Current returns the latest open shift
func (s *ShiftService) Current(ctx context.Context) (*repository.Shift, error) {
	return s.shiftRepo.GetLatestOpen(ctx)
}

// List lists shifts, newest first
func (s *ShiftService) List(ctx context.Context, page, perPage int) ([]*repository.Shift, int64, error) {
	return s.shiftRepo.List(ctx, page, perPage)
}
