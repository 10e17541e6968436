package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/finnholt/beamcast/internal/models"
	"github.com/finnholt/beamcast/internal/repository"
	"github.com/finnholt/beamcast/internal/transfer"
	"github.com/lib/pq"
)

type BrandService interface {
	Create(ctx context.Context, userID int64, bc *transfer.BrandCreation) (int64, error)
	List(ctx context.Context, userID int64) ([]*models.BrandProfile, error)
	Update(ctx context.Context, userID, brandID int64, bc *transfer.BrandCreation) error
	Remove(ctx context.Context, userID, brandID int64) error
}

type brandService struct {
	br repository.BrandRepository
}

func NewBrandService(br repository.BrandRepository) BrandService {
	return &brandService{br: br}
}

func (s *brandService) Create(ctx context.Context, userID int64, bc *transfer.BrandCreation) (int64, error) {
	if bc == nil || bc.Name == "" {
		err := errors.New("brand name is required")
		slog.Info(err.Error())
		return 0, err
	}

	return s.br.Create(ctx, &models.BrandProfile{
		UserID:          userID,
		Name:            bc.Name,
		Tone:            bc.Tone,
		PrimaryHashtags: pq.StringArray(bc.PrimaryHashtags),
		CTATemplates:    pq.StringArray(bc.CTATemplates),
	})
}

func (s *brandService) List(ctx context.Context, userID int64) ([]*models.BrandProfile, error) {
	return s.br.ListByUserID(ctx, userID)
}

func (s *brandService) Update(ctx context.Context, userID, brandID int64, bc *transfer.BrandCreation) error {
	if bc == nil || bc.Name == "" {
		err := errors.New("brand name is required")
		slog.Info(err.Error())
		return err
	}

	if err := s.checkOwnership(ctx, brandID, userID); err != nil {
		return err
	}

	return s.br.Update(ctx, &models.BrandProfile{
		ID:              brandID,
		Name:            bc.Name,
		Tone:            bc.Tone,
		PrimaryHashtags: pq.StringArray(bc.PrimaryHashtags),
		CTATemplates:    pq.StringArray(bc.CTATemplates),
	})
}

func (s *brandService) Remove(ctx context.Context, userID, brandID int64) error {
	if err := s.checkOwnership(ctx, brandID, userID); err != nil {
		return err
	}
	return s.br.Remove(ctx, brandID)
}

func (s *brandService) checkOwnership(ctx context.Context, brandID, userID int64) error {
	owned, err := s.br.CheckByUserID(ctx, brandID, userID)
	if err != nil {
		return err
	}
	if !owned {
		err = errors.New("brand profile not found")
		slog.Info(err.Error())
		return err
	}
	return nil
}
