package controller

import (
	"context"
	"fmt"

	e "github.com/gartstein/hr/internal/hr/errors"
	"github.com/gartstein/hr/internal/hr/events"
	"github.com/gartstein/hr/internal/hr/models"
	"github.com/gartstein/hr/internal/hr/query"
	"github.com/gartstein/hr/internal/hr/validator"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BenefitService manages the benefit catalog.
type BenefitService struct {
	repo      Repository
	validator *validator.Validator
	engine    *query.Engine
	producer  EventProducer
	logger    *zap.Logger
}

// NewBenefitService constructs a BenefitService.
func NewBenefitService(repo Repository, v *validator.Validator, engine *query.Engine, producer EventProducer, logger *zap.Logger) *BenefitService {
	return &BenefitService{
		repo:      repo,
		validator: v,
		engine:    engine,
		producer:  producer,
		logger:    logger.Named("benefit_service"),
	}
}

// Create adds a new benefit.
func (s *BenefitService) Create(ctx context.Context, b *models.Benefit) (*models.Benefit, error) {
	if b.Name == "" {
		return nil, e.InvalidInput("benefit", "name is required")
	}
	if !models.ValidBenefitType(b.Type) {
		return nil, e.InvalidInput("benefit", fmt.Sprintf("unknown benefit type %q", b.Type))
	}
	if b.Value < 0 {
		return nil, e.InvalidInput("benefit", "value must not be negative")
	}

	b.ID = uuid.New()
	if err := s.repo.CreateBenefit(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to create benefit: %w", err)
	}
	s.producer.Produce(events.BenefitCreated, b.ID, b)
	return b, nil
}

// Get retrieves a live benefit by id.
func (s *BenefitService) Get(ctx context.Context, id uuid.UUID) (*models.Benefit, error) {
	return s.repo.GetBenefit(ctx, id)
}

// Update applies a partial update. Value changes propagate to every
// enrollment without a custom amount on their next read.
func (s *BenefitService) Update(ctx context.Context, update *models.BenefitUpdate) (*models.Benefit, error) {
	if update.ID == uuid.Nil {
		return nil, e.InvalidInput("benefit", "invalid benefit ID")
	}
	if update.Name != nil && *update.Name == "" {
		return nil, e.InvalidInput("benefit", "name must not be empty")
	}
	if update.Type != nil && !models.ValidBenefitType(*update.Type) {
		return nil, e.InvalidInput("benefit", fmt.Sprintf("unknown benefit type %q", *update.Type))
	}
	if update.Value != nil && *update.Value < 0 {
		return nil, e.InvalidInput("benefit", "value must not be negative")
	}

	if err := s.repo.UpdateBenefit(ctx, update); err != nil {
		return nil, fmt.Errorf("failed to update benefit: %w", err)
	}
	updated, err := s.repo.GetBenefit(ctx, update.ID)
	if err != nil {
		return nil, err
	}
	s.producer.Produce(events.BenefitUpdated, updated.ID, updated)
	return updated, nil
}

// Delete tombstones the benefit. Active enrollments block the
// deletion with Conflict; historical ones survive it.
func (s *BenefitService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.validator.DeleteBenefit(ctx, id); err != nil {
		return fmt.Errorf("failed to delete benefit: %w", err)
	}
	s.producer.Produce(events.BenefitDeleted, id, nil)
	return nil
}

// ByDepartment returns the benefits the department's employees are or
// were enrolled in.
func (s *BenefitService) ByDepartment(ctx context.Context, departmentID uuid.UUID, sort query.Sort, page query.Page) (query.Result[models.Benefit], error) {
	if _, err := s.repo.GetDepartment(ctx, departmentID); err != nil {
		return query.Result[models.Benefit]{}, err
	}
	return s.engine.DepartmentBenefits(ctx, departmentID, sort, page)
}

// List returns one page of benefits matching the filter.
func (s *BenefitService) List(ctx context.Context, f query.BenefitFilter, sort query.Sort, page query.Page) (query.Result[models.Benefit], error) {
	page = page.Normalize()
	items, total, err := s.repo.ListBenefits(ctx, f, sort, page)
	if err != nil {
		return query.Result[models.Benefit]{}, err
	}
	return query.Result[models.Benefit]{Items: items, Total: total, Offset: page.Offset, Limit: page.Limit}, nil
}
