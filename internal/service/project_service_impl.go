package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nwidmer/stempel/internal/domain"
	"github.com/nwidmer/stempel/internal/repository"
	"github.com/nwidmer/stempel/internal/timeutil"
)

type projectService struct {
	projects    repository.ProjectRepo
	clients     repository.ClientRepo
	allocations repository.AllocationRepo
}

// NewProjectService creates the project CRUD service.
func NewProjectService(projects repository.ProjectRepo, clients repository.ClientRepo, allocations repository.AllocationRepo) ProjectService {
	return &projectService{projects: projects, clients: clients, allocations: allocations}
}

func (s *projectService) Create(ctx context.Context, p *domain.Project) error {
	if err := p.Validate(); err != nil {
		return err
	}
	// The owning client must exist before a project can reference it.
	if _, err := s.clients.GetByID(ctx, p.ClientID); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := timeutil.NowNaive()
	p.CreatedAt = now
	p.UpdatedAt = now
	return s.projects.Create(ctx, p)
}

func (s *projectService) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	return s.projects.GetByID(ctx, id)
}

func (s *projectService) List(ctx context.Context, includeArchived bool) ([]*domain.Project, error) {
	return s.projects.List(ctx, includeArchived)
}

func (s *projectService) ListByClient(ctx context.Context, clientID string) ([]*domain.Project, error) {
	return s.projects.ListByClient(ctx, clientID)
}

func (s *projectService) Update(ctx context.Context, p *domain.Project) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if _, err := s.clients.GetByID(ctx, p.ClientID); err != nil {
		return err
	}
	return s.projects.Update(ctx, p)
}

func (s *projectService) Delete(ctx context.Context, id string) error {
	return s.projects.Delete(ctx, id)
}

func (s *projectService) HoursLogged(ctx context.Context, projectID string) (decimal.Decimal, error) {
	return s.allocations.SumHoursByProject(ctx, projectID)
}
