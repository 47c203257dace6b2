package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nwidmer/stempel/internal/domain"
	"github.com/nwidmer/stempel/internal/repository"
	"github.com/nwidmer/stempel/internal/timeutil"
)

type clientService struct {
	clients     repository.ClientRepo
	projects    repository.ProjectRepo
	allocations repository.AllocationRepo
}

// NewClientService creates the client CRUD service.
func NewClientService(clients repository.ClientRepo, projects repository.ProjectRepo, allocations repository.AllocationRepo) ClientService {
	return &clientService{clients: clients, projects: projects, allocations: allocations}
}

func (s *clientService) Create(ctx context.Context, c *domain.Client) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	now := timeutil.NowNaive()
	c.CreatedAt = now
	c.UpdatedAt = now
	return s.clients.Create(ctx, c)
}

func (s *clientService) GetByID(ctx context.Context, id string) (*domain.Client, error) {
	return s.clients.GetByID(ctx, id)
}

func (s *clientService) List(ctx context.Context, includeArchived bool) ([]*domain.Client, error) {
	return s.clients.List(ctx, includeArchived)
}

func (s *clientService) Update(ctx context.Context, c *domain.Client) error {
	if err := c.Validate(); err != nil {
		return err
	}
	return s.clients.Update(ctx, c)
}

func (s *clientService) Delete(ctx context.Context, id string) error {
	return s.clients.Delete(ctx, id)
}

func (s *clientService) HoursLogged(ctx context.Context, clientID string) (decimal.Decimal, error) {
	projects, err := s.projects.ListByClient(ctx, clientID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, p := range projects {
		hours, err := s.allocations.SumHoursByProject(ctx, p.ID)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(hours)
	}
	return total, nil
}
