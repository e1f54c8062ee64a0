package customers

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/projectdesk/projectdesk/internal/platform/httpx"
)

// RepositoryPort defines data access methods for customers.
type RepositoryPort interface {
	ListCustomers(ctx context.Context) ([]Customer, error)
	ListDocuments(ctx context.Context, customerID int64) ([]Document, error)
	ProjectsFor(ctx context.Context, clientName string, names map[int64]string) ([]Project, error)
	StaffNames(ctx context.Context) (map[int64]string, error)
}

// Service handles customer views.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns customers matching search on name, email or phone, sorted
// by name.
func (s *Service) List(ctx context.Context, search string) ([]Customer, error) {
	all, err := s.repo.ListCustomers(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(search))
	out := make([]Customer, 0, len(all))
	for _, c := range all {
		if needle == "" ||
			strings.Contains(strings.ToLower(c.FullName), needle) ||
			strings.Contains(strings.ToLower(c.Email), needle) ||
			strings.Contains(c.Phone, needle) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].FullName) < strings.ToLower(out[j].FullName)
	})
	return out, nil
}

// Detail loads a customer with documents and projects.
func (s *Service) Detail(ctx context.Context, id int64) (Detail, error) {
	var (
		out   Detail
		names map[int64]string
		found bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		all, err := s.repo.ListCustomers(gctx)
		if err != nil {
			return err
		}
		for _, c := range all {
			if c.ID == id {
				out.Customer, found = c, true
				break
			}
		}
		return nil
	})
	g.Go(func() error {
		docs, err := s.repo.ListDocuments(gctx, id)
		out.Documents = docs
		return err
	})
	g.Go(func() error {
		var err error
		names, err = s.repo.StaffNames(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Detail{}, err
	}
	if !found {
		return Detail{}, fmt.Errorf("customer %d: %w", id, httpx.ErrNotFound)
	}
	projects, err := s.repo.ProjectsFor(ctx, out.Customer.FullName, names)
	if err != nil {
		return Detail{}, err
	}
	out.Projects = projects
	return out, nil
}
