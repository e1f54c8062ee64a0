package projects

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/projectdesk/projectdesk/internal/identity"
	"github.com/projectdesk/projectdesk/internal/platform/httpx"
	"github.com/projectdesk/projectdesk/internal/roles"
	"github.com/projectdesk/projectdesk/internal/shared"
)

// ErrItemsIncomplete is returned when a project was created but some of its
// lead-time items were rejected.
var ErrItemsIncomplete = errors.New("projects: some lead-time items were not saved")

// RepositoryPort defines data access methods for projects.
type RepositoryPort interface {
	ListProjects(ctx context.Context) ([]Project, error)
	GetProject(ctx context.Context, id int64) (Project, error)
	CreateProject(ctx context.Context, in ProjectInput, uploads []Upload) (int64, error)
	UpdateProject(ctx context.Context, id int64, in ProjectInput, kept, removed []string, uploads []Upload) error
	UpdateStatus(ctx context.Context, id int64, status string) error
	ArchiveProject(ctx context.Context, id int64) error
	ListItems(ctx context.Context, projectID int64) ([]Item, error)
	CreateItem(ctx context.Context, projectID int64, in ItemInput) error
	UpdateItem(ctx context.Context, projectID, id int64, in ItemInput) error
	DeleteItem(ctx context.Context, id int64) error
	InvoiceTotals(ctx context.Context, projectID int64) (int, float64, error)
	ListMembers(ctx context.Context) ([]Member, error)
	MembersByRole(ctx context.Context, role string) ([]Member, error)
	ListCustomers(ctx context.Context) ([]Customer, error)
}

// RoleSource lists the roles a project team can be assembled from.
type RoleSource interface {
	ListRoles(ctx context.Context) ([]roles.Role, error)
}

// Service handles project business logic.
type Service struct {
	repo  RepositoryPort
	roles RoleSource
	audit *shared.AuditLogger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, roles RoleSource, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, roles: roles, audit: audit}
}

// List returns the projects visible to p. Admins see every project, other
// principals only projects they are assigned to.
func (s *Service) List(ctx context.Context, p identity.Principal, q ListQuery) ([]Project, error) {
	all, err := s.repo.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	search := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]Project, 0, len(all))
	for _, project := range all {
		if project.Archived != q.Archived {
			continue
		}
		if !p.IsAdmin() && !project.AssignedTo(p.ID) {
			continue
		}
		if search != "" && !containsFold(project.Name, search) && !containsFold(project.ClientName, search) {
			continue
		}
		out = append(out, project)
	}
	sortProjects(out, q.Sort)
	return out, nil
}

func sortProjects(list []Project, order string) {
	switch order {
	case SortAToZ:
		sort.SliceStable(list, func(i, j int) bool {
			return strings.ToLower(list[i].Name) < strings.ToLower(list[j].Name)
		})
	case SortZToA:
		sort.SliceStable(list, func(i, j int) bool {
			return strings.ToLower(list[i].Name) > strings.ToLower(list[j].Name)
		})
	default:
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		})
	}
}

// Get returns one project.
func (s *Service) Get(ctx context.Context, id int64) (Project, error) {
	return s.repo.GetProject(ctx, id)
}

// Detail loads the project page: the project, its items, its invoice totals
// and the names of its team, fetched concurrently.
func (s *Service) Detail(ctx context.Context, id int64) (Detail, error) {
	var detail Detail
	var members []Member
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		project, err := s.repo.GetProject(ctx, id)
		if err != nil {
			return err
		}
		detail.Project = project
		return nil
	})
	g.Go(func() error {
		items, err := s.repo.ListItems(ctx, id)
		if err != nil {
			return err
		}
		detail.Items = items
		return nil
	})
	g.Go(func() error {
		count, total, err := s.repo.InvoiceTotals(ctx, id)
		if err != nil {
			return err
		}
		detail.InvoiceCount, detail.InvoicedTotal = count, total
		return nil
	})
	g.Go(func() error {
		list, err := s.repo.ListMembers(ctx)
		if err != nil {
			return err
		}
		members = list
		return nil
	})
	if err := g.Wait(); err != nil {
		return Detail{}, err
	}
	detail.TeamNames = make(map[int64]string, len(members))
	for _, m := range members {
		detail.TeamNames[m.ID] = m.Name
	}
	return detail, nil
}

// Customers returns the clients offered by the project form.
func (s *Service) Customers(ctx context.Context) ([]Customer, error) {
	return s.repo.ListCustomers(ctx)
}

// TeamChoices returns the assignable roles (levels 2 to 5) with their users.
func (s *Service) TeamChoices(ctx context.Context) ([]TeamChoice, error) {
	all, err := s.roles.ListRoles(ctx)
	if err != nil {
		return nil, err
	}
	var choices []TeamChoice
	for _, role := range all {
		if isTeamLevel(role.Level) {
			choices = append(choices, TeamChoice{Role: role.Title})
		}
	}
	g, ctx := errgroup.WithContext(ctx)
	for i := range choices {
		g.Go(func() error {
			members, err := s.repo.MembersByRole(ctx, choices[i].Role)
			if err != nil {
				return fmt.Errorf("members of %q: %w", choices[i].Role, err)
			}
			choices[i].Members = members
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return choices, nil
}

// Create submits the project and then its lead-time items. When items fail
// the project id is still returned together with ErrItemsIncomplete.
func (s *Service) Create(ctx context.Context, p identity.Principal, in ProjectInput, items []ItemInput, uploads []Upload) (int64, error) {
	in.Team = compactTeam(in.Team)
	id, err := s.repo.CreateProject(ctx, in, uploads)
	if err != nil {
		return 0, err
	}
	var failed []error
	if id > 0 {
		for _, item := range items {
			if err := s.repo.CreateItem(ctx, id, item); err != nil {
				failed = append(failed, fmt.Errorf("item %q: %w", item.Name, err))
			}
		}
	}
	s.audit.RecordQuiet(ctx, shared.AuditLog{ActorID: p.ID, Action: "project.create", Entity: "project", EntityID: strconv.FormatInt(id, 10),
		Meta: map[string]any{"name": in.Name, "items": len(items), "files": len(uploads)}})
	if len(failed) > 0 {
		return id, errors.Join(append([]error{ErrItemsIncomplete}, failed...)...)
	}
	return id, nil
}

// Update saves the edited project.
func (s *Service) Update(ctx context.Context, p identity.Principal, id int64, in ProjectInput, kept, removed []string, uploads []Upload) error {
	in.Team = compactTeam(in.Team)
	if err := s.repo.UpdateProject(ctx, id, in, kept, removed, uploads); err != nil {
		return err
	}
	s.audit.RecordQuiet(ctx, shared.AuditLog{ActorID: p.ID, Action: "project.update", Entity: "project", EntityID: strconv.FormatInt(id, 10),
		Meta: map[string]any{"removed_files": len(removed), "files": len(uploads)}})
	return nil
}

// ChangeStatus moves the project to status.
func (s *Service) ChangeStatus(ctx context.Context, p identity.Principal, id int64, status string) error {
	if !validStatus(status) {
		return fmt.Errorf("status %q: %w", status, httpx.ErrValidation)
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	s.audit.RecordQuiet(ctx, shared.AuditLog{ActorID: p.ID, Action: "project.status", Entity: "project", EntityID: strconv.FormatInt(id, 10),
		Meta: map[string]any{"status": status}})
	return nil
}

// Archive soft-deletes the project.
func (s *Service) Archive(ctx context.Context, p identity.Principal, id int64) error {
	if err := s.repo.ArchiveProject(ctx, id); err != nil {
		return err
	}
	s.audit.RecordQuiet(ctx, shared.AuditLog{ActorID: p.ID, Action: "project.archive", Entity: "project", EntityID: strconv.FormatInt(id, 10)})
	return nil
}

// Items returns the lead-time items of a project.
func (s *Service) Items(ctx context.Context, projectID int64) ([]Item, error) {
	return s.repo.ListItems(ctx, projectID)
}

// AddItem adds a lead-time item.
func (s *Service) AddItem(ctx context.Context, projectID int64, in ItemInput) error {
	return s.repo.CreateItem(ctx, projectID, in)
}

// UpdateItem edits a lead-time item.
func (s *Service) UpdateItem(ctx context.Context, projectID, id int64, in ItemInput) error {
	return s.repo.UpdateItem(ctx, projectID, id, in)
}

// DeleteItem removes a lead-time item.
func (s *Service) DeleteItem(ctx context.Context, p identity.Principal, projectID, id int64) error {
	if err := s.repo.DeleteItem(ctx, id); err != nil {
		return err
	}
	s.audit.RecordQuiet(ctx, shared.AuditLog{ActorID: p.ID, Action: "project.item.delete", Entity: "project", EntityID: strconv.FormatInt(projectID, 10),
		Meta: map[string]any{"item_id": id}})
	return nil
}

// compactTeam drops empty role names and keeps the first entry per role.
func compactTeam(team []TeamAssignment) []TeamAssignment {
	seen := make(map[string]bool, len(team))
	out := make([]TeamAssignment, 0, len(team))
	for _, entry := range team {
		if entry.Role == "" || seen[entry.Role] {
			continue
		}
		seen[entry.Role] = true
		out = append(out, entry)
	}
	return out
}

func validStatus(status string) bool {
	for _, s := range Statuses {
		if s == status {
			return true
		}
	}
	return false
}
