package dashboard

import (
	"context"
	"time"

	"github.com/projectdesk/projectdesk/internal/identity"
	"github.com/projectdesk/projectdesk/internal/projects"
	"github.com/projectdesk/projectdesk/internal/users"
)

// ProjectLister lists the projects visible to a principal.
type ProjectLister interface {
	List(ctx context.Context, p identity.Principal, q projects.ListQuery) ([]projects.Project, error)
}

// UserFinder loads a staff account.
type UserFinder interface {
	GetUser(ctx context.Context, id int64) (users.User, error)
}

// StatusCount is the number of projects in one state.
type StatusCount struct {
	Status  string
	Count   int
	Value   float64
	Advance float64
}

// Overview is the dashboard summary.
type Overview struct {
	Total     int
	Value     float64
	Advance   float64
	ByStatus  []StatusCount
	Recent    []projects.Project
	DueSoon   []projects.Project
	Generated time.Time
}

const (
	recentLimit = 5
	dueWindow   = 14 * 24 * time.Hour
)

// Service builds the dashboard, profile and settings pages.
type Service struct {
	projects ProjectLister
	users    UserFinder
	now      func() time.Time
}

// NewService builds Service instance.
func NewService(projects ProjectLister, users UserFinder) *Service {
	return &Service{projects: projects, users: users, now: time.Now}
}

// Overview summarizes the principal's active projects. Recent projects are
// the newest ones; due soon lists unfinished projects whose estimated
// completion falls within the next two weeks.
func (s *Service) Overview(ctx context.Context, p identity.Principal) (Overview, error) {
	list, err := s.projects.List(ctx, p, projects.ListQuery{Sort: projects.SortLatest})
	if err != nil {
		return Overview{}, err
	}
	now := s.now()
	out := Overview{Total: len(list), Generated: now}
	counts := make(map[string]StatusCount, len(projects.Statuses))
	for _, pr := range list {
		c := counts[pr.Status]
		c.Count++
		c.Value += pr.TotalValue
		c.Advance += pr.AdvancePayment
		counts[pr.Status] = c
		out.Value += pr.TotalValue
		out.Advance += pr.AdvancePayment
		if pr.Status != projects.StatusCompleted && !pr.EstimatedCompletion.IsZero() &&
			!pr.EstimatedCompletion.Before(now.Truncate(24*time.Hour)) && pr.EstimatedCompletion.Sub(now) <= dueWindow {
			out.DueSoon = append(out.DueSoon, pr)
		}
	}
	for _, status := range projects.Statuses {
		c := counts[status]
		c.Status = status
		out.ByStatus = append(out.ByStatus, c)
	}
	out.Recent = list[:min(recentLimit, len(list))]
	return out, nil
}

// Profile loads the principal's own account.
func (s *Service) Profile(ctx context.Context, p identity.Principal) (users.User, error) {
	return s.users.GetUser(ctx, p.ID)
}
