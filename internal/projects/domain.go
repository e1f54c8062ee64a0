package projects

import (
	"io"
	"strings"
	"time"
)

// Project lifecycle states.
const (
	StatusProposal     = "Proposal"
	StatusInProgress   = "In Progress"
	StatusDelivered    = "Delivered to Warehouse"
	StatusInstalled    = "Installed"
	StatusCompleted    = "Completed"
	defaultProjectType = "Residential"
)

// Statuses lists project states in workflow order.
var Statuses = []string{StatusProposal, StatusInProgress, StatusDelivered, StatusInstalled, StatusCompleted}

// Types lists the project categories offered by the forms.
var Types = []string{"Residential", "Commercial", "Hospitality", "Custom"}

// ItemStatuses lists lead-time item states.
var ItemStatuses = []string{"Pending", "In Transit", "Delivered", "Installed"}

// Team role levels offered when assigning a project team.
const (
	minTeamLevel = 2
	maxTeamLevel = 5
)

// Sort orders accepted by the project list.
const (
	SortLatest = ""
	SortAToZ   = "atoz"
	SortZToA   = "ztoa"
)

// TeamAssignment lists the users assigned to a project under one role.
type TeamAssignment struct {
	Role  string  `json:"role"`
	Users []int64 `json:"users"`
}

// Project is a customer project.
type Project struct {
	ID                  int64
	Name                string
	Type                string
	Description         string
	ClientName          string
	ClientID            int64
	Status              string
	TotalValue          float64
	AdvancePayment      float64
	DeliveryAddress     string
	DeliveryHours       string
	StartDate           time.Time
	EstimatedCompletion time.Time
	Team                []TeamAssignment
	Files               []string
	AllowClientView     bool
	AllowComments       bool
	EnableNotifications bool
	Archived            bool
	CreatedAt           time.Time
}

// AssignedTo reports whether userID is part of the project team.
func (p Project) AssignedTo(userID int64) bool {
	for _, entry := range p.Team {
		for _, id := range entry.Users {
			if id == userID {
				return true
			}
		}
	}
	return false
}

// Item is a lead-time tracked item of a project.
type Item struct {
	ID                   int64
	ProjectID            int64
	Name                 string
	Quantity             float64
	ExpectedDeliveryDate time.Time
	ExpectedArrivalDate  time.Time
	Status               string
}

// ItemInput carries one lead-time row as edited in a form.
type ItemInput struct {
	Name                 string  `json:"itemName" validate:"required,max=200"`
	Quantity             float64 `json:"quantity" validate:"gt=0"`
	ExpectedDeliveryDate string  `json:"expectedDeliveryDate" validate:"omitempty,datetime=2006-01-02"`
	ExpectedArrivalDate  string  `json:"expectedArrivalDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Status               string  `json:"status" validate:"oneof=Pending 'In Transit' Delivered Installed"`
}

// ProjectInput carries the project form. It is also the persisted wizard
// draft, hence the JSON tags.
type ProjectInput struct {
	Name                string           `json:"name" validate:"required,max=200"`
	Type                string           `json:"type" validate:"oneof=Residential Commercial Hospitality Custom"`
	ClientName          string           `json:"clientName" validate:"required"`
	ClientID            int64            `json:"clientId"`
	Description         string           `json:"description" validate:"max=2000"`
	StartDate           string           `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EstimatedCompletion string           `json:"estimatedCompletion" validate:"omitempty,datetime=2006-01-02"`
	TotalValue          float64          `json:"totalValue" validate:"gte=0"`
	AdvancePayment      float64          `json:"advancePayment" validate:"gte=0"`
	DeliveryAddress     string           `json:"deliveryAddress" validate:"max=500"`
	DeliveryHours       string           `json:"deliveryHours" validate:"max=100"`
	Status              string           `json:"status" validate:"oneof=Proposal 'In Progress' 'Delivered to Warehouse' Installed Completed"`
	Team                []TeamAssignment `json:"assignedTeamRoles"`
	AllowClientView     bool             `json:"allowClientView"`
	AllowComments       bool             `json:"allowComments"`
	EnableNotifications bool             `json:"enableNotifications"`
}

// NewProjectInput returns the defaults of a blank project form.
func NewProjectInput() ProjectInput {
	return ProjectInput{
		Type:                defaultProjectType,
		Status:              StatusProposal,
		AllowClientView:     true,
		AllowComments:       true,
		EnableNotifications: true,
	}
}

// InputFromProject prepares the edit form of p.
func InputFromProject(p Project) ProjectInput {
	in := ProjectInput{
		Name:                p.Name,
		Type:                p.Type,
		ClientName:          p.ClientName,
		ClientID:            p.ClientID,
		Description:         p.Description,
		StartDate:           dateString(p.StartDate),
		EstimatedCompletion: dateString(p.EstimatedCompletion),
		TotalValue:          p.TotalValue,
		AdvancePayment:      p.AdvancePayment,
		DeliveryAddress:     p.DeliveryAddress,
		DeliveryHours:       p.DeliveryHours,
		Status:              p.Status,
		Team:                p.Team,
		AllowClientView:     p.AllowClientView,
		AllowComments:       p.AllowComments,
		EnableNotifications: p.EnableNotifications,
	}
	if in.Type == "" {
		in.Type = defaultProjectType
	}
	if in.Status == "" {
		in.Status = StatusProposal
	}
	return in
}

// TeamUsers returns the users assigned under role.
func (in ProjectInput) TeamUsers(role string) []int64 {
	for _, entry := range in.Team {
		if entry.Role == role {
			return entry.Users
		}
	}
	return nil
}

// HasRole reports whether role is part of the team selection.
func (in ProjectInput) HasRole(role string) bool {
	for _, entry := range in.Team {
		if entry.Role == role {
			return true
		}
	}
	return false
}

// Upload is a file attached to a project submission.
type Upload struct {
	Filename string
	Content  io.Reader
}

// Member is a user that can be assigned to a project team.
type Member struct {
	ID   int64
	Name string
}

// TeamChoice is one assignable role with its users.
type TeamChoice struct {
	Role    string
	Members []Member
}

// Customer is a client that projects can be created for.
type Customer struct {
	ID       int64
	FullName string
	Email    string
}

// ListQuery filters and orders the project list.
type ListQuery struct {
	Search   string
	Sort     string
	Archived bool
}

// Detail aggregates what the project page shows.
type Detail struct {
	Project       Project
	Items         []Item
	InvoiceCount  int
	InvoicedTotal float64
	TeamNames     map[int64]string
}

func dateString(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}

func isTeamLevel(level int) bool {
	return level >= minTeamLevel && level <= maxTeamLevel
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), needle)
}
