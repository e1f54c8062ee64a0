package backend

import (
	"context"
	"net/http"
)

// Project is the backend representation of a project.
type Project struct {
	ID                  int64                 `json:"id"`
	Name                string                `json:"name"`
	Type                string                `json:"type"`
	Description         string                `json:"description"`
	ClientName          string                `json:"clientName"`
	ClientID            int64                 `json:"clientId"`
	Status              string                `json:"status"`
	TotalValue          Number                `json:"totalValue"`
	AdvancePayment      Number                `json:"advancePayment"`
	DeliveryAddress     string                `json:"deliveryAddress"`
	DeliveryHours       string                `json:"deliveryHours"`
	StartDate           Timestamp             `json:"startDate"`
	EstimatedCompletion Timestamp             `json:"estimatedCompletion"`
	AssignedTeamRoles   TeamRoles             `json:"assignedTeamRoles"`
	FileURLs            StringList            `json:"fileUrls"`
	Documents           map[string]StringList `json:"documents"`
	AllowClientView     bool                  `json:"allowClientView"`
	AllowComments       bool                  `json:"allowComments"`
	EnableNotifications bool                  `json:"enableNotifications"`
	IsArchived          bool                  `json:"isArchived"`
	CreatedAt           Timestamp             `json:"createdAt"`
}

// ListProjects returns every project visible to the token.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var out []Project
	if err := c.getJSON(ctx, "/projects", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetProject fetches one project.
func (c *Client) GetProject(ctx context.Context, id int64) (Project, error) {
	var out Project
	if err := c.getJSON(ctx, idPath("/projects/%d", id), nil, &out); err != nil {
		return Project{}, err
	}
	return out, nil
}

// CreateProject submits a new project as multipart form data.
func (c *Client) CreateProject(ctx context.Context, form *Form) (Project, error) {
	var out Project
	if err := c.sendForm(ctx, http.MethodPost, "/projects", form, &out); err != nil {
		return Project{}, err
	}
	return out, nil
}

// UpdateProject submits an edited project as multipart form data.
func (c *Client) UpdateProject(ctx context.Context, id int64, form *Form) error {
	return c.sendForm(ctx, http.MethodPut, idPath("/projects/%d", id), form, nil)
}

// UpdateProjectStatus changes only the project status.
func (c *Client) UpdateProjectStatus(ctx context.Context, id int64, status string) error {
	return c.sendJSON(ctx, http.MethodPut, idPath("/projects/%d", id), map[string]string{"status": status}, nil)
}

// ArchiveProject soft-deletes a project.
func (c *Client) ArchiveProject(ctx context.Context, id int64) error {
	return c.sendJSON(ctx, http.MethodPatch, idPath("/projects/%d/archive", id), nil, nil)
}
