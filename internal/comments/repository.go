package comments

import (
	"context"
	"strings"

	"github.com/projectdesk/projectdesk/internal/backend"
)

// Repository reads and posts comments through the backend API.
type Repository struct {
	client *backend.Client
}

// NewRepository constructs a repository.
func NewRepository(client *backend.Client) *Repository {
	return &Repository{client: client}
}

// ListFileComments returns the comments on a project file.
func (r *Repository) ListFileComments(ctx context.Context, projectID int64, filePath string) ([]Comment, error) {
	rows, err := r.client.ListFileComments(ctx, projectID, filePath)
	if err != nil {
		return nil, err
	}
	return toComments(rows), nil
}

// AddFileComment posts a comment on a project file.
func (r *Repository) AddFileComment(ctx context.Context, projectID int64, filePath, category, text string, userID int64) error {
	return r.client.AddFileComment(ctx, projectID, backend.FileCommentInput{
		FilePath: filePath,
		Category: category,
		Comment:  text,
		UserID:   userID,
	})
}

// ListDocumentComments returns the comments on a customer document.
func (r *Repository) ListDocumentComments(ctx context.Context, documentID int64) ([]Comment, error) {
	rows, err := r.client.ListDocumentComments(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return toComments(rows), nil
}

// AddDocumentComment posts a comment on a customer document.
func (r *Repository) AddDocumentComment(ctx context.Context, documentID int64, text string, userID int64) error {
	return r.client.AddDocumentComment(ctx, backend.DocumentCommentInput{DocumentID: documentID, Message: text, UserID: userID})
}

// toComments flattens both backend comment shapes. File comments carry
// "comment" and document comments carry "message"; a comment without a
// staff author was written by the customer.
func toComments(rows []backend.Comment) []Comment {
	out := make([]Comment, 0, len(rows))
	for _, row := range rows {
		c := Comment{ID: row.ID, Text: row.Comment, CreatedAt: row.CreatedAt.Time}
		if c.Text == "" {
			c.Text = row.Message
		}
		switch {
		case row.User != nil:
			c.Author = row.User.Name()
			c.AuthorRole = row.User.Role
		case row.Customer != nil:
			c.Author = row.Customer.Name()
		}
		if c.AuthorRole == "" {
			c.AuthorRole = "Customer"
			if row.User != nil {
				c.AuthorRole = "Staff"
			}
		}
		c.Text = strings.TrimSpace(c.Text)
		out = append(out, c)
	}
	return out
}
