package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
)

// Author identifies who wrote a comment. Staff users carry first and last
// names while customers carry a full name.
type Author struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	FullName  string `json:"full_name"`
	Role      string `json:"userRole"`
}

// Name returns a display name for the author.
func (a *Author) Name() string {
	if a == nil {
		return ""
	}
	if a.FullName != "" {
		return a.FullName
	}
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// Comment is a project file comment or customer document comment.
type Comment struct {
	ID         int64     `json:"id"`
	DocumentID int64     `json:"documentId"`
	FilePath   string    `json:"filePath"`
	Message    string    `json:"message"`
	Comment    string    `json:"comment"`
	User       *Author   `json:"-"`
	Customer   *Author   `json:"-"`
	CreatedAt  Timestamp `json:"createdAt"`
}

// UnmarshalJSON accepts author objects under either lower or title case keys.
func (c *Comment) UnmarshalJSON(data []byte) error {
	type plain Comment
	var aux struct {
		plain
		UserLower     *Author `json:"user"`
		UserTitle     *Author `json:"User"`
		CustomerLower *Author `json:"customer"`
		CustomerTitle *Author `json:"Customer"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*c = Comment(aux.plain)
	c.User = firstAuthor(aux.UserTitle, aux.UserLower)
	c.Customer = firstAuthor(aux.CustomerTitle, aux.CustomerLower)
	return nil
}

func firstAuthor(candidates ...*Author) *Author {
	for _, a := range candidates {
		if a != nil {
			return a
		}
	}
	return nil
}

// FileCommentInput posts a comment on a project file.
type FileCommentInput struct {
	FilePath string `json:"filePath"`
	Category string `json:"category"`
	Comment  string `json:"comment"`
	UserID   int64  `json:"userId"`
}

// DocumentCommentInput posts a comment on a customer document.
type DocumentCommentInput struct {
	DocumentID int64  `json:"documentId"`
	Message    string `json:"message"`
	UserID     int64  `json:"userId"`
}

// ListFileComments returns the comments on one project file.
func (c *Client) ListFileComments(ctx context.Context, projectID int64, filePath string) ([]Comment, error) {
	var out []Comment
	query := url.Values{"filePath": []string{filePath}}
	if err := c.getJSON(ctx, idPath("/projects/%d/file-comments", projectID), query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddFileComment posts a project file comment.
func (c *Client) AddFileComment(ctx context.Context, projectID int64, in FileCommentInput) error {
	return c.sendJSON(ctx, http.MethodPost, idPath("/projects/%d/file-comments", projectID), in, nil)
}

// ListDocumentComments returns the comments on a customer document.
func (c *Client) ListDocumentComments(ctx context.Context, documentID int64) ([]Comment, error) {
	var out []Comment
	if err := c.getJSON(ctx, idPath("/customerDoc/comments/%d", documentID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddDocumentComment posts a customer document comment.
func (c *Client) AddDocumentComment(ctx context.Context, in DocumentCommentInput) error {
	return c.sendJSON(ctx, http.MethodPost, "/customerDoc/comments", in, nil)
}
