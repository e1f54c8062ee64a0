package comments

import (
	"errors"
	"slices"
	"time"
)

// Validation failures caught before the backend is called.
var (
	ErrEmptyMessage = errors.New("comments: message is empty")
	ErrNoAuthor     = errors.New("comments: no signed-in user")
)

// Comment is one message in a thread.
type Comment struct {
	ID         int64
	Author     string
	AuthorRole string
	Text       string
	CreatedAt  time.Time
}

// Group holds the comments written on one calendar day.
type Group struct {
	Day      time.Time
	Comments []Comment
}

// GroupByDay buckets comments by the calendar day of their creation time as
// seen in loc. A nil loc keeps each timestamp's own location. Groups are
// ordered oldest first and comments keep their order within a day.
func GroupByDay(list []Comment, loc *time.Location) []Group {
	var groups []Group
	index := map[string]int{}
	for _, c := range list {
		if loc != nil {
			c.CreatedAt = c.CreatedAt.In(loc)
		}
		key := c.CreatedAt.Format(time.DateOnly)
		i, ok := index[key]
		if !ok {
			y, m, d := c.CreatedAt.Date()
			groups = append(groups, Group{Day: time.Date(y, m, d, 0, 0, 0, 0, c.CreatedAt.Location())})
			i = len(groups) - 1
			index[key] = i
		}
		groups[i].Comments = append(groups[i].Comments, c)
	}
	slices.SortStableFunc(groups, func(a, b Group) int {
		return a.Day.Compare(b.Day)
	})
	return groups
}
