package models

import "time"

type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"-"`
}

type TagRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Post struct {
	ID          string
	Content     string
	AuthorID    string
	AuthorName  string
	AuthorColor string
	Tags        []Tag
	CreatedAt   time.Time
}

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// PostResponse is the wire shape of a post.
type PostResponse struct {
	ID          string    `json:"id"`
	Content     string    `json:"content"`
	Tags        []TagRef  `json:"tags"`
	AuthorID    string    `json:"authorId"`
	AuthorName  string    `json:"authorName"`
	AuthorColor string    `json:"authorColor"`
	CreatedAt   time.Time `json:"createdAt"`
}

type PostsPage struct {
	Items      []PostResponse `json:"items"`
	NextCursor string         `json:"nextCursor,omitempty"`
}

func (p Post) Response() PostResponse {
	tags := make([]TagRef, 0, len(p.Tags))
	for _, t := range p.Tags {
		tags = append(tags, TagRef{ID: t.ID, Name: t.Name})
	}

	return PostResponse{
		ID:          p.ID,
		Content:     p.Content,
		Tags:        tags,
		AuthorID:    p.AuthorID,
		AuthorName:  p.AuthorName,
		AuthorColor: p.AuthorColor,
		CreatedAt:   p.CreatedAt,
	}
}
