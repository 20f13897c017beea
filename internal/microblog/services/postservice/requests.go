package postservice

import (
	"github.com/go-playground/validator/v10"
)

const maxTags = 5

type CreatePostRequest struct {
	Content  string   `json:"content"  validate:"required,min=1,max=240"`
	TagIDs   []string `json:"tagIds"   validate:"omitempty,max=5,dive,uuid"`
	TagNames []string `json:"tagNames" validate:"omitempty,max=5,dive,max=12"`
}

// UpdatePostRequest keeps fields that are absent from the body. A present
// tagIds or tagNames, even empty, replaces the whole tag set.
type UpdatePostRequest struct {
	Content  *string  `json:"content"  validate:"omitempty,min=1,max=240"`
	TagIDs   []string `json:"tagIds"   validate:"omitempty,max=5,dive,uuid"`
	TagNames []string `json:"tagNames" validate:"omitempty,max=5,dive,max=12"`
}

func (r UpdatePostRequest) replacesTags() bool {
	return r.TagIDs != nil || r.TagNames != nil
}

// ListPostsRequest holds feed query parameters as received.
type ListPostsRequest struct {
	AuthorIDs []string `json:"authorIds" validate:"omitempty,dive,uuid"`
	TagIDs    []string `json:"tagIds"    validate:"omitempty,dive,uuid"`
	Limit     *int     `json:"limit"`
	Cursor    string   `json:"cursor"`
	Sort      string   `json:"sort"      validate:"omitempty,oneof=asc desc"`
}

const (
	DefaultLimit = 20
	MinLimit     = 10
	MaxLimit     = 50
)

func totalTagsRule(sl validator.StructLevel) {
	var ids, names int

	switch r := sl.Current().Interface().(type) {
	case CreatePostRequest:
		ids, names = len(r.TagIDs), len(r.TagNames)
	case UpdatePostRequest:
		ids, names = len(r.TagIDs), len(r.TagNames)
	default:
		return
	}

	if ids+names > maxTags {
		sl.ReportError(ids+names, "tagIds", "TagIDs", "totaltags", "5")
	}
}
