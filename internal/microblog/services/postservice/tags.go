package postservice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Leopold1975/microblog/internal/microblog/domain/models"
	"github.com/Leopold1975/microblog/internal/microblog/repository/tagrepo"
	"github.com/google/uuid"
)

// resolveTags turns tag ids and free-form names into a list of stored tags
// without duplicates. Unknown names are created; tags created here stay even
// if the post write fails later.
func (ps *PostService) resolveTags(ctx context.Context, ids, names []string) ([]models.Tag, error) {
	tags := make([]models.Tag, 0, len(ids)+len(names))
	seen := make(map[string]struct{}, len(ids)+len(names))

	if len(ids) != 0 {
		unique := make([]string, 0, len(ids))
		for _, id := range ids {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				unique = append(unique, id)
			}
		}

		found, err := ps.tagRepo.GetTagsByIDs(ctx, unique)
		if err != nil {
			return nil, fmt.Errorf("get tags error: %w", err)
		}

		// a repeated id counts as a requested tag that was not found
		if len(found) < len(ids) {
			return nil, ErrTagsNotFound
		}

		byID := make(map[string]models.Tag, len(found))
		for _, t := range found {
			byID[t.ID] = t
		}

		for _, id := range unique {
			tags = append(tags, byID[id])
		}
	}

	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}

		t, err := ps.findOrCreateTag(ctx, name)
		if err != nil {
			return nil, err
		}

		if _, ok := seen[t.ID]; ok {
			continue
		}

		seen[t.ID] = struct{}{}
		tags = append(tags, t)
	}

	return tags, nil
}

func (ps *PostService) findOrCreateTag(ctx context.Context, name string) (models.Tag, error) {
	t, err := ps.tagRepo.GetTagByName(ctx, name)
	if err == nil {
		return t, nil
	} else if !errors.Is(err, tagrepo.ErrNotFound) {
		return models.Tag{}, fmt.Errorf("get tag error: %w", err)
	}

	t = models.Tag{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	err = ps.tagRepo.CreateTag(ctx, t)
	if err == nil {
		ps.lg.Debugf("tag %q created", name)

		return t, nil
	}

	// a concurrent request created the same name first
	if errors.Is(err, tagrepo.ErrAlreadyExists) {
		t, err = ps.tagRepo.GetTagByName(ctx, name)
		if err != nil {
			return models.Tag{}, fmt.Errorf("get tag after conflict error: %w", err)
		}

		return t, nil
	}

	return models.Tag{}, fmt.Errorf("create tag error: %w", err)
}
