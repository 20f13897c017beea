// Package seed fills a database with demo users, tags and posts.
package seed

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/Leopold1975/microblog/internal/microblog/domain/models"
	"github.com/Leopold1975/microblog/internal/microblog/repository/tagrepo"
	"github.com/Leopold1975/microblog/internal/microblog/repository/userrepo"
	"github.com/Leopold1975/microblog/pkg/logger"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	DemoPassword = "password123"

	maxTagsPerPost = 4
	spread         = 90 * 24 * time.Hour
)

var (
	DemoUsers = []string{"alice", "bob", "charlie", "diana", "eve"}
	DemoTags  = []string{
		"go", "rust", "design", "music", "travel", "food", "books", "movies", "sports", "science",
		"art", "photo", "coding", "news", "games", "health", "startups", "ai", "opensource", "devops",
	}
)

var (
	openers = []string{"Just finished", "Thinking about", "Can't stop reading about", "Spent the day on", "Shipped"}
	topics  = []string{
		"a new side project", "the weekend hike", "a tricky bug", "an old vinyl record",
		"a great cup of coffee", "refactoring legacy code", "a long train ride", "my reading list",
	}
	closers = []string{"Worth it.", "More soon!", "Any tips?", "Highly recommend.", "What a day."}
)

type UserRepository interface {
	CreateUser(ctx context.Context, u models.User) error
	GetUserByName(ctx context.Context, name string) (models.User, error)
}

type TagRepository interface {
	CreateTag(ctx context.Context, t models.Tag) error
	GetTagByName(ctx context.Context, name string) (models.Tag, error)
}

type PostRepository interface {
	CreatePost(ctx context.Context, p models.Post) error
}

type Seeder struct {
	users UserRepository
	tags  TagRepository
	posts PostRepository
	rnd   *rand.Rand
	now   func() time.Time
	lg    logger.Logger
}

func New(users UserRepository, tags TagRepository, posts PostRepository, lg logger.Logger) *Seeder {
	return &Seeder{
		users: users,
		tags:  tags,
		posts: posts,
		rnd:   rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), //nolint:gosec
		now:   time.Now,
		lg:    lg,
	}
}

// Run creates the demo users and tags that are missing and then n posts.
// It is safe to run against an already seeded database.
func (s *Seeder) Run(ctx context.Context, n int) error {
	users, err := s.seedUsers(ctx)
	if err != nil {
		return err
	}

	tags, err := s.seedTags(ctx)
	if err != nil {
		return err
	}

	now := s.now().UTC()

	for i := 0; i < n; i++ {
		p := models.Post{
			ID:        uuid.NewString(),
			Content:   s.content(),
			AuthorID:  users[s.rnd.IntN(len(users))].ID,
			Tags:      s.pickTags(tags),
			CreatedAt: now.Add(-time.Duration(s.rnd.Int64N(int64(spread)))).Truncate(time.Microsecond),
		}

		if err := s.posts.CreatePost(ctx, p); err != nil {
			return fmt.Errorf("create post error: %w", err)
		}
	}

	s.lg.Infof("seeded %d users, %d tags, %d posts", len(users), len(tags), n)

	return nil
}

func (s *Seeder) seedUsers(ctx context.Context) ([]models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("generate from password error: %w", err)
	}

	passwordHash := string(hash)
	users := make([]models.User, 0, len(DemoUsers))

	for _, name := range DemoUsers {
		u, err := s.users.GetUserByName(ctx, name)
		if err == nil {
			users = append(users, u)

			continue
		} else if !errors.Is(err, userrepo.ErrNotFound) {
			return nil, fmt.Errorf("get user error: %w", err)
		}

		u = models.User{
			ID:           uuid.NewString(),
			Name:         name,
			PasswordHash: &passwordHash,
			Color:        models.AvatarColors[s.rnd.IntN(len(models.AvatarColors))],
			CreatedAt:    s.now().UTC(),
		}

		if err := s.users.CreateUser(ctx, u); err != nil {
			return nil, fmt.Errorf("create user error: %w", err)
		}

		users = append(users, u)
	}

	return users, nil
}

func (s *Seeder) seedTags(ctx context.Context) ([]models.Tag, error) {
	tags := make([]models.Tag, 0, len(DemoTags))

	for _, name := range DemoTags {
		t, err := s.tags.GetTagByName(ctx, name)
		if err == nil {
			tags = append(tags, t)

			continue
		} else if !errors.Is(err, tagrepo.ErrNotFound) {
			return nil, fmt.Errorf("get tag error: %w", err)
		}

		t = models.Tag{ID: uuid.NewString(), Name: name, CreatedAt: s.now().UTC()}
		if err := s.tags.CreateTag(ctx, t); err != nil {
			return nil, fmt.Errorf("create tag error: %w", err)
		}

		tags = append(tags, t)
	}

	return tags, nil
}

// pickTags returns up to maxTagsPerPost distinct tags.
func (s *Seeder) pickTags(tags []models.Tag) []models.Tag {
	n := s.rnd.IntN(maxTagsPerPost + 1)
	picked := make([]models.Tag, 0, n)

	for _, i := range s.rnd.Perm(len(tags))[:n] {
		picked = append(picked, tags[i])
	}

	return picked
}

func (s *Seeder) content() string {
	return strings.Join([]string{
		openers[s.rnd.IntN(len(openers))],
		topics[s.rnd.IntN(len(topics))] + ".",
		closers[s.rnd.IntN(len(closers))],
	}, " ")
}
