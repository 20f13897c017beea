package postservice_test

import (
	"context"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/Leopold1975/microblog/internal/microblog/domain/errs"
	"github.com/Leopold1975/microblog/internal/microblog/domain/models"
	"github.com/Leopold1975/microblog/internal/microblog/repository/feedcache"
	"github.com/Leopold1975/microblog/internal/microblog/repository/postrepo"
	postsqlite "github.com/Leopold1975/microblog/internal/microblog/repository/postrepo/sqlite"
	tagsqlite "github.com/Leopold1975/microblog/internal/microblog/repository/tagrepo/sqlite"
	usersqlite "github.com/Leopold1975/microblog/internal/microblog/repository/userrepo/sqlite"
	"github.com/Leopold1975/microblog/internal/microblog/services/postservice"
	"github.com/Leopold1975/microblog/internal/pkg/config"
	"github.com/Leopold1975/microblog/internal/pkg/sqlitetools"
	"github.com/Leopold1975/microblog/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCache struct {
	mu          sync.Mutex
	gen         int
	pages       map[string]models.PostsPage
	invalidated int
}

func newMemCache() *memCache {
	return &memCache{pages: make(map[string]models.PostsPage)}
}

func (c *memCache) PageKey(_ context.Context, query string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return strconv.Itoa(c.gen) + ":" + query, nil
}

func (c *memCache) GetPage(_ context.Context, key string) (models.PostsPage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.pages[key]
	if !ok {
		return models.PostsPage{}, feedcache.ErrMiss
	}

	return p, nil
}

func (c *memCache) SetPage(_ context.Context, key string, page models.PostsPage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pages[key] = page

	return nil
}

func (c *memCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	c.invalidated++

	return nil
}

type testEnv struct {
	svc   *postservice.PostService
	users usersqlite.UsersSQLiteRepo
	tags  tagsqlite.TagsSQLiteRepo
	posts postsqlite.PostsSQLiteRepo
	cache *memCache
}

func setupTestPosts(t *testing.T) testEnv {
	t.Helper()

	db, err := sqlitetools.Open(context.Background(), config.DB{ //nolint:exhaustruct
		Driver: config.DriverSQLite,
		SQLite: config.SQLiteDB{Path: filepath.Join(t.TempDir(), "posts.sqlite")},
	})
	require.NoError(t, err)

	t.Cleanup(func() { db.Close() })

	env := testEnv{
		users: usersqlite.New(db),
		tags:  tagsqlite.New(db),
		posts: postsqlite.New(db),
		cache: newMemCache(),
	}
	env.svc = postservice.New(env.posts, env.tags, env.cache, logger.NewNop())

	return env
}

func (env testEnv) createUser(t *testing.T, name string) string {
	t.Helper()

	id := uuid.NewString()
	require.NoError(t, env.users.CreateUser(context.Background(), models.User{
		ID: id, Name: name, Color: models.DefaultColor, CreatedAt: time.Now().UTC(),
	}))

	return id
}

// seedPosts inserts n posts one second apart, oldest first.
func (env testEnv) seedPosts(t *testing.T, authorID string, n int) []string {
	t.Helper()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ids := make([]string, 0, n)

	for i := 0; i < n; i++ {
		p := models.Post{
			ID:        uuid.NewString(),
			Content:   "post",
			AuthorID:  authorID,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, env.posts.CreatePost(context.Background(), p))

		ids = append(ids, p.ID)
	}

	return ids
}

func intPtr(v int) *int {
	return &v
}

func TestCreatePostDeduplicatesTagNames(t *testing.T) {
	env := setupTestPosts(t)
	alice := env.createUser(t, "alice")

	p, err := env.svc.CreatePost(context.Background(), alice, postservice.CreatePostRequest{
		Content:  "hello",
		TagNames: []string{"Tech", "tech", "  TECH ", " "},
	})
	require.NoError(t, err)
	require.Len(t, p.Tags, 1)
	assert.Equal(t, "tech", p.Tags[0].Name)
	assert.Equal(t, "alice", p.AuthorName)
	assert.Equal(t, 1, env.cache.invalidated)
}

func TestCreatePostMixesIDsAndNames(t *testing.T) {
	env := setupTestPosts(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")

	existing := models.Tag{ID: uuid.NewString(), Name: "golang", CreatedAt: time.Now().UTC()}
	require.NoError(t, env.tags.CreateTag(ctx, existing))

	p, err := env.svc.CreatePost(ctx, alice, postservice.CreatePostRequest{
		Content:  "mixed",
		TagIDs:   []string{existing.ID},
		TagNames: []string{"GoLang", "news"},
	})
	require.NoError(t, err)
	require.Len(t, p.Tags, 2)

	names := []string{p.Tags[0].Name, p.Tags[1].Name}
	assert.ElementsMatch(t, []string{"golang", "news"}, names)
}

func TestCreatePostUnknownTagID(t *testing.T) {
	env := setupTestPosts(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")

	_, err := env.svc.CreatePost(ctx, alice, postservice.CreatePostRequest{
		Content: "hello",
		TagIDs:  []string{uuid.NewString()},
	})
	require.ErrorIs(t, err, errs.ErrNotFound)

	posts, err := env.posts.ListPosts(ctx, postrepo.ListRequest{Sort: models.SortDesc, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestCreatePostRepeatedTagID(t *testing.T) {
	env := setupTestPosts(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")

	existing := models.Tag{ID: uuid.NewString(), Name: "golang", CreatedAt: time.Now().UTC()}
	require.NoError(t, env.tags.CreateTag(ctx, existing))

	_, err := env.svc.CreatePost(ctx, alice, postservice.CreatePostRequest{
		Content: "twice",
		TagIDs:  []string{existing.ID, existing.ID},
	})
	require.ErrorIs(t, err, postservice.ErrTagsNotFound)

	posts, err := env.posts.ListPosts(ctx, postrepo.ListRequest{Sort: models.SortDesc, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestCreatePostValidation(t *testing.T) {
	env := setupTestPosts(t)
	alice := env.createUser(t, "alice")

	tests := []struct {
		name  string
		req   postservice.CreatePostRequest
		field string
	}{
		{name: "empty content", req: postservice.CreatePostRequest{Content: ""}, field: "content"},
		{name: "too long", req: postservice.CreatePostRequest{Content: string(make([]rune, 241))}, field: "content"},
		{
			name:  "long tag name",
			req:   postservice.CreatePostRequest{Content: "x", TagNames: []string{"thirteen-char"}},
			field: "tagNames[0]",
		},
		{
			name:  "bad tag id",
			req:   postservice.CreatePostRequest{Content: "x", TagIDs: []string{"nope"}},
			field: "tagIds[0]",
		},
		{
			name: "too many tags in total",
			req: postservice.CreatePostRequest{
				Content:  "x",
				TagIDs:   []string{uuid.NewString(), uuid.NewString(), uuid.NewString()},
				TagNames: []string{"a", "b", "c"},
			},
			field: "tagIds",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.CreatePost(context.Background(), alice, tt.req)
			require.ErrorIs(t, err, errs.ErrValidation)

			var ve *errs.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, ve.Fields, tt.field)
		})
	}
}

func TestOwnershipGuard(t *testing.T) {
	env := setupTestPosts(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	p, err := env.svc.CreatePost(ctx, alice, postservice.CreatePostRequest{Content: "mine", TagNames: []string{"demo"}})
	require.NoError(t, err)

	content := "hijacked"

	_, err = env.svc.UpdatePost(ctx, bob, p.ID, postservice.UpdatePostRequest{Content: &content})
	require.ErrorIs(t, err, errs.ErrForbidden)

	err = env.svc.DeletePost(ctx, bob, p.ID)
	require.ErrorIs(t, err, errs.ErrForbidden)

	_, err = env.svc.UpdatePost(ctx, alice, uuid.NewString(), postservice.UpdatePostRequest{Content: &content})
	require.ErrorIs(t, err, errs.ErrNotFound)

	err = env.svc.DeletePost(ctx, alice, "not-a-uuid")
	require.ErrorIs(t, err, errs.ErrNotFound)

	content = "edited"
	updated, err := env.svc.UpdatePost(ctx, alice, p.ID, postservice.UpdatePostRequest{Content: &content})
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)
	require.Len(t, updated.Tags, 1)
	assert.Equal(t, p.CreatedAt, updated.CreatedAt)

	cleared, err := env.svc.UpdatePost(ctx, alice, p.ID, postservice.UpdatePostRequest{TagIDs: []string{}})
	require.NoError(t, err)
	assert.Equal(t, "edited", cleared.Content)
	assert.Empty(t, cleared.Tags)

	require.NoError(t, env.svc.DeletePost(ctx, alice, p.ID))

	err = env.svc.DeletePost(ctx, alice, p.ID)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestListPostsWalksEveryPostOnce(t *testing.T) {
	env := setupTestPosts(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	ids := env.seedPosts(t, alice, 25)

	visited := make([]string, 0, len(ids))
	cursor := ""

	for pages := 0; ; pages++ {
		require.Less(t, pages, 10)

		page, err := env.svc.ListPosts(ctx, postservice.ListPostsRequest{Limit: intPtr(10), Cursor: cursor})
		require.NoError(t, err)
		require.LessOrEqual(t, len(page.Items), 10)

		for _, it := range page.Items {
			visited = append(visited, it.ID)
		}

		if page.NextCursor == "" {
			break
		}

		assert.Equal(t, page.Items[len(page.Items)-1].ID, page.NextCursor)
		cursor = page.NextCursor
	}

	require.Len(t, visited, 25)

	// newest first
	for i, id := range visited {
		assert.Equal(t, ids[len(ids)-1-i], id)
	}
}

func TestListPostsNextCursorOnlyWhenMoreRows(t *testing.T) {
	env := setupTestPosts(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	env.seedPosts(t, alice, 10)

	page, err := env.svc.ListPosts(ctx, postservice.ListPostsRequest{Limit: intPtr(10)})
	require.NoError(t, err)
	assert.Len(t, page.Items, 10)
	assert.Empty(t, page.NextCursor)

	env.seedPosts(t, alice, 1)

	page, err = env.svc.ListPosts(ctx, postservice.ListPostsRequest{Limit: intPtr(10)})
	require.NoError(t, err)
	assert.Len(t, page.Items, 10)
	assert.NotEmpty(t, page.NextCursor)
}

func TestListPostsAscendingAndUnknownCursor(t *testing.T) {
	env := setupTestPosts(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	ids := env.seedPosts(t, alice, 12)

	page, err := env.svc.ListPosts(ctx, postservice.ListPostsRequest{Limit: intPtr(10), Sort: "asc"})
	require.NoError(t, err)
	assert.Equal(t, ids[0], page.Items[0].ID)
	assert.Equal(t, ids[9], page.NextCursor)

	rest, err := env.svc.ListPosts(ctx, postservice.ListPostsRequest{
		Limit: intPtr(10), Sort: "asc", Cursor: page.NextCursor,
	})
	require.NoError(t, err)
	assert.Equal(t, ids[10:], []string{rest.Items[0].ID, rest.Items[1].ID})
	assert.Empty(t, rest.NextCursor)

	for _, cursor := range []string{uuid.NewString(), "garbage"} {
		restart, err := env.svc.ListPosts(ctx, postservice.ListPostsRequest{Limit: intPtr(10), Cursor: cursor})
		require.NoError(t, err)
		assert.Equal(t, ids[11], restart.Items[0].ID)
	}
}

func TestListPostsValidation(t *testing.T) {
	env := setupTestPosts(t)
	ctx := context.Background()

	_, err := env.svc.ListPosts(ctx, postservice.ListPostsRequest{Sort: "sideways"})
	require.ErrorIs(t, err, errs.ErrValidation)

	_, err = env.svc.ListPosts(ctx, postservice.ListPostsRequest{AuthorIDs: []string{"x"}})
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, postservice.DefaultLimit, postservice.ClampLimit(nil))
	assert.Equal(t, postservice.MinLimit, postservice.ClampLimit(intPtr(1)))
	assert.Equal(t, postservice.MaxLimit, postservice.ClampLimit(intPtr(500)))
	assert.Equal(t, 33, postservice.ClampLimit(intPtr(33)))
}

func TestListPostsUsesCacheUntilWrite(t *testing.T) {
	env := setupTestPosts(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	env.seedPosts(t, alice, 3)

	first, err := env.svc.ListPosts(ctx, postservice.ListPostsRequest{})
	require.NoError(t, err)
	require.Len(t, first.Items, 3)

	// a row written behind the service's back is not seen while cached
	env.seedPosts(t, alice, 1)

	cached, err := env.svc.ListPosts(ctx, postservice.ListPostsRequest{})
	require.NoError(t, err)
	assert.Len(t, cached.Items, 3)

	_, err = env.svc.CreatePost(ctx, alice, postservice.CreatePostRequest{Content: "fresh"})
	require.NoError(t, err)

	fresh, err := env.svc.ListPosts(ctx, postservice.ListPostsRequest{})
	require.NoError(t, err)
	assert.Len(t, fresh.Items, 5)
}

func TestBackgroundWarmupFillsDefaultPage(t *testing.T) {
	env := setupTestPosts(t)
	alice := env.createUser(t, "alice")
	env.seedPosts(t, alice, 2)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		env.svc.BackgroundWarmup(ctx, time.Hour)
		close(done)
	}()

	key, err := env.cache.PageKey(context.Background(), feedcache.Key(feedcache.PageQuery{
		Sort: models.SortDesc, Limit: postservice.DefaultLimit,
	}))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		page, err := env.cache.GetPage(context.Background(), key)

		return err == nil && len(page.Items) == 2
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestTagConflictRereads(t *testing.T) {
	env := setupTestPosts(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")

	racy := &racingTags{TagsSQLiteRepo: env.tags}
	svc := postservice.New(env.posts, racy, env.cache, logger.NewNop())

	p, err := svc.CreatePost(ctx, alice, postservice.CreatePostRequest{Content: "race", TagNames: []string{"hot"}})
	require.NoError(t, err)
	require.Len(t, p.Tags, 1)
	assert.Equal(t, racy.winnerID, p.Tags[0].ID)
}

// racingTags creates the tag under a different id right before the service
// tries to, as a concurrent request would.
type racingTags struct {
	tagsqlite.TagsSQLiteRepo
	winnerID string
}

func (r *racingTags) CreateTag(ctx context.Context, t models.Tag) error {
	if r.winnerID == "" {
		r.winnerID = uuid.NewString()
		if err := r.TagsSQLiteRepo.CreateTag(ctx, models.Tag{ID: r.winnerID, Name: t.Name, CreatedAt: t.CreatedAt}); err != nil {
			return err
		}
	}

	return r.TagsSQLiteRepo.CreateTag(ctx, t)
}
