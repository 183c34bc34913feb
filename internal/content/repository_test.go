package content

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Zachkp/folio/internal/docstore"
	"github.com/Zachkp/folio/internal/sqlitedb"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := sqlitedb.Open(":memory:")
	require.NoError(t, err)
	store := docstore.NewSQLite(db, zaptest.NewLogger(t))
	t.Cleanup(func() {
		_ = store.Close()
		_ = db.Close()
	})
	return NewRepository(store, WithClock(func() time.Time { return fixedNow }))
}

func TestSectionDefaults(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	s, err := repo.Section(ctx, SectionProjects)
	require.NoError(t, err)
	assert.Equal(t, "Projects", s.Title)
	assert.True(t, s.Enabled)

	_, err = repo.Section(ctx, "pricing")
	require.ErrorIs(t, err, ErrUnknownSection)

	all, err := repo.SectionsInOrder(ctx)
	require.NoError(t, err)
	require.Len(t, all, len(SectionNames()))
	assert.Equal(t, SectionHero, all[0].Name())
	assert.Equal(t, SectionContact, all[len(all)-1].Name())
}

func TestSectionsInOrderUsesStoredOrder(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	blog := DefaultSection(SectionBlog)
	blog.Order = 1
	blog.Title = "Writing"
	require.NoError(t, repo.Sections.Save(ctx, &blog))

	all, err := repo.SectionsInOrder(ctx)
	require.NoError(t, err)
	assert.Equal(t, SectionBlog, all[0].Name())
	assert.Equal(t, "Writing", all[0].Title)
}

func TestSectionValidation(t *testing.T) {
	repo := newTestRepo(t)
	s := SectionSettings{Meta: Meta{ID: "nope"}, Title: "x"}
	err := repo.Sections.Save(context.Background(), &s)
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "unknown section")
}

func TestEnsureDefaultsIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	n, err := repo.EnsureDefaults(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(SectionNames())+1, n)

	n, err = repo.EnsureDefaults(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	p, err := repo.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, ProfileID, p.ID)
	assert.Equal(t, fixedNow, p.UpdatedAt)
}

func TestSaveAssignsIDAndSorts(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	for _, p := range []Project{
		{Title: "Zeta", Order: 1},
		{Title: "alpha", Order: 1},
		{Title: "Featured", Order: 9, Featured: true},
	} {
		p := p
		require.NoError(t, repo.Projects.Save(ctx, &p))
		assert.NotEmpty(t, p.ID)
	}

	projects, err := repo.Projects.List(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 3)
	assert.Equal(t, []string{"Featured", "alpha", "Zeta"},
		[]string{projects[0].Title, projects[1].Title, projects[2].Title})

	got, err := repo.Projects.Get(ctx, projects[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "alpha", got.Title)

	require.NoError(t, repo.Projects.Delete(ctx, got.ID))
	_, err = repo.Projects.Get(ctx, got.ID)
	assert.True(t, IsNotFound(err))
}

func TestValidationMessages(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	err := repo.Testimonials.Save(ctx, &Testimonial{Author: "Ada", Quote: "Great", Rating: 9})
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "Rating must be at most 5")

	err = repo.Messages.Save(ctx, &Message{Name: "Bob", Email: "not-an-email", Body: "hi"})
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "Email must be an email address")

	err = repo.Projects.Save(ctx, &Project{Title: "P", RepoURL: "github"})
	require.ErrorIs(t, err, ErrInvalid)

	ok := Project{Title: "P", ImageURL: "/images/p.png", RepoURL: "https://github.com/x/y"}
	require.NoError(t, repo.Projects.Save(ctx, &ok))
}

func TestPosts(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	draft := Post{Title: "Draft Ideas!", Body: "soon"}
	require.NoError(t, repo.Posts.Save(ctx, &draft))
	assert.Equal(t, "draft-ideas", draft.Slug)
	assert.True(t, draft.PublishedAt.IsZero())

	older := Post{Title: "Older", Published: true, PublishedAt: fixedNow.Add(-48 * time.Hour)}
	require.NoError(t, repo.Posts.Save(ctx, &older))
	newer := Post{Title: "Newer", Published: true}
	require.NoError(t, repo.Posts.Save(ctx, &newer))
	assert.Equal(t, fixedNow, newer.PublishedAt)

	published, err := repo.PublishedPosts(ctx)
	require.NoError(t, err)
	require.Len(t, published, 2)
	assert.Equal(t, "newer", published[0].Slug)

	_, err = repo.PostBySlug(ctx, "draft-ideas", false)
	assert.True(t, IsNotFound(err))
	p, err := repo.PostBySlug(ctx, "draft-ideas", true)
	require.NoError(t, err)
	assert.Equal(t, draft.ID, p.ID)

	dup := Post{Title: "Older"}
	err = repo.Posts.Save(ctx, &dup)
	require.ErrorIs(t, err, ErrSlugTaken)

	older.Body = "updated"
	require.NoError(t, repo.Posts.Save(ctx, &older), "resaving keeps its own slug")
}

func TestEditorYAMLAndJSON(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	ed, ok := repo.Editor(CollectionSkills)
	require.True(t, ok)
	_, ok = repo.Editor("widgets")
	assert.False(t, ok)

	v, err := ed.SaveYAML(ctx, "go", []byte("name: Go\nlevel: 90\ncategory: Languages\n"))
	require.NoError(t, err)
	skill := v.(*Skill)
	assert.Equal(t, "go", skill.ID)

	_, err = ed.SaveJSON(ctx, "", []byte(`{"name":"SQL","level":70}`))
	require.NoError(t, err)

	_, err = ed.SaveYAML(ctx, "bad", []byte("name: [unclosed"))
	require.ErrorIs(t, err, ErrInvalid)

	n, err := ed.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	items, err := ed.ListAny(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)

	got, err := ed.GetAny(ctx, "go")
	require.NoError(t, err)
	assert.Equal(t, 90, got.(*Skill).Level)
	assert.IsType(t, &Skill{}, ed.New())
}

func TestBundleRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newTestRepo(t)
	_, err := src.EnsureDefaults(ctx)
	require.NoError(t, err)
	require.NoError(t, src.Projects.Save(ctx, &Project{Title: "Folio"}))
	require.NoError(t, src.Posts.Save(ctx, &Post{Title: "Hello", Published: true, Body: "# Hi"}))
	require.NoError(t, src.Messages.Save(ctx, &Message{Name: "A", Email: "a@example.com", Body: "hi"}))

	b, err := src.Export(ctx)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, b.WriteYAML(&buf))

	parsed, err := ReadBundle(&buf)
	require.NoError(t, err)

	dst := newTestRepo(t)
	report, err := dst.Import(ctx, parsed)
	require.NoError(t, err)
	assert.Equal(t, len(SectionNames()), report[CollectionSections])
	assert.Equal(t, 1, report[CollectionProfile])
	assert.Equal(t, 1, report[CollectionProjects])
	assert.Equal(t, 1, report[CollectionPosts])
	assert.Zero(t, report[CollectionMessages])

	post, err := dst.PostBySlug(ctx, "hello", false)
	require.NoError(t, err)
	assert.Equal(t, "# Hi", post.Body)
}

func TestReadBundleRejectsUnknownFields(t *testing.T) {
	_, err := ReadBundle(bytes.NewBufferString("widgets: []\n"))
	require.Error(t, err)

	b, err := ReadBundle(bytes.NewBufferString(""))
	require.NoError(t, err)
	assert.Empty(t, b.Projects)
}

func TestSectionsFor(t *testing.T) {
	assert.Equal(t, []string{SectionBlog}, SectionsFor(CollectionPosts, "x"))
	assert.Equal(t, []string{SectionGame}, SectionsFor(CollectionSections, SectionGame))
	assert.Nil(t, SectionsFor(CollectionSections, "nope"))
	assert.Nil(t, SectionsFor(CollectionMessages, "m1"))
	assert.Contains(t, SectionsFor(CollectionProfile, ProfileID), SectionHero)
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Hello, World!":        "hello-world",
		"  Go   1.24 release ": "go-1-24-release",
		"already-slugged":      "already-slugged",
		"--":                   "",
		"Ünïcode Títle":        "ünïcode-títle",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestTestimonialStarsClamped(t *testing.T) {
	for rating, want := range map[int]int{-3: 0, 0: 0, 4: 4, 5: 5, 9: 5} {
		assert.Len(t, Testimonial{Rating: rating}.Stars(), want, "rating %d", rating)
	}
}
