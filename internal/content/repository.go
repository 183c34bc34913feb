package content

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Zachkp/folio/internal/docstore"
)

// ErrUnknownSection is returned for section names outside SectionNames.
var ErrUnknownSection = errors.New("unknown section")

// ErrSlugTaken is returned when a post slug is already used by another post.
var ErrSlugTaken = fmt.Errorf("%w: slug already in use", ErrInvalid)

// Repository exposes every content collection of the site.
type Repository struct {
	store docstore.Store
	now   func() time.Time

	Sections     *Collection[SectionSettings, *SectionSettings]
	Profiles     *Collection[Profile, *Profile]
	Projects     *Collection[Project, *Project]
	Posts        *Collection[Post, *Post]
	Testimonials *Collection[Testimonial, *Testimonial]
	Experience   *Collection[Experience, *Experience]
	Education    *Collection[Education, *Education]
	Skills       *Collection[Skill, *Skill]
	Messages     *Collection[Message, *Message]

	editors []Editor
}

// Option configures a Repository.
type Option func(*Repository)

// WithClock overrides the time source, primarily for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// NewRepository builds typed collections over store.
func NewRepository(store docstore.Store, opts ...Option) *Repository {
	r := &Repository{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	now := func() time.Time { return r.now() }

	r.Sections = newCollection[SectionSettings](CollectionSections, store, now, func(a, b *SectionSettings) bool {
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return a.ID < b.ID
	})
	r.Profiles = newCollection[Profile](CollectionProfile, store, now, nil)
	r.Projects = newCollection[Project](CollectionProjects, store, now, func(a, b *Project) bool {
		if a.Featured != b.Featured {
			return a.Featured
		}
		return byOrderThenTitle(a.Order, b.Order, a.Title, b.Title)
	})
	r.Posts = newCollection[Post](CollectionPosts, store, now, func(a, b *Post) bool {
		if !a.PublishedAt.Equal(b.PublishedAt) {
			return a.PublishedAt.After(b.PublishedAt)
		}
		return a.Slug < b.Slug
	})
	r.Posts.beforeSave = r.checkSlug
	r.Testimonials = newCollection[Testimonial](CollectionTestimonials, store, now, func(a, b *Testimonial) bool {
		return byOrderThenTitle(a.Order, b.Order, a.Author, b.Author)
	})
	r.Experience = newCollection[Experience](CollectionExperience, store, now, func(a, b *Experience) bool {
		return byOrderThenTitle(a.Order, b.Order, a.Company, b.Company)
	})
	r.Education = newCollection[Education](CollectionEducation, store, now, func(a, b *Education) bool {
		return byOrderThenTitle(a.Order, b.Order, a.Institution, b.Institution)
	})
	r.Skills = newCollection[Skill](CollectionSkills, store, now, func(a, b *Skill) bool {
		return byOrderThenTitle(a.Order, b.Order, a.Name, b.Name)
	})
	r.Messages = newCollection[Message](CollectionMessages, store, now, func(a, b *Message) bool {
		return a.CreatedAt.After(b.CreatedAt)
	})

	r.editors = []Editor{
		r.Sections, r.Profiles, r.Projects, r.Posts, r.Testimonials,
		r.Experience, r.Education, r.Skills, r.Messages,
	}
	return r
}

func byOrderThenTitle(ao, bo int, at, bt string) bool {
	if ao != bo {
		return ao < bo
	}
	return strings.ToLower(at) < strings.ToLower(bt)
}

// Store returns the underlying document store.
func (r *Repository) Store() docstore.Store { return r.store }

// Editors returns every collection in dashboard order.
func (r *Repository) Editors() []Editor { return r.editors }

// Editor looks up a collection by name.
func (r *Repository) Editor(name string) (Editor, bool) {
	for _, e := range r.editors {
		if e.Name() == name {
			return e, true
		}
	}
	return nil, false
}

// Collections returns the names of all collections.
func (r *Repository) Collections() []string {
	names := make([]string, len(r.editors))
	for i, e := range r.editors {
		names[i] = e.Name()
	}
	return names
}

// Section returns the stored settings for name, or its defaults.
func (r *Repository) Section(ctx context.Context, name string) (SectionSettings, error) {
	if !IsSection(name) {
		return SectionSettings{}, fmt.Errorf("%w: %q", ErrUnknownSection, name)
	}
	s, err := r.Sections.Get(ctx, name)
	if IsNotFound(err) {
		return DefaultSection(name), nil
	}
	return s, err
}

// SectionsInOrder returns settings for every known section, filling gaps
// with defaults, sorted by Order.
func (r *Repository) SectionsInOrder(ctx context.Context) ([]SectionSettings, error) {
	stored, err := r.Sections.List(ctx)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]SectionSettings, len(stored))
	for _, s := range stored {
		if IsSection(s.ID) {
			byName[s.ID] = s
		}
	}
	out := make([]SectionSettings, 0, len(sectionNames))
	for _, name := range sectionNames {
		s, ok := byName[name]
		if !ok {
			s = DefaultSection(name)
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

// Profile returns the stored profile, or the default one.
func (r *Repository) Profile(ctx context.Context) (Profile, error) {
	p, err := r.Profiles.Get(ctx, ProfileID)
	if IsNotFound(err) {
		return DefaultProfile(), nil
	}
	return p, err
}

// SaveProfile stores p as the single profile document.
func (r *Repository) SaveProfile(ctx context.Context, p *Profile) error {
	p.ID = ProfileID
	return r.Profiles.Save(ctx, p)
}

// PublishedPosts returns published posts, newest first.
func (r *Repository) PublishedPosts(ctx context.Context) ([]Post, error) {
	posts, err := r.Posts.List(ctx)
	if err != nil {
		return nil, err
	}
	out := posts[:0]
	for _, p := range posts {
		if p.Published {
			out = append(out, p)
		}
	}
	return out, nil
}

// PostBySlug finds a post. Drafts are only returned when includeDrafts is set.
func (r *Repository) PostBySlug(ctx context.Context, slug string, includeDrafts bool) (Post, error) {
	posts, err := r.Posts.List(ctx)
	if err != nil {
		return Post{}, err
	}
	for _, p := range posts {
		if p.Slug == slug && (p.Published || includeDrafts) {
			return p, nil
		}
	}
	return Post{}, docstore.ErrNotFound
}

func (r *Repository) checkSlug(ctx context.Context, p *Post) error {
	posts, err := r.Posts.List(ctx)
	if err != nil {
		return err
	}
	for _, other := range posts {
		if other.Slug == p.Slug && other.ID != p.ID {
			return fmt.Errorf("%w: %q", ErrSlugTaken, p.Slug)
		}
	}
	return nil
}

// EnsureDefaults stores default section settings and profile for any that
// are missing and returns how many documents it created.
func (r *Repository) EnsureDefaults(ctx context.Context) (int, error) {
	created := 0
	for _, name := range sectionNames {
		_, err := r.Sections.Get(ctx, name)
		if err == nil {
			continue
		}
		if !IsNotFound(err) {
			return created, err
		}
		s := DefaultSection(name)
		if err := r.Sections.Save(ctx, &s); err != nil {
			return created, err
		}
		created++
	}

	if _, err := r.Profiles.Get(ctx, ProfileID); err != nil {
		if !IsNotFound(err) {
			return created, err
		}
		p := DefaultProfile()
		if err := r.SaveProfile(ctx, &p); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// SectionsFor maps a changed document to the sections that render it.
func SectionsFor(collection, id string) []string {
	switch collection {
	case CollectionSections:
		if IsSection(id) {
			return []string{id}
		}
	case CollectionProfile:
		return []string{SectionHero, SectionAbout, SectionContact}
	case CollectionProjects:
		return []string{SectionProjects}
	case CollectionPosts:
		return []string{SectionBlog}
	case CollectionTestimonials:
		return []string{SectionTestimonials}
	case CollectionExperience:
		return []string{SectionExperience}
	case CollectionEducation:
		return []string{SectionEducation}
	case CollectionSkills:
		return []string{SectionSkills}
	}
	return nil
}

// LiveCollections lists the collections that feed public sections.
func LiveCollections() []string {
	return []string{
		CollectionSections, CollectionProfile, CollectionProjects, CollectionPosts,
		CollectionTestimonials, CollectionExperience, CollectionEducation, CollectionSkills,
	}
}
