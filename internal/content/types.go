package content

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Collection names in the document store.
const (
	CollectionSections     = "sections"
	CollectionProfile      = "profile"
	CollectionProjects     = "projects"
	CollectionPosts        = "posts"
	CollectionTestimonials = "testimonials"
	CollectionExperience   = "experience"
	CollectionEducation    = "education"
	CollectionSkills       = "skills"
	CollectionMessages     = "messages"
)

// ProfileID is the id of the single profile document.
const ProfileID = "main"

// Section names, in default page order.
const (
	SectionHero         = "hero"
	SectionAbout        = "about"
	SectionExperience   = "experience"
	SectionEducation    = "education"
	SectionProjects     = "projects"
	SectionSkills       = "skills"
	SectionBlog         = "blog"
	SectionTestimonials = "testimonials"
	SectionGame         = "game"
	SectionContact      = "contact"
)

var sectionNames = []string{
	SectionHero, SectionAbout, SectionExperience, SectionEducation, SectionProjects,
	SectionSkills, SectionBlog, SectionTestimonials, SectionGame, SectionContact,
}

// SectionNames returns every known section in default order.
func SectionNames() []string {
	return slices.Clone(sectionNames)
}

// IsSection reports whether name is a known section.
func IsSection(name string) bool {
	return slices.Contains(sectionNames, name)
}

// Meta is embedded in every document type.
type Meta struct {
	ID        string    `json:"id" yaml:"id,omitempty"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt,omitempty"`
}

func (m *Meta) meta() *Meta { return m }

// SectionSettings is the per-section settings document. Its ID is the
// section name.
type SectionSettings struct {
	Meta      `yaml:",inline"`
	Title     string `json:"title" yaml:"title" validate:"max=120"`
	Subtitle  string `json:"subtitle" yaml:"subtitle" validate:"max=300"`
	Enabled   bool   `json:"enabled" yaml:"enabled"`
	ShowInNav bool   `json:"showInNav" yaml:"showInNav"`
	Order     int    `json:"order" yaml:"order"`
	// Autoplay is the carousel interval in seconds; zero disables it.
	Autoplay int `json:"autoplay,omitempty" yaml:"autoplay,omitempty" validate:"min=0,max=60"`
}

// Name is the section this document configures.
func (s SectionSettings) Name() string { return s.ID }

func (s *SectionSettings) check() error {
	if !IsSection(s.ID) {
		return fmt.Errorf("unknown section %q", s.ID)
	}
	return nil
}

// SocialLink is a labelled external profile.
type SocialLink struct {
	Label string `json:"label" yaml:"label" validate:"required,max=40"`
	URL   string `json:"url" yaml:"url" validate:"required,url"`
	Icon  string `json:"icon,omitempty" yaml:"icon,omitempty"`
}

// Profile feeds the hero and about sections.
type Profile struct {
	Meta         `yaml:",inline"`
	Name         string       `json:"name" yaml:"name" validate:"required,max=80"`
	Headline     string       `json:"headline" yaml:"headline" validate:"max=160"`
	Tagline      string       `json:"tagline" yaml:"tagline" validate:"max=300"`
	TypedPhrases []string     `json:"typedPhrases" yaml:"typedPhrases" validate:"max=10,dive,max=80"`
	AvatarURL    string       `json:"avatarUrl" yaml:"avatarUrl" validate:"omitempty,url|startswith=/"`
	ResumeURL    string       `json:"resumeUrl" yaml:"resumeUrl" validate:"omitempty,url|startswith=/"`
	Location     string       `json:"location" yaml:"location" validate:"max=80"`
	Email        string       `json:"email" yaml:"email" validate:"omitempty,email"`
	Socials      []SocialLink `json:"socials" yaml:"socials" validate:"dive"`
	About        string       `json:"about" yaml:"about"`
	AboutImage   string       `json:"aboutImage" yaml:"aboutImage" validate:"omitempty,url|startswith=/"`
	Highlights   []string     `json:"highlights" yaml:"highlights" validate:"dive,max=120"`
}

// Project is an entry in the projects section.
type Project struct {
	Meta        `yaml:",inline"`
	Title       string   `json:"title" yaml:"title" validate:"required,max=120"`
	Summary     string   `json:"summary" yaml:"summary" validate:"max=400"`
	Description string   `json:"description" yaml:"description"`
	Tags        []string `json:"tags" yaml:"tags" validate:"dive,max=40"`
	ImageURL    string   `json:"imageUrl" yaml:"imageUrl" validate:"omitempty,url|startswith=/"`
	RepoURL     string   `json:"repoUrl" yaml:"repoUrl" validate:"omitempty,url"`
	LiveURL     string   `json:"liveUrl" yaml:"liveUrl" validate:"omitempty,url"`
	Featured    bool     `json:"featured" yaml:"featured"`
	Order       int      `json:"order" yaml:"order"`
}

// Post is a blog article written in markdown.
type Post struct {
	Meta        `yaml:",inline"`
	Slug        string    `json:"slug" yaml:"slug" validate:"required,max=120"`
	Title       string    `json:"title" yaml:"title" validate:"required,max=160"`
	Summary     string    `json:"summary" yaml:"summary" validate:"max=400"`
	Body        string    `json:"body" yaml:"body"`
	Tags        []string  `json:"tags" yaml:"tags" validate:"dive,max=40"`
	CoverURL    string    `json:"coverUrl" yaml:"coverUrl" validate:"omitempty,url|startswith=/"`
	Published   bool      `json:"published" yaml:"published"`
	PublishedAt time.Time `json:"publishedAt" yaml:"publishedAt,omitempty"`
}

func (p *Post) normalize(now time.Time) {
	p.Title = strings.TrimSpace(p.Title)
	p.Slug = Slugify(p.Slug)
	if p.Slug == "" {
		p.Slug = Slugify(p.Title)
	}
	if p.Published && p.PublishedAt.IsZero() {
		p.PublishedAt = now
	}
}

// Testimonial is a quote shown in the testimonials carousel.
type Testimonial struct {
	Meta      `yaml:",inline"`
	Author    string `json:"author" yaml:"author" validate:"required,max=80"`
	Role      string `json:"role" yaml:"role" validate:"max=80"`
	Company   string `json:"company" yaml:"company" validate:"max=80"`
	Quote     string `json:"quote" yaml:"quote" validate:"required,max=1200"`
	AvatarURL string `json:"avatarUrl" yaml:"avatarUrl" validate:"omitempty,url|startswith=/"`
	Rating    int    `json:"rating" yaml:"rating" validate:"min=1,max=5"`
	Order     int    `json:"order" yaml:"order"`
}

// Stars returns Rating as a slice for templates.
func (t Testimonial) Stars() []struct{} {
	return make([]struct{}, min(max(t.Rating, 0), 5))
}

// Experience is a job in the work timeline.
type Experience struct {
	Meta    `yaml:",inline"`
	Role    string   `json:"role" yaml:"role" validate:"required,max=120"`
	Company string   `json:"company" yaml:"company" validate:"required,max=120"`
	Start   string   `json:"start" yaml:"start" validate:"max=40"`
	End     string   `json:"end" yaml:"end" validate:"max=40"`
	LogoURL string   `json:"logoUrl" yaml:"logoUrl" validate:"omitempty,url|startswith=/"`
	Bullets []string `json:"bullets" yaml:"bullets" validate:"dive,max=400"`
	Order   int      `json:"order" yaml:"order"`
}

// Education is a degree or certification.
type Education struct {
	Meta        `yaml:",inline"`
	Degree      string   `json:"degree" yaml:"degree" validate:"required,max=120"`
	Institution string   `json:"institution" yaml:"institution" validate:"required,max=120"`
	Start       string   `json:"start" yaml:"start" validate:"max=40"`
	End         string   `json:"end" yaml:"end" validate:"max=40"`
	LogoURL     string   `json:"logoUrl" yaml:"logoUrl" validate:"omitempty,url|startswith=/"`
	Bullets     []string `json:"bullets" yaml:"bullets" validate:"dive,max=400"`
	Order       int      `json:"order" yaml:"order"`
}

// Skill is shown as a labelled level bar.
type Skill struct {
	Meta     `yaml:",inline"`
	Name     string `json:"name" yaml:"name" validate:"required,max=60"`
	Category string `json:"category" yaml:"category" validate:"max=60"`
	Level    int    `json:"level" yaml:"level" validate:"min=0,max=100"`
	Order    int    `json:"order" yaml:"order"`
}

// Message is a contact form submission.
type Message struct {
	Meta      `yaml:",inline"`
	Name      string    `json:"name" yaml:"name" validate:"required,max=100"`
	Email     string    `json:"email" yaml:"email" validate:"required,email,max=200"`
	Body      string    `json:"body" yaml:"body" validate:"required,max=5000"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt,omitempty"`
	Read      bool      `json:"read" yaml:"read"`
}

func (m *Message) normalize(now time.Time) {
	m.Name = strings.TrimSpace(m.Name)
	m.Email = strings.TrimSpace(m.Email)
	m.Body = strings.TrimSpace(m.Body)
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
}
