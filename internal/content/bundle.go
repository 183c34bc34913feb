package content

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Bundle is a portable snapshot of the site content. Contact messages are
// never part of a bundle.
type Bundle struct {
	Sections     []SectionSettings `yaml:"sections,omitempty"`
	Profile      *Profile          `yaml:"profile,omitempty"`
	Projects     []Project         `yaml:"projects,omitempty"`
	Posts        []Post            `yaml:"posts,omitempty"`
	Testimonials []Testimonial     `yaml:"testimonials,omitempty"`
	Experience   []Experience      `yaml:"experience,omitempty"`
	Education    []Education       `yaml:"education,omitempty"`
	Skills       []Skill           `yaml:"skills,omitempty"`
}

// ReadBundle parses a YAML bundle.
func ReadBundle(r io.Reader) (Bundle, error) {
	var b Bundle
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&b); err != nil && err != io.EOF {
		return Bundle{}, fmt.Errorf("parse bundle: %w", err)
	}
	return b, nil
}

// WriteYAML encodes the bundle.
func (b Bundle) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(b); err != nil {
		return fmt.Errorf("encode bundle: %w", err)
	}
	return enc.Close()
}

// Export snapshots every content collection.
func (r *Repository) Export(ctx context.Context) (Bundle, error) {
	var b Bundle
	var err error
	if b.Sections, err = r.Sections.List(ctx); err != nil {
		return Bundle{}, err
	}
	p, err := r.Profiles.Get(ctx, ProfileID)
	switch {
	case err == nil:
		b.Profile = &p
	case !IsNotFound(err):
		return Bundle{}, err
	}
	if b.Projects, err = r.Projects.List(ctx); err != nil {
		return Bundle{}, err
	}
	if b.Posts, err = r.Posts.List(ctx); err != nil {
		return Bundle{}, err
	}
	if b.Testimonials, err = r.Testimonials.List(ctx); err != nil {
		return Bundle{}, err
	}
	if b.Experience, err = r.Experience.List(ctx); err != nil {
		return Bundle{}, err
	}
	if b.Education, err = r.Education.List(ctx); err != nil {
		return Bundle{}, err
	}
	if b.Skills, err = r.Skills.List(ctx); err != nil {
		return Bundle{}, err
	}
	return b, nil
}

// ImportReport counts documents written per collection.
type ImportReport map[string]int

// Import saves every document of b, keeping ids when present. It stops at
// the first invalid document.
func (r *Repository) Import(ctx context.Context, b Bundle) (ImportReport, error) {
	report := ImportReport{}
	for i := range b.Sections {
		if err := r.Sections.Save(ctx, &b.Sections[i]); err != nil {
			return report, fmt.Errorf("section %q: %w", b.Sections[i].ID, err)
		}
		report[CollectionSections]++
	}
	if b.Profile != nil {
		if err := r.SaveProfile(ctx, b.Profile); err != nil {
			return report, fmt.Errorf("profile: %w", err)
		}
		report[CollectionProfile]++
	}
	if err := importAll(ctx, r.Projects, b.Projects, report); err != nil {
		return report, err
	}
	if err := importAll(ctx, r.Posts, b.Posts, report); err != nil {
		return report, err
	}
	if err := importAll(ctx, r.Testimonials, b.Testimonials, report); err != nil {
		return report, err
	}
	if err := importAll(ctx, r.Experience, b.Experience, report); err != nil {
		return report, err
	}
	if err := importAll(ctx, r.Education, b.Education, report); err != nil {
		return report, err
	}
	if err := importAll(ctx, r.Skills, b.Skills, report); err != nil {
		return report, err
	}
	return report, nil
}

func importAll[T any, P entityPtr[T]](ctx context.Context, c *Collection[T, P], items []T, report ImportReport) error {
	for i := range items {
		if err := c.Save(ctx, &items[i]); err != nil {
			return fmt.Errorf("%s #%d: %w", c.Name(), i+1, err)
		}
		report[c.Name()]++
	}
	return nil
}
