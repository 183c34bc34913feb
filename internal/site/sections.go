package site

import (
	"context"

	"github.com/Zachkp/folio/internal/carousel"
	"github.com/Zachkp/folio/internal/content"
	"github.com/Zachkp/folio/internal/tictactoe"
)

// visibleTestimonials is how many quotes the carousel shows at once.
const visibleTestimonials = 1

// blogPreviewCount limits the posts listed in the blog section.
const blogPreviewCount = 3

type sectionView struct {
	content.SectionSettings
	Profile     content.Profile
	Projects    []content.Project
	Posts       []content.Post
	Experience  []content.Experience
	Education   []content.Education
	SkillGroups []skillGroup
	Carousel    *carouselView
	Game        *gameView
}

type skillGroup struct {
	Category string
	Skills   []content.Skill
}

// loadSection fetches only the collections the section renders.
func (s *Server) loadSection(ctx context.Context, settings content.SectionSettings, profile content.Profile) (sectionView, error) {
	v := sectionView{SectionSettings: settings, Profile: profile}
	var err error
	switch settings.Name() {
	case content.SectionProjects:
		v.Projects, err = s.repo.Projects.List(ctx)
	case content.SectionBlog:
		v.Posts, err = s.repo.PublishedPosts(ctx)
		if len(v.Posts) > blogPreviewCount {
			v.Posts = v.Posts[:blogPreviewCount]
		}
	case content.SectionExperience:
		v.Experience, err = s.repo.Experience.List(ctx)
	case content.SectionEducation:
		v.Education, err = s.repo.Education.List(ctx)
	case content.SectionSkills:
		var skills []content.Skill
		skills, err = s.repo.Skills.List(ctx)
		v.SkillGroups = groupSkills(skills)
	case content.SectionTestimonials:
		var items []content.Testimonial
		items, err = s.repo.Testimonials.List(ctx)
		v.Carousel = buildCarousel(items, settings.Autoplay, 0, false)
	case content.SectionGame:
		v.Game = newGameView(tictactoe.Board{}, nil, "")
	}
	return v, err
}

// groupSkills keeps the first-seen order of categories.
func groupSkills(skills []content.Skill) []skillGroup {
	var groups []skillGroup
	index := make(map[string]int)
	for _, sk := range skills {
		cat := sk.Category
		if cat == "" {
			cat = "General"
		}
		i, ok := index[cat]
		if !ok {
			i = len(groups)
			index[cat] = i
			groups = append(groups, skillGroup{Category: cat})
		}
		groups[i].Skills = append(groups[i].Skills, sk)
	}
	return groups
}

type carouselView struct {
	// Slides is the cloned strip; Offset is the strip position shown.
	Slides   []content.Testimonial
	Current  int
	Offset   int
	Visible  int
	Len      int
	PrevPos  int
	NextPos  int
	Loops    bool
	Autoplay int
	// Jump renders without the slide animation.
	Jump bool
	// Settling is set on a clone position: once the animation ends the
	// client asks for the matching real position.
	Settling bool
}

func buildCarousel(items []content.Testimonial, autoplay, i int, jump bool) *carouselView {
	track := carousel.New(len(items), visibleTestimonials)
	return carouselAt(items, autoplay, track.Offset(i), jump)
}

// carouselAt renders the strip at position pos, which may be a clone.
func carouselAt(items []content.Testimonial, autoplay, pos int, jump bool) *carouselView {
	track := carousel.New(len(items), visibleTestimonials)
	v := &carouselView{
		Current:  track.Slide(pos),
		Visible:  max(track.Visible, 1),
		Len:      track.Len,
		Loops:    track.Loops(),
		Autoplay: autoplay,
		Jump:     jump,
	}
	if !track.Loops() {
		v.Current = 0
		v.Slides = items
		return v
	}
	for _, k := range track.Extended() {
		v.Slides = append(v.Slides, items[k])
	}
	v.Offset = pos
	v.PrevPos, v.NextPos = pos-1, pos+1
	_, v.Settling = track.Settle(pos)
	return v
}

// stripLen is the number of positions in the cloned strip.
func stripLen(t carousel.Track) int {
	return t.Len + 2*t.Visible
}
