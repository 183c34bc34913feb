package content

var defaultSections = map[string]SectionSettings{
	SectionHero:         {Title: "Hi, I'm a developer", Subtitle: "I build software that is both useful and fun.", Enabled: true},
	SectionAbout:        {Title: "About Me", Subtitle: "A little background", Enabled: true, ShowInNav: true},
	SectionExperience:   {Title: "Experience", Subtitle: "Where I have worked", Enabled: true, ShowInNav: true},
	SectionEducation:    {Title: "Education", Subtitle: "Degrees and certifications", Enabled: true},
	SectionProjects:     {Title: "Projects", Subtitle: "Things I have built", Enabled: true, ShowInNav: true},
	SectionSkills:       {Title: "Skills", Subtitle: "Tools I reach for", Enabled: true},
	SectionBlog:         {Title: "Blog", Subtitle: "Notes and write-ups", Enabled: true, ShowInNav: true},
	SectionTestimonials: {Title: "Testimonials", Subtitle: "What people say", Enabled: true, Autoplay: 6},
	SectionGame:         {Title: "Take a Break", Subtitle: "Beat the computer at tic-tac-toe", Enabled: false},
	SectionContact:      {Title: "Contact Me", Subtitle: "I'll get back to you soon.", Enabled: true, ShowInNav: true},
}

// DefaultSection returns the built-in settings for a section. Order follows
// SectionNames.
func DefaultSection(name string) SectionSettings {
	s := defaultSections[name]
	s.ID = name
	for i, n := range sectionNames {
		if n == name {
			s.Order = (i + 1) * 10
		}
	}
	return s
}

// DefaultProfile is shown until an admin saves a real profile.
func DefaultProfile() Profile {
	return Profile{
		Meta:     Meta{ID: ProfileID},
		Name:     "Your Name",
		Headline: "Software Developer",
		Tagline:  "I love building software that's both useful and fun.",
		TypedPhrases: []string{
			"Go developer",
			"Tinkerer",
			"Lifelong learner",
		},
		About: "I love building software that's both useful and fun, and I'm always curious " +
			"about how things work behind the scenes.\n\n" +
			"Most of my projects start with a simple idea and turn into a chance to learn " +
			"something new, whether it's exploring a different language, experimenting with " +
			"tools, or solving tricky problems.",
		Highlights: []string{
			"Backend services in Go",
			"Terminal tools and TUIs",
			"Server-rendered web apps with HTMX",
		},
	}
}
