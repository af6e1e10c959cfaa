package portfolio

import "strings"

// DefaultSections seeds a new portfolio. The hero title carries the owner's
// display name.
func DefaultSections(ownerName, ownerEmail string) Sections {
	return Sections{
		Hero: &HeroSection{
			Title:    strings.TrimSpace("I'm " + ownerName),
			Subtitle: "Professional Portfolio",
		},
		About: &AboutSection{
			Title:   "About Me",
			Content: "Write something about yourself...",
		},
		Skills: &SkillsSection{
			Title: "My Skills",
			Items: []string{"Skill 1", "Skill 2", "Skill 3"},
		},
		Projects: &ProjectsSection{
			Title: "My Projects",
			Items: []ProjectItem{},
		},
		Contact: &ContactSection{
			Title: "Contact Me",
			Email: ownerEmail,
		},
	}
}

// BlankExperience is appended by the editor's add operation.
func BlankExperience() Experience {
	return Experience{Skills: []string{}}
}

// ParseSkillList splits comma separated input, trimming each entry.
func ParseSkillList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}
