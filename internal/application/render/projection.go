// Package render builds the public, read-only view of a portfolio.
package render

import (
	"strings"

	"github.com/khoahotran/portgen/internal/domain/portfolio"
)

type Hero struct {
	Title           string `json:"title"`
	Subtitle        string `json:"subtitle"`
	BackgroundImage string `json:"backgroundImage,omitempty"`
}

type About struct {
	Title      string   `json:"title"`
	Paragraphs []string `json:"paragraphs"`
	Image      string   `json:"image,omitempty"`
}

type Skills struct {
	Title string   `json:"title"`
	Items []string `json:"items"`
}

type Projects struct {
	Title string              `json:"title"`
	Items []portfolio.Project `json:"items"`
}

type SocialLink struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
}

type Contact struct {
	Title  string       `json:"title"`
	Email  string       `json:"email,omitempty"`
	Social []SocialLink `json:"social"`
}

type Experience struct {
	Company     string   `json:"company"`
	Position    string   `json:"position"`
	StartDate   string   `json:"startDate"`
	EndDate     string   `json:"endDate,omitempty"`
	Present     bool     `json:"present"`
	Description string   `json:"description"`
	Skills      []string `json:"skills"`
}

// Model is what the public page renders. A nil section is not shown.
type Model struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Template    string       `json:"template"`
	Hero        *Hero        `json:"hero,omitempty"`
	About       *About       `json:"about,omitempty"`
	Skills      *Skills      `json:"skills,omitempty"`
	Projects    *Projects    `json:"projects,omitempty"`
	Contact     *Contact     `json:"contact,omitempty"`
	Experiences []Experience `json:"experiences,omitempty"`
}

// FromPortfolio projects p without touching it. Missing sections are
// omitted; project items get display coercion.
func FromPortfolio(p *portfolio.Portfolio) Model {
	m := Model{ID: p.ID, Name: p.Name, Template: p.Template}
	s := p.Sections

	if s.Hero != nil {
		m.Hero = &Hero{Title: s.Hero.Title, Subtitle: s.Hero.Subtitle, BackgroundImage: s.Hero.BackgroundImage}
	}
	if s.About != nil {
		m.About = &About{Title: s.About.Title, Paragraphs: paragraphs(s.About.Content), Image: s.About.Image}
	}
	if s.Skills != nil {
		items := make([]string, len(s.Skills.Items))
		copy(items, s.Skills.Items)
		m.Skills = &Skills{Title: s.Skills.Title, Items: items}
	}
	if s.Projects != nil {
		items := make([]portfolio.Project, 0, len(s.Projects.Items))
		for _, it := range s.Projects.Items {
			items = append(items, portfolio.NormalizeForDisplay(it))
		}
		m.Projects = &Projects{Title: s.Projects.Title, Items: items}
	}
	if s.Contact != nil {
		m.Contact = &Contact{Title: s.Contact.Title, Email: s.Contact.Email, Social: socialLinks(s.Contact.Social)}
	}

	for _, e := range p.Experiences {
		skills := make([]string, len(e.Skills))
		copy(skills, e.Skills)
		m.Experiences = append(m.Experiences, Experience{
			Company:     e.Company,
			Position:    e.Position,
			StartDate:   e.StartDate,
			EndDate:     e.EndDate,
			Present:     e.Present(),
			Description: e.Description,
			Skills:      skills,
		})
	}
	return m
}

func paragraphs(content string) []string {
	out := make([]string, 0)
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

func socialLinks(s portfolio.SocialLinks) []SocialLink {
	links := make([]SocialLink, 0, 3)
	for _, l := range []SocialLink{
		{Platform: "github", URL: s.GitHub},
		{Platform: "linkedin", URL: s.LinkedIn},
		{Platform: "twitter", URL: s.Twitter},
	} {
		if l.URL != "" {
			links = append(links, l)
		}
	}
	return links
}
