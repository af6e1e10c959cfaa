package editor

import (
	"slices"

	"github.com/khoahotran/portgen/internal/domain/portfolio"
	"github.com/khoahotran/portgen/pkg/apperror"
)

// scalarField resolves a section's string field by its document name.
func scalarField(s *portfolio.Sections, section portfolio.SectionKey, field string) (*string, error) {
	switch section {
	case portfolio.SectionHero:
		if s.Hero == nil {
			break
		}
		switch field {
		case "title":
			return &s.Hero.Title, nil
		case "subtitle":
			return &s.Hero.Subtitle, nil
		case "backgroundImage":
			return &s.Hero.BackgroundImage, nil
		}
	case portfolio.SectionAbout:
		if s.About == nil {
			break
		}
		switch field {
		case "title":
			return &s.About.Title, nil
		case "content":
			return &s.About.Content, nil
		case "image":
			return &s.About.Image, nil
		}
	case portfolio.SectionSkills:
		if s.Skills != nil && field == "title" {
			return &s.Skills.Title, nil
		}
	case portfolio.SectionProjects:
		if s.Projects != nil && field == "title" {
			return &s.Projects.Title, nil
		}
	case portfolio.SectionContact:
		if s.Contact == nil {
			break
		}
		switch field {
		case "title":
			return &s.Contact.Title, nil
		case "email":
			return &s.Contact.Email, nil
		}
	}
	return nil, apperror.NewInvalidInput("section '"+string(section)+"' has no field '"+field+"'", nil)
}

func socialField(s *portfolio.Sections, platform string) (*string, error) {
	if s.Contact == nil {
		return nil, apperror.NewInvalidInput("portfolio has no contact section", nil)
	}
	switch platform {
	case "github":
		return &s.Contact.Social.GitHub, nil
	case "linkedin":
		return &s.Contact.Social.LinkedIn, nil
	case "twitter":
		return &s.Contact.Social.Twitter, nil
	}
	return nil, apperror.NewInvalidInput("unknown social platform '"+platform+"'", nil)
}

func experienceField(e *portfolio.Experience, field, value string) error {
	switch field {
	case "company":
		e.Company = value
	case "position":
		e.Position = value
	case "startDate":
		e.StartDate = value
	case "endDate":
		e.EndDate = value
	case "description":
		e.Description = value
	case "skills":
		e.Skills = portfolio.ParseSkillList(value)
	default:
		return apperror.NewInvalidInput("experience has no field '"+field+"'", nil)
	}
	return nil
}

// itemList adapts the two sections that carry an items sequence.
type itemList interface {
	present() bool
	len() int
	set(i int, value string)
	add(value string)
	remove(i int)
}

type skillItems struct{ s *portfolio.SkillsSection }

func (l skillItems) present() bool { return l.s != nil && l.s.Items != nil }
func (l skillItems) len() int { return len(l.s.Items) }
func (l skillItems) set(i int, v string) { l.s.Items[i] = v }
func (l skillItems) add(v string) { l.s.Items = append(l.s.Items, v) }
func (l skillItems) remove(i int) { l.s.Items = slices.Delete(l.s.Items, i, i+1) }

// Project items keep the raw text when it does not parse so the user can
// keep editing it.
type projectItems struct{ s *portfolio.ProjectsSection }

func (l projectItems) present() bool { return l.s != nil && l.s.Items != nil }
func (l projectItems) len() int { return len(l.s.Items) }
func (l projectItems) set(i int, v string) { l.s.Items[i] = portfolio.CoerceProjectItem(v) }
func (l projectItems) add(v string) { l.s.Items = append(l.s.Items, portfolio.CoerceProjectItem(v)) }
func (l projectItems) remove(i int) { l.s.Items = slices.Delete(l.s.Items, i, i+1) }

func items(s *portfolio.Sections, section portfolio.SectionKey) (itemList, error) {
	switch section {
	case portfolio.SectionSkills:
		if s.Skills != nil {
			return skillItems{s.Skills}, nil
		}
	case portfolio.SectionProjects:
		if s.Projects != nil {
			return projectItems{s.Projects}, nil
		}
	}
	return nil, apperror.NewInvalidInput("section '"+string(section)+"' has no items", nil)
}
