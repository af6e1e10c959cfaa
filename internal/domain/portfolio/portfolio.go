package portfolio

import (
	"context"
	"regexp"
	"time"

	"github.com/khoahotran/portgen/pkg/apperror"
)

const (
	Collection      = "portfolios"
	DefaultTemplate = "default"
)

type SectionKey string

const (
	SectionHero     SectionKey = "hero"
	SectionAbout    SectionKey = "about"
	SectionSkills   SectionKey = "skills"
	SectionProjects SectionKey = "projects"
	SectionContact  SectionKey = "contact"
)

// SectionKeys lists the five fixed sections in display order.
var SectionKeys = []SectionKey{SectionHero, SectionAbout, SectionSkills, SectionProjects, SectionContact}

func ParseSectionKey(s string) (SectionKey, error) {
	for _, k := range SectionKeys {
		if string(k) == s {
			return k, nil
		}
	}
	return "", apperror.NewInvalidInput("unknown section '"+s+"'", nil)
}

type HeroSection struct {
	Title           string `json:"title"`
	Subtitle        string `json:"subtitle"`
	BackgroundImage string `json:"backgroundImage"`
}

type AboutSection struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Image   string `json:"image"`
}

type SkillsSection struct {
	Title string   `json:"title"`
	Items []string `json:"items"`
}

type ProjectsSection struct {
	Title string        `json:"title"`
	Items []ProjectItem `json:"items"`
}

type SocialLinks struct {
	GitHub   string `json:"github"`
	LinkedIn string `json:"linkedin"`
	Twitter  string `json:"twitter"`
}

type ContactSection struct {
	Title  string      `json:"title"`
	Email  string      `json:"email"`
	Social SocialLinks `json:"social"`
}

// Sections uses pointers so a document persisted without one of the fixed
// keys can still be decoded and rendered.
type Sections struct {
	Hero     *HeroSection     `json:"hero,omitempty"`
	About    *AboutSection    `json:"about,omitempty"`
	Skills   *SkillsSection   `json:"skills,omitempty"`
	Projects *ProjectsSection `json:"projects,omitempty"`
	Contact  *ContactSection  `json:"contact,omitempty"`
}

type Experience struct {
	Company     string   `json:"company"`
	Position    string   `json:"position"`
	StartDate   string   `json:"startDate"`
	EndDate     string   `json:"endDate"`
	Description string   `json:"description"`
	Skills      []string `json:"skills"`
}

// Present reports whether the experience is ongoing.
func (e Experience) Present() bool {
	return e.EndDate == ""
}

type Portfolio struct {
	ID       string `json:"id,omitempty"`
	Owner    string `json:"owner"`
	Name     string `json:"name"`
	Template string `json:"template"`
	// Username is the optional lowercase public handle.
	Username    string       `json:"username,omitempty"`
	Sections    Sections     `json:"sections"`
	Experiences []Experience `json:"experiences,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`

	// LegacyUserID carries the older "userId" owner field some write paths
	// produced. NormalizeOwner folds it into Owner.
	LegacyUserID string `json:"userId,omitempty"`
}

var idPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateID checks the public id format before any store round trip.
func ValidateID(id string) error {
	if id == "" {
		return apperror.NewInvalidInput("portfolio id is required", nil)
	}
	if !idPattern.MatchString(id) {
		return apperror.NewInvalidInput("invalid portfolio id format", nil)
	}
	return nil
}

// NormalizeOwner resolves the owner/userId alias. Owner wins when both are set.
func (p *Portfolio) NormalizeOwner() {
	if p.Owner == "" && p.LegacyUserID != "" {
		p.Owner = p.LegacyUserID
	}
}

// OwnedBy reports whether userID owns the document.
func (p *Portfolio) OwnedBy(userID string) bool {
	return userID != "" && p.Owner == userID
}

// ValidateForEditing requires every fixed section to be present.
func (p *Portfolio) ValidateForEditing() error {
	s := p.Sections
	missing := ""
	switch {
	case s.Hero == nil:
		missing = string(SectionHero)
	case s.About == nil:
		missing = string(SectionAbout)
	case s.Skills == nil:
		missing = string(SectionSkills)
	case s.Projects == nil:
		missing = string(SectionProjects)
	case s.Contact == nil:
		missing = string(SectionContact)
	}
	if missing != "" {
		return apperror.NewMalformed("portfolio "+p.ID+" has no '"+missing+"' section", nil)
	}
	return nil
}

// Clone returns a deep copy.
func (p *Portfolio) Clone() *Portfolio {
	if p == nil {
		return nil
	}
	c := *p
	c.Sections = p.Sections.Clone()
	if p.Experiences != nil {
		c.Experiences = make([]Experience, len(p.Experiences))
		for i, e := range p.Experiences {
			c.Experiences[i] = e.clone()
		}
	}
	return &c
}

func (s Sections) Clone() Sections {
	var c Sections
	if s.Hero != nil {
		h := *s.Hero
		c.Hero = &h
	}
	if s.About != nil {
		a := *s.About
		c.About = &a
	}
	if s.Skills != nil {
		sk := *s.Skills
		sk.Items = cloneStrings(s.Skills.Items)
		c.Skills = &sk
	}
	if s.Projects != nil {
		pr := *s.Projects
		if s.Projects.Items != nil {
			pr.Items = make([]ProjectItem, len(s.Projects.Items))
			for i, it := range s.Projects.Items {
				pr.Items[i] = it.clone()
			}
		}
		c.Projects = &pr
	}
	if s.Contact != nil {
		ct := *s.Contact
		c.Contact = &ct
	}
	return c
}

func (e Experience) clone() Experience {
	e.Skills = cloneStrings(e.Skills)
	return e
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// Repository is the typed accessor for the portfolios collection.
type Repository interface {
	Get(ctx context.Context, id string) (*Portfolio, error)
	Create(ctx context.Context, p *Portfolio) error
	// UpdateContent writes the full sections object, the full experiences
	// list and updatedAt. Other top-level fields are left untouched.
	UpdateContent(ctx context.Context, p *Portfolio) error
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, ownerID string) ([]*Portfolio, error)
	FindByUsername(ctx context.Context, username string) (*Portfolio, error)
}
