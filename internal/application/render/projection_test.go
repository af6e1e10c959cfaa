package render

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/portgen/internal/domain/portfolio"
)

func sample() *portfolio.Portfolio {
	s := portfolio.DefaultSections("Ada", "ada@example.com")
	s.About.Content = "First line\n\nSecond line\n"
	s.Projects.Items = []portfolio.ProjectItem{
		portfolio.StructuredItem(portfolio.Project{Title: "A", Description: "B"}),
		portfolio.RawItem(`{"title":"C","description":"D"}`),
		portfolio.RawItem("not json"),
	}
	s.Contact.Social = portfolio.SocialLinks{GitHub: "https://github.com/ada"}
	return &portfolio.Portfolio{
		ID:       "p1",
		Owner:    "u1",
		Name:     "My Site",
		Template: portfolio.DefaultTemplate,
		Sections: s,
		Experiences: []portfolio.Experience{
			{Company: "Acme", Position: "Eng", StartDate: "2020-01", Skills: []string{"Go"}},
			{Company: "Old", Position: "Intern", StartDate: "2018-01", EndDate: "2019-01"},
		},
	}
}

func TestFromPortfolio_ProjectsAreNormalized(t *testing.T) {
	m := FromPortfolio(sample())

	require.NotNil(t, m.Projects)
	require.Len(t, m.Projects.Items, 3)
	assert.Equal(t, portfolio.Project{Title: "A", Description: "B"}, m.Projects.Items[0])
	assert.Equal(t, portfolio.Project{Title: "C", Description: "D"}, m.Projects.Items[1])
	assert.Equal(t, portfolio.ErrorProject, m.Projects.Items[2])
}

func TestFromPortfolio_MissingContactIsOmitted(t *testing.T) {
	p := sample()
	p.Sections.Contact = nil

	var m Model
	require.NotPanics(t, func() { m = FromPortfolio(p) })
	assert.Nil(t, m.Contact)
	assert.NotNil(t, m.Hero)

	b, err := json.Marshal(m)
	require.NoError(t, err)
	assert.NotContains(t, string(b), `"contact"`)
}

func TestFromPortfolio_NoSectionsAtAll(t *testing.T) {
	m := FromPortfolio(&portfolio.Portfolio{ID: "bare"})
	assert.Nil(t, m.Hero)
	assert.Nil(t, m.About)
	assert.Nil(t, m.Skills)
	assert.Nil(t, m.Projects)
	assert.Nil(t, m.Contact)
	assert.Empty(t, m.Experiences)
}

func TestFromPortfolio_DoesNotMutateInput(t *testing.T) {
	p := sample()
	before, err := json.Marshal(p)
	require.NoError(t, err)

	m := FromPortfolio(p)
	m.Skills.Items[0] = "changed"
	m.Experiences[0].Skills[0] = "changed"

	after, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
}

func TestFromPortfolio_Details(t *testing.T) {
	m := FromPortfolio(sample())

	assert.Equal(t, []string{"First line", "Second line"}, m.About.Paragraphs)
	assert.Equal(t, []SocialLink{{Platform: "github", URL: "https://github.com/ada"}}, m.Contact.Social)
	require.Len(t, m.Experiences, 2)
	assert.True(t, m.Experiences[0].Present)
	assert.False(t, m.Experiences[1].Present)
}
