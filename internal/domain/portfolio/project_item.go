package portfolio

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/khoahotran/portgen/pkg/apperror"
)

type Project struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl,omitempty"`
	Link        string `json:"link,omitempty"`
}

// ErrorProject is shown in place of an item that cannot be read as a Project.
var ErrorProject = Project{Title: "Error", Description: "Invalid project data"}

// ProjectItem is one entry of projects.items: either a structured Project or
// the raw text the user typed, kept verbatim so it can be fixed later.
type ProjectItem struct {
	project *Project
	raw     string
}

func StructuredItem(p Project) ProjectItem {
	return ProjectItem{project: &p}
}

func RawItem(s string) ProjectItem {
	return ProjectItem{raw: s}
}

// Project returns the structured value, if any.
func (i ProjectItem) Project() (Project, bool) {
	if i.project == nil {
		return Project{}, false
	}
	return *i.project, true
}

// Raw returns the unparsed text, if the item is not structured.
func (i ProjectItem) Raw() (string, bool) {
	if i.project != nil {
		return "", false
	}
	return i.raw, true
}

func (i ProjectItem) IsRaw() bool {
	return i.project == nil
}

func (i ProjectItem) clone() ProjectItem {
	if i.project == nil {
		return i
	}
	p := *i.project
	return ProjectItem{project: &p}
}

// ParseProject reads text as a JSON project object.
func ParseProject(raw string) (Project, error) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") {
		return Project{}, apperror.NewMalformed("project item is not a JSON object", nil)
	}
	var p Project
	if err := json.Unmarshal([]byte(trimmed), &p); err != nil {
		return Project{}, apperror.NewMalformed("project item is not valid project JSON", err)
	}
	return p, nil
}

// CoerceProjectItem parses raw as a Project and falls back to keeping the
// string. It never loses user input.
func CoerceProjectItem(raw string) ProjectItem {
	p, err := ParseProject(raw)
	if err != nil {
		return RawItem(raw)
	}
	return StructuredItem(p)
}

// NormalizeForDisplay always yields a Project. Unreadable raw text becomes
// ErrorProject.
func NormalizeForDisplay(item ProjectItem) Project {
	if p, ok := item.Project(); ok {
		return p
	}
	if p, err := ParseProject(item.raw); err == nil {
		return p
	}
	return ErrorProject
}

func (i ProjectItem) MarshalJSON() ([]byte, error) {
	if i.project != nil {
		return json.Marshal(i.project)
	}
	return json.Marshal(i.raw)
}

// UnmarshalJSON accepts an object, a string (coerced) or any other JSON value,
// which is kept as its raw text.
func (i *ProjectItem) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*i = RawItem("")
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*i = CoerceProjectItem(s)
	default:
		*i = CoerceProjectItem(string(data))
	}
	return nil
}
