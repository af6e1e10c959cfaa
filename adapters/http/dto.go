package http

import (
	"encoding/json"
	"time"

	"github.com/khoahotran/portgen/internal/application/editor"
	"github.com/khoahotran/portgen/internal/domain/portfolio"
	"github.com/khoahotran/portgen/internal/domain/user"
)

type CreatePortfolioRequest struct {
	Name     string `json:"name" binding:"required"`
	Template string `json:"template"`
	Username string `json:"username"`
}

type AccountDTO struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	Portfolios []string `json:"portfolios"`
}

func ToAccountDTO(u *user.User) AccountDTO {
	return AccountDTO{ID: u.ID, Name: u.Name, Email: u.Email, Portfolios: u.Portfolios}
}

// Edit session DTOs
type SetFieldRequest struct {
	Section string `json:"section" binding:"required"`
	Field   string `json:"field" binding:"required"`
	Value   string `json:"value"`
}

const (
	OpAdd    = "add"
	OpSet    = "set"
	OpRemove = "remove"
)

// ItemRequest edits a section's items. Value may be a JSON string or, for
// projects, a project object.
type ItemRequest struct {
	Section string          `json:"section" binding:"required"`
	Op      string          `json:"op" binding:"required,oneof=add set remove"`
	Index   *int            `json:"index"`
	Value   json.RawMessage `json:"value"`
}

// ValueText returns a string Value unquoted and any other JSON as its text.
func (r ItemRequest) ValueText() (string, error) {
	if len(r.Value) == 0 || string(r.Value) == "null" {
		return "", nil
	}
	if r.Value[0] == '"' {
		var s string
		if err := json.Unmarshal(r.Value, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	return string(r.Value), nil
}

type SocialRequest struct {
	Platform string `json:"platform" binding:"required"`
	Value    string `json:"value"`
}

type ExperienceRequest struct {
	Op    string `json:"op" binding:"required,oneof=add set remove"`
	Index *int   `json:"index"`
	Field string `json:"field"`
	Value string `json:"value"`
}

type SessionDTO struct {
	SessionID   string                         `json:"session_id"`
	PortfolioID string                         `json:"portfolio_id"`
	State       string                         `json:"state"`
	Error       string                         `json:"error,omitempty"`
	Portfolio   *portfolio.Portfolio           `json:"portfolio,omitempty"`
	Uploads     map[string]editor.UploadStatus `json:"uploads"`
}

func ToSessionDTO(s *editor.Session) SessionDTO {
	dto := SessionDTO{
		SessionID:   s.ID(),
		PortfolioID: s.PortfolioID(),
		State:       s.State().String(),
		Portfolio:   s.Snapshot(),
		Uploads:     ToUploadsDTO(s.Progress()),
	}
	if err := s.Err(); err != nil {
		dto.Error = err.Error()
	}
	return dto
}

func ToUploadsDTO(progress map[editor.AssetKey]editor.UploadStatus) map[string]editor.UploadStatus {
	out := make(map[string]editor.UploadStatus, len(progress))
	for k, v := range progress {
		out[k.String()] = v
	}
	return out
}

type AssetDTO struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

type SavedDTO struct {
	UpdatedAt time.Time `json:"updated_at"`
}
