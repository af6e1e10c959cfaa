package user

import (
	"context"
	"slices"
)

const Collection = "users"

// User is the account document at users/{id}. Portfolios is the
// back-reference list of owned portfolio ids.
type User struct {
	ID         string   `json:"id,omitempty"`
	Name       string   `json:"name,omitempty"`
	Email      string   `json:"email,omitempty"`
	Portfolios []string `json:"portfolios"`
}

// HasPortfolio reports whether id is in the back-reference list.
func (u *User) HasPortfolio(id string) bool {
	return slices.Contains(u.Portfolios, id)
}

// WithPortfolio returns the list with id appended once.
func (u *User) WithPortfolio(id string) []string {
	out := slices.Clone(u.Portfolios)
	if out == nil {
		out = []string{}
	}
	if !slices.Contains(out, id) {
		out = append(out, id)
	}
	return out
}

// WithoutPortfolio returns the list with every occurrence of id removed.
func (u *User) WithoutPortfolio(id string) []string {
	out := make([]string, 0, len(u.Portfolios))
	for _, p := range u.Portfolios {
		if p != id {
			out = append(out, p)
		}
	}
	return out
}

type Repository interface {
	Get(ctx context.Context, id string) (*User, error)
	// Ensure returns the user document, creating it with name and email when
	// it does not exist yet.
	Ensure(ctx context.Context, id, name, email string) (*User, error)
	SetPortfolios(ctx context.Context, id string, portfolioIDs []string) error
	List(ctx context.Context) ([]*User, error)
}
