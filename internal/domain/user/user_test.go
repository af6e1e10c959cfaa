package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBackReferenceHelpers(t *testing.T) {
	u := &User{ID: "u1", Portfolios: []string{"p1", "p2"}}

	assert.Equal(t, []string{"p1", "p2", "p3"}, u.WithPortfolio("p3"))
	assert.Equal(t, []string{"p1", "p2"}, u.WithPortfolio("p1"), "append is idempotent")
	assert.Equal(t, []string{"p2"}, u.WithoutPortfolio("p1"))
	assert.Equal(t, []string{"p1", "p2"}, u.Portfolios, "helpers do not mutate")

	empty := &User{ID: "u2"}
	assert.Equal(t, []string{"p1"}, empty.WithPortfolio("p1"))
	assert.Equal(t, []string{}, empty.WithoutPortfolio("p1"))
	assert.False(t, empty.HasPortfolio("p1"))
}
