package persistence

import (
	"context"
	"errors"

	"github.com/khoahotran/portgen/internal/application/service"
	"github.com/khoahotran/portgen/internal/domain/user"
	"github.com/khoahotran/portgen/pkg/apperror"
)

type userRepo struct {
	store service.DocumentStore
}

func NewUserRepo(store service.DocumentStore) user.Repository {
	return &userRepo{store: store}
}

func decodeUser(doc *service.Document) (*user.User, error) {
	u := &user.User{}
	if err := fromData(doc.Data, u); err != nil {
		return nil, err
	}
	u.ID = doc.ID
	if u.Portfolios == nil {
		u.Portfolios = []string{}
	}
	return u, nil
}

func (r *userRepo) Get(ctx context.Context, id string) (*user.User, error) {
	doc, err := r.store.Get(ctx, user.Collection, id)
	if err != nil {
		return nil, err
	}
	return decodeUser(doc)
}

func (r *userRepo) Ensure(ctx context.Context, id, name, email string) (*user.User, error) {
	u, err := r.Get(ctx, id)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	u = &user.User{ID: id, Name: name, Email: email, Portfolios: []string{}}
	fields, err := toFields(u)
	if err != nil {
		return nil, err
	}
	delete(fields, "id")

	if _, err := r.store.Create(ctx, user.Collection, id, fields); err != nil {
		// Lost a race with a concurrent first login; the other write wins.
		if errors.Is(err, apperror.ErrConflict) {
			return r.Get(ctx, id)
		}
		return nil, err
	}
	return u, nil
}

func (r *userRepo) SetPortfolios(ctx context.Context, id string, portfolioIDs []string) error {
	if portfolioIDs == nil {
		portfolioIDs = []string{}
	}
	ids := make([]any, len(portfolioIDs))
	for i, p := range portfolioIDs {
		ids[i] = p
	}
	return r.store.Update(ctx, user.Collection, id, map[string]any{"portfolios": ids})
}

func (r *userRepo) List(ctx context.Context) ([]*user.User, error) {
	docs, err := r.store.Query(ctx, user.Collection)
	if err != nil {
		return nil, err
	}
	users := make([]*user.User, 0, len(docs))
	for _, doc := range docs {
		u, err := decodeUser(doc)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}
