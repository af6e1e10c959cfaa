package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/khoahotran/portgen/internal/application/service"
	"github.com/khoahotran/portgen/internal/domain/portfolio"
	"github.com/khoahotran/portgen/pkg/apperror"
)

type portfolioRepo struct {
	store service.DocumentStore
	now   func() time.Time
}

func NewPortfolioRepo(store service.DocumentStore) portfolio.Repository {
	return &portfolioRepo{store: store, now: time.Now}
}

func decodePortfolio(doc *service.Document) (*portfolio.Portfolio, error) {
	p := &portfolio.Portfolio{}
	if err := fromData(doc.Data, p); err != nil {
		return nil, err
	}
	p.ID = doc.ID
	p.NormalizeOwner()
	return p, nil
}

func (r *portfolioRepo) Get(ctx context.Context, id string) (*portfolio.Portfolio, error) {
	doc, err := r.store.Get(ctx, portfolio.Collection, id)
	if err != nil {
		return nil, err
	}
	return decodePortfolio(doc)
}

func (r *portfolioRepo) Create(ctx context.Context, p *portfolio.Portfolio) error {
	fields, err := toFields(p)
	if err != nil {
		return err
	}
	delete(fields, "id")
	delete(fields, "userId")

	doc, err := r.store.Create(ctx, portfolio.Collection, p.ID, fields)
	if err != nil {
		return err
	}
	p.ID = doc.ID
	return nil
}

func (r *portfolioRepo) UpdateContent(ctx context.Context, p *portfolio.Portfolio) error {
	if p.ID == "" {
		return apperror.NewInvalidInput("portfolio id is required", nil)
	}
	sections, err := toValue(p.Sections)
	if err != nil {
		return err
	}
	experiences := p.Experiences
	if experiences == nil {
		experiences = []portfolio.Experience{}
	}
	exp, err := toValue(experiences)
	if err != nil {
		return err
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = r.now().UTC()
	}

	fields := map[string]any{
		"sections":    sections,
		"experiences": exp,
		"updatedAt":   p.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	// Documents written under the legacy field get the canonical one on save.
	if p.LegacyUserID != "" && p.Owner != "" {
		fields["owner"] = p.Owner
	}
	return r.store.Update(ctx, portfolio.Collection, p.ID, fields)
}

func (r *portfolioRepo) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, portfolio.Collection, id)
}

// ListByOwner merges documents found under owner and under the legacy userId
// field. Order follows the store, owner matches first.
func (r *portfolioRepo) ListByOwner(ctx context.Context, ownerID string) ([]*portfolio.Portfolio, error) {
	byOwner, err := r.store.Query(ctx, portfolio.Collection, service.Filter{Field: "owner", Value: ownerID})
	if err != nil {
		return nil, err
	}
	byLegacy, err := r.store.Query(ctx, portfolio.Collection, service.Filter{Field: "userId", Value: ownerID})
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(byOwner)+len(byLegacy))
	out := make([]*portfolio.Portfolio, 0, len(byOwner)+len(byLegacy))
	for _, doc := range append(byOwner, byLegacy...) {
		if _, dup := seen[doc.ID]; dup {
			continue
		}
		seen[doc.ID] = struct{}{}
		p, err := decodePortfolio(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *portfolioRepo) FindByUsername(ctx context.Context, username string) (*portfolio.Portfolio, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, apperror.NewInvalidInput("username is required", nil)
	}
	docs, err := r.store.Query(ctx, portfolio.Collection, service.Filter{Field: "username", Value: username})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, apperror.NewNotFound("portfolio", username)
	}
	return decodePortfolio(docs[0])
}
