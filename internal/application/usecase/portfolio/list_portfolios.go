package portfolio

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/khoahotran/portgen/internal/application/service"
	"github.com/khoahotran/portgen/internal/domain/portfolio"
	"github.com/khoahotran/portgen/internal/domain/user"
	"github.com/khoahotran/portgen/pkg/apperror"
	"github.com/khoahotran/portgen/pkg/logger"
)

const maxConcurrentLoads = 8

type ListPortfoliosUseCase struct {
	portRepo portfolio.Repository
	userRepo user.Repository
	logger   logger.Logger
}

func NewListPortfoliosUseCase(pRepo portfolio.Repository, uRepo user.Repository, log logger.Logger) *ListPortfoliosUseCase {
	return &ListPortfoliosUseCase{portRepo: pRepo, userRepo: uRepo, logger: log}
}

type ListPortfoliosInput struct {
	Principal service.Principal
}

type PortfolioSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Template  string    `json:"template"`
	Username  string    `json:"username,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	// Linked is false for documents the owner query found but the user's
	// back-reference list does not carry.
	Linked bool `json:"linked"`
}

type ListPortfoliosOutput struct {
	Portfolios []PortfolioSummary
	// StaleIDs are back-references whose document no longer exists.
	StaleIDs []string
}

func (uc *ListPortfoliosUseCase) Execute(ctx context.Context, input ListPortfoliosInput) (*ListPortfoliosOutput, error) {
	ctx, span := tracer.Start(ctx, "ListPortfolios")
	defer span.End()

	uid := input.Principal.UserID
	if uid == "" {
		return nil, apperror.NewUnauthorized("no session", nil)
	}

	refs := []string{}
	u, err := uc.userRepo.Get(ctx, uid)
	switch {
	case err == nil:
		refs = u.Portfolios
	case errors.Is(err, apperror.ErrNotFound):
	default:
		return nil, err
	}

	loaded := make([]*portfolio.Portfolio, len(refs))
	var owned []*portfolio.Portfolio

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLoads)
	g.Go(func() error {
		var err error
		owned, err = uc.portRepo.ListByOwner(gctx, uid)
		return err
	})
	for i, id := range refs {
		g.Go(func() error {
			p, err := uc.portRepo.Get(gctx, id)
			if err != nil {
				if errors.Is(err, apperror.ErrNotFound) {
					return nil
				}
				return err
			}
			loaded[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		uc.logger.Error("Failed to list portfolios", err, zap.String("user_id", uid))
		return nil, err
	}

	out := &ListPortfoliosOutput{Portfolios: make([]PortfolioSummary, 0, len(refs)), StaleIDs: []string{}}
	seen := make(map[string]struct{}, len(refs))
	for i, p := range loaded {
		if p == nil {
			out.StaleIDs = append(out.StaleIDs, refs[i])
			continue
		}
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		out.Portfolios = append(out.Portfolios, summarize(p, true))
	}
	for _, p := range owned {
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		out.Portfolios = append(out.Portfolios, summarize(p, false))
	}

	if len(out.StaleIDs) > 0 {
		uc.logger.Warn("User lists portfolios that no longer exist",
			zap.String("user_id", uid),
			zap.Strings("stale_ids", out.StaleIDs))
	}
	return out, nil
}

func summarize(p *portfolio.Portfolio, linked bool) PortfolioSummary {
	return PortfolioSummary{
		ID:        p.ID,
		Name:      p.Name,
		Template:  p.Template,
		Username:  p.Username,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
		Linked:    linked,
	}
}
