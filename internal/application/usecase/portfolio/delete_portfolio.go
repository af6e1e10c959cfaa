package portfolio

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/khoahotran/portgen/internal/application/service"
	"github.com/khoahotran/portgen/internal/domain/portfolio"
	"github.com/khoahotran/portgen/internal/domain/user"
	"github.com/khoahotran/portgen/pkg/apperror"
	"github.com/khoahotran/portgen/pkg/logger"
	"github.com/khoahotran/portgen/pkg/metrics"
)

// SessionCloser drops open edit sessions of a deleted portfolio.
type SessionCloser interface {
	CloseForPortfolio(portfolioID string)
}

type DeletePortfolioUseCase struct {
	portRepo  portfolio.Repository
	userRepo  user.Repository
	cache     service.RenderCache
	sessions  SessionCloser
	publisher service.EventPublisher
	metrics   *metrics.Metrics
	logger    logger.Logger
}

func NewDeletePortfolioUseCase(pRepo portfolio.Repository, uRepo user.Repository, cache service.RenderCache, sessions SessionCloser, pub service.EventPublisher, m *metrics.Metrics, log logger.Logger) *DeletePortfolioUseCase {
	return &DeletePortfolioUseCase{
		portRepo:  pRepo,
		userRepo:  uRepo,
		cache:     cache,
		sessions:  sessions,
		publisher: pub,
		metrics:   m,
		logger:    log,
	}
}

type DeletePortfolioInput struct {
	Principal   service.Principal
	PortfolioID string
}

// Execute deletes the portfolio document first and then the back-reference.
// The two writes are not atomic; if the second fails the stale id stays in
// the user document and the failure is reported.
func (uc *DeletePortfolioUseCase) Execute(ctx context.Context, input DeletePortfolioInput) error {
	ctx, span := tracer.Start(ctx, "DeletePortfolio")
	defer span.End()

	uid := input.Principal.UserID
	if uid == "" {
		return apperror.NewUnauthorized("no session", nil)
	}
	if err := portfolio.ValidateID(input.PortfolioID); err != nil {
		return err
	}

	p, err := uc.portRepo.Get(ctx, input.PortfolioID)
	if err != nil {
		return err
	}
	if !p.OwnedBy(uid) {
		return apperror.NewPermissionDenied("you do not have permission to delete this portfolio")
	}

	if err := uc.portRepo.Delete(ctx, p.ID); err != nil {
		uc.logger.Error("Failed to delete portfolio", err, zap.String("portfolio_id", p.ID), zap.String("user_id", uid))
		return err
	}
	if uc.sessions != nil {
		uc.sessions.CloseForPortfolio(p.ID)
	}
	invalidate(ctx, uc.cache, uc.logger, p.ID)

	if err := uc.unlink(ctx, uid, p.ID); err != nil {
		uc.logger.Error("Portfolio deleted but user back-reference remains", err,
			zap.String("portfolio_id", p.ID),
			zap.String("user_id", uid),
			zap.String("back_reference", "remove"))
		uc.metrics.BackrefFailed("delete")
		publish(ctx, uc.publisher, uc.logger, service.PortfolioEvent{
			Type:        service.PortfolioEventBackrefFailed,
			PortfolioID: p.ID,
			OwnerID:     uid,
			Detail:      "remove",
		})
		return apperror.NewTransient("portfolio deleted but your account still lists it", err)
	}

	publish(ctx, uc.publisher, uc.logger, service.PortfolioEvent{
		Type:        service.PortfolioEventDeleted,
		PortfolioID: p.ID,
		OwnerID:     uid,
	})
	uc.logger.Info("Portfolio deleted", zap.String("portfolio_id", p.ID), zap.String("user_id", uid))
	return nil
}

func (uc *DeletePortfolioUseCase) unlink(ctx context.Context, uid, portfolioID string) error {
	u, err := uc.userRepo.Get(ctx, uid)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil
		}
		return err
	}
	if !u.HasPortfolio(portfolioID) {
		return nil
	}
	return uc.userRepo.SetPortfolios(ctx, uid, u.WithoutPortfolio(portfolioID))
}
