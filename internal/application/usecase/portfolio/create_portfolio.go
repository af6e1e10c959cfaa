package portfolio

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/khoahotran/portgen/internal/application/service"
	"github.com/khoahotran/portgen/internal/domain/portfolio"
	"github.com/khoahotran/portgen/internal/domain/user"
	"github.com/khoahotran/portgen/pkg/apperror"
	"github.com/khoahotran/portgen/pkg/logger"
	"github.com/khoahotran/portgen/pkg/metrics"
)

type CreatePortfolioUseCase struct {
	portRepo  portfolio.Repository
	userRepo  user.Repository
	publisher service.EventPublisher
	metrics   *metrics.Metrics
	logger    logger.Logger
	now       func() time.Time
}

func NewCreatePortfolioUseCase(pRepo portfolio.Repository, uRepo user.Repository, pub service.EventPublisher, m *metrics.Metrics, log logger.Logger) *CreatePortfolioUseCase {
	return &CreatePortfolioUseCase{
		portRepo:  pRepo,
		userRepo:  uRepo,
		publisher: pub,
		metrics:   m,
		logger:    log,
		now:       time.Now,
	}
}

type CreatePortfolioInput struct {
	Principal service.Principal
	Name      string
	Template  string
	Username  string
}

type CreatePortfolioOutput struct {
	Portfolio *portfolio.Portfolio
}

func (uc *CreatePortfolioUseCase) Execute(ctx context.Context, input CreatePortfolioInput) (*CreatePortfolioOutput, error) {
	ctx, span := tracer.Start(ctx, "CreatePortfolio")
	defer span.End()

	uid := input.Principal.UserID
	if uid == "" {
		return nil, apperror.NewUnauthorized("no session", nil)
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperror.NewInvalidInput("portfolio name is required", nil)
	}
	template := input.Template
	if template == "" {
		template = portfolio.DefaultTemplate
	}
	username := strings.ToLower(strings.TrimSpace(input.Username))
	if username != "" {
		if err := portfolio.ValidateID(username); err != nil {
			return nil, apperror.NewInvalidInput("invalid username format", err)
		}
		_, err := uc.portRepo.FindByUsername(ctx, username)
		if err == nil {
			return nil, apperror.NewConflict("portfolio", "username '"+username+"' is taken")
		}
		if !errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
	}

	u, err := uc.userRepo.Ensure(ctx, uid, input.Principal.DisplayName, input.Principal.Email)
	if err != nil {
		uc.logger.Error("Failed to load user document", err, zap.String("user_id", uid))
		return nil, err
	}

	ownerName := firstNonEmpty(u.Name, input.Principal.DisplayName)
	ownerEmail := firstNonEmpty(u.Email, input.Principal.Email)
	now := uc.now().UTC()

	p := &portfolio.Portfolio{
		ID:        uuid.NewString(),
		Owner:     uid,
		Name:      name,
		Template:  template,
		Username:  username,
		Sections:  portfolio.DefaultSections(ownerName, ownerEmail),
		CreatedAt: now,
		UpdatedAt: now,
	}
	span.SetAttributes(attribute.String("portfolio.id", p.ID))

	if err := uc.portRepo.Create(ctx, p); err != nil {
		uc.logger.Error("Failed to create portfolio", err, zap.String("user_id", uid))
		return nil, err
	}

	if err := uc.userRepo.SetPortfolios(ctx, uid, u.WithPortfolio(p.ID)); err != nil {
		uc.logger.Error("Portfolio created without user back-reference", err,
			zap.String("portfolio_id", p.ID),
			zap.String("user_id", uid),
			zap.String("back_reference", "add"))
		uc.metrics.BackrefFailed("create")
		publish(ctx, uc.publisher, uc.logger, service.PortfolioEvent{
			Type:        service.PortfolioEventBackrefFailed,
			PortfolioID: p.ID,
			OwnerID:     uid,
			Detail:      "add",
		})
		return &CreatePortfolioOutput{Portfolio: p}, apperror.NewTransient("portfolio created but not linked to your account", err)
	}

	publish(ctx, uc.publisher, uc.logger, service.PortfolioEvent{
		Type:        service.PortfolioEventCreated,
		PortfolioID: p.ID,
		OwnerID:     uid,
		OccurredAt:  now,
	})
	uc.logger.Info("Portfolio created", zap.String("portfolio_id", p.ID), zap.String("user_id", uid))
	return &CreatePortfolioOutput{Portfolio: p}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
