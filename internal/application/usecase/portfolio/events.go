package portfolio

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/khoahotran/portgen/internal/application/service"
	"github.com/khoahotran/portgen/internal/domain/portfolio"
	"github.com/khoahotran/portgen/pkg/logger"
)

var tracer = otel.Tracer("portfolio_usecase")

func publish(ctx context.Context, pub service.EventPublisher, log logger.Logger, e service.PortfolioEvent) {
	if pub == nil {
		return
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	if err := pub.Publish(ctx, e); err != nil {
		log.Warn("Failed to publish portfolio event",
			zap.String("event_type", string(e.Type)),
			zap.String("portfolio_id", e.PortfolioID),
			zap.Error(err))
	}
}

// NewSavedHook is run by edit sessions after each save: the cached public
// render is dropped and a saved event goes out.
func NewSavedHook(cache service.RenderCache, pub service.EventPublisher, log logger.Logger) func(ctx context.Context, saved *portfolio.Portfolio) {
	return func(ctx context.Context, saved *portfolio.Portfolio) {
		invalidate(ctx, cache, log, saved.ID)
		publish(ctx, pub, log, service.PortfolioEvent{
			Type:        service.PortfolioEventSaved,
			PortfolioID: saved.ID,
			OwnerID:     saved.Owner,
			OccurredAt:  saved.UpdatedAt,
		})
	}
}

func invalidate(ctx context.Context, cache service.RenderCache, log logger.Logger, id string) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx, id); err != nil {
		log.Warn("Failed to invalidate render cache", zap.String("portfolio_id", id), zap.Error(err))
	}
}
