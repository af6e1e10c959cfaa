package portfolio

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/khoahotran/portgen/internal/application/render"
	"github.com/khoahotran/portgen/internal/application/service"
	"github.com/khoahotran/portgen/internal/domain/portfolio"
	"github.com/khoahotran/portgen/pkg/logger"
	"github.com/khoahotran/portgen/pkg/metrics"
)

const DefaultRenderTTL = 5 * time.Minute

// GetPublicPortfolioUseCase serves the read-only projection. No session is
// needed; the cache is optional.
type GetPublicPortfolioUseCase struct {
	portRepo portfolio.Repository
	cache    service.RenderCache
	ttl      time.Duration
	metrics  *metrics.Metrics
	logger   logger.Logger
}

func NewGetPublicPortfolioUseCase(pRepo portfolio.Repository, cache service.RenderCache, ttl time.Duration, m *metrics.Metrics, log logger.Logger) *GetPublicPortfolioUseCase {
	if ttl <= 0 {
		ttl = DefaultRenderTTL
	}
	return &GetPublicPortfolioUseCase{portRepo: pRepo, cache: cache, ttl: ttl, metrics: m, logger: log}
}

type GetPublicPortfolioInput struct {
	PortfolioID string
	Username    string
}

type GetPublicPortfolioOutput struct {
	Model  render.Model
	Cached bool
}

func (uc *GetPublicPortfolioUseCase) Execute(ctx context.Context, input GetPublicPortfolioInput) (*GetPublicPortfolioOutput, error) {
	ctx, span := tracer.Start(ctx, "GetPublicPortfolio")
	defer span.End()

	id := input.PortfolioID
	if input.Username != "" {
		p, err := uc.portRepo.FindByUsername(ctx, input.Username)
		if err != nil {
			return nil, err
		}
		id = p.ID
	} else if err := portfolio.ValidateID(id); err != nil {
		return nil, err
	}

	if m, ok := uc.fromCache(ctx, id); ok {
		return &GetPublicPortfolioOutput{Model: m, Cached: true}, nil
	}

	// The version is read before the document so a save that invalidates
	// in between keeps this render out of the cache.
	version, cacheable := uc.version(ctx, id)
	p, err := uc.portRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	m := render.FromPortfolio(p)
	if cacheable {
		uc.store(ctx, id, m, version)
	}
	return &GetPublicPortfolioOutput{Model: m}, nil
}

func (uc *GetPublicPortfolioUseCase) fromCache(ctx context.Context, id string) (render.Model, bool) {
	var m render.Model
	if uc.cache == nil {
		return m, false
	}
	b, err := uc.cache.Get(ctx, id)
	if err != nil {
		uc.logger.Warn("Render cache read failed", zap.String("portfolio_id", id), zap.Error(err))
		uc.metrics.RenderCacheMiss()
		return m, false
	}
	if b == nil {
		uc.metrics.RenderCacheMiss()
		return m, false
	}
	if err := json.Unmarshal(b, &m); err != nil {
		uc.logger.Warn("Discarding unreadable render cache entry", zap.String("portfolio_id", id), zap.Error(err))
		uc.metrics.RenderCacheMiss()
		return render.Model{}, false
	}
	uc.metrics.RenderCacheHit()
	return m, true
}

func (uc *GetPublicPortfolioUseCase) version(ctx context.Context, id string) (int64, bool) {
	if uc.cache == nil {
		return 0, false
	}
	v, err := uc.cache.Version(ctx, id)
	if err != nil {
		uc.logger.Warn("Render cache version read failed", zap.String("portfolio_id", id), zap.Error(err))
		return 0, false
	}
	return v, true
}

func (uc *GetPublicPortfolioUseCase) store(ctx context.Context, id string, m render.Model, version int64) {
	b, err := json.Marshal(m)
	if err != nil {
		return
	}
	stored, err := uc.cache.Set(ctx, id, b, uc.ttl, version)
	if err != nil {
		uc.logger.Warn("Render cache write failed", zap.String("portfolio_id", id), zap.Error(err))
		return
	}
	if !stored {
		uc.logger.Debug("Skipped caching render invalidated during read", zap.String("portfolio_id", id))
	}
}
