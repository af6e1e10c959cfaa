package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/khoahotran/portgen/internal/application/service"
)

// HandleEvent audits the owner after events that touch the back-reference
// list. Other events return a nil report.
func (uc *BackrefAuditUseCase) HandleEvent(ctx context.Context, e service.PortfolioEvent) (*Report, error) {
	switch e.Type {
	case service.PortfolioEventCreated, service.PortfolioEventDeleted, service.PortfolioEventBackrefFailed:
	default:
		return nil, nil
	}
	if e.OwnerID == "" {
		uc.logger.Warn("Event without owner, skip audit",
			zap.String("event_type", string(e.Type)), zap.String("portfolio_id", e.PortfolioID))
		return nil, nil
	}
	return uc.AuditUser(ctx, e.OwnerID)
}
