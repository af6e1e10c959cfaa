package service

import (
	"context"
	"time"
)

type PortfolioEventType string

const (
	PortfolioEventCreated       PortfolioEventType = "portfolio.created"
	PortfolioEventSaved         PortfolioEventType = "portfolio.saved"
	PortfolioEventDeleted       PortfolioEventType = "portfolio.deleted"
	PortfolioEventBackrefFailed PortfolioEventType = "portfolio.backref_failed"
)

type PortfolioEvent struct {
	Type        PortfolioEventType `json:"event_type"`
	PortfolioID string             `json:"portfolio_id"`
	OwnerID     string             `json:"owner_id"`
	Detail      string             `json:"detail,omitempty"`
	OccurredAt  time.Time          `json:"occurred_at"`
}

type EventPublisher interface {
	Publish(ctx context.Context, e PortfolioEvent) error
}

// NopPublisher drops events. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, PortfolioEvent) error { return nil }
