// Package audit finds inconsistencies between portfolio documents and the
// user back-reference lists. It only reports; it never writes.
package audit

import (
	"context"
	"errors"
	"slices"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/khoahotran/portgen/internal/domain/portfolio"
	"github.com/khoahotran/portgen/internal/domain/user"
	"github.com/khoahotran/portgen/pkg/apperror"
	"github.com/khoahotran/portgen/pkg/logger"
)

var tracer = otel.Tracer("audit_usecase")

type Report struct {
	UserID string `json:"user_id"`
	// Stale ids are listed by the user but have no document.
	Stale []string `json:"stale"`
	// Foreign ids are listed by the user but owned by someone else.
	Foreign []string `json:"foreign"`
	// Unreferenced ids are owned by the user but missing from the list.
	Unreferenced []string `json:"unreferenced"`
}

func (r *Report) Consistent() bool {
	return len(r.Stale) == 0 && len(r.Foreign) == 0 && len(r.Unreferenced) == 0
}

type BackrefAuditUseCase struct {
	userRepo user.Repository
	portRepo portfolio.Repository
	logger   logger.Logger
}

func NewBackrefAuditUseCase(uRepo user.Repository, pRepo portfolio.Repository, log logger.Logger) *BackrefAuditUseCase {
	return &BackrefAuditUseCase{userRepo: uRepo, portRepo: pRepo, logger: log}
}

// AuditUser checks one user. A missing user document is reported against
// whatever portfolios the user owns.
func (uc *BackrefAuditUseCase) AuditUser(ctx context.Context, userID string) (*Report, error) {
	ctx, span := tracer.Start(ctx, "AuditUser")
	defer span.End()

	refs := []string{}
	u, err := uc.userRepo.Get(ctx, userID)
	switch {
	case err == nil:
		refs = u.Portfolios
	case errors.Is(err, apperror.ErrNotFound):
	default:
		return nil, err
	}

	report := &Report{UserID: userID, Stale: []string{}, Foreign: []string{}, Unreferenced: []string{}}
	for _, id := range refs {
		p, err := uc.portRepo.Get(ctx, id)
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				report.Stale = append(report.Stale, id)
				continue
			}
			return nil, err
		}
		if !p.OwnedBy(userID) {
			report.Foreign = append(report.Foreign, id)
		}
	}

	owned, err := uc.portRepo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, p := range owned {
		if !slices.Contains(refs, p.ID) {
			report.Unreferenced = append(report.Unreferenced, p.ID)
		}
	}

	if !report.Consistent() {
		uc.logger.Warn("Back-reference inconsistency",
			zap.String("user_id", userID),
			zap.Strings("stale", report.Stale),
			zap.Strings("foreign", report.Foreign),
			zap.Strings("unreferenced", report.Unreferenced))
	}
	return report, nil
}

// AuditAll runs AuditUser for every user document and returns only the
// inconsistent reports.
func (uc *BackrefAuditUseCase) AuditAll(ctx context.Context) ([]*Report, error) {
	ctx, span := tracer.Start(ctx, "AuditAll")
	defer span.End()

	users, err := uc.userRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	var out []*Report
	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		r, err := uc.AuditUser(ctx, u.ID)
		if err != nil {
			uc.logger.Error("Audit failed for user", err, zap.String("user_id", u.ID))
			continue
		}
		if !r.Consistent() {
			out = append(out, r)
		}
	}
	uc.logger.Info("Back-reference audit finished",
		zap.Int("users", len(users)),
		zap.Int("inconsistent", len(out)))
	return out, nil
}
