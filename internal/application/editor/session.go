// Package editor holds edit sessions: an in-memory working copy of one
// portfolio that is mutated field by field and persisted on explicit save.
package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/khoahotran/portgen/internal/application/service"
	"github.com/khoahotran/portgen/internal/domain/portfolio"
	"github.com/khoahotran/portgen/pkg/apperror"
	"github.com/khoahotran/portgen/pkg/logger"
	"github.com/khoahotran/portgen/pkg/metrics"
)

var tracer = otel.Tracer("editor")

// SaveHook runs after a successful save with the persisted snapshot.
type SaveHook func(ctx context.Context, saved *portfolio.Portfolio)

type Deps struct {
	Portfolios portfolio.Repository
	Blobs      service.BlobStore
	Logger     logger.Logger
	Metrics    *metrics.Metrics
	AfterSave  SaveHook
	Now        func() time.Time
	// NewID suffixes blob keys so two uploads never share an object.
	NewID func() string
}

type upload struct {
	gen    uint64
	status UploadStatus
	// blobKey is the object the working copy points at for this key.
	blobKey string
}

type Session struct {
	id          string
	portfolioID string
	principal   service.Principal
	deps        Deps
	logger      logger.Logger

	mu      sync.Mutex
	state   State
	err     error
	working *portfolio.Portfolio
	uploads map[AssetKey]*upload
}

// NewSession returns a session in Loading. Call Load before anything else.
func NewSession(id, portfolioID string, principal service.Principal, deps Deps) *Session {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNop()
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	return &Session{
		id:          id,
		portfolioID: portfolioID,
		principal:   principal,
		deps:        deps,
		logger: deps.Logger.With(
			zap.String("session_id", id),
			zap.String("portfolio_id", portfolioID),
			zap.String("user_id", principal.UserID),
		),
		state:   StateLoading,
		uploads: make(map[AssetKey]*upload),
	}
}

func (s *Session) ID() string          { return s.id }
func (s *Session) PortfolioID() string { return s.portfolioID }
func (s *Session) OwnerID() string     { return s.principal.UserID }

// Load reads the document and moves to Ready, or to Failed on any error.
// Failed is terminal.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateLoading {
		st := s.state
		s.mu.Unlock()
		return apperror.NewConflict("session", "session is "+st.String())
	}
	s.mu.Unlock()

	p, err := s.deps.Portfolios.Get(ctx, s.portfolioID)
	if err == nil && !p.OwnedBy(s.principal.UserID) {
		err = apperror.NewPermissionDenied("you do not have permission to edit this portfolio")
	}
	if err == nil {
		err = p.ValidateForEditing()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = StateFailed
		s.err = err
		s.logger.Warn("Edit session failed to load", zap.Error(err))
		return err
	}

	// Nil item lists become empty so add then remove is an exact inverse.
	if p.Sections.Skills.Items == nil {
		p.Sections.Skills.Items = []string{}
	}
	if p.Sections.Projects.Items == nil {
		p.Sections.Projects.Items = []portfolio.ProjectItem{}
	}
	s.working = p
	s.state = StateReady
	s.deps.Metrics.SessionOpened()
	return nil
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err is the last surfaced load or save error, nil after a successful save.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Snapshot returns a deep copy of the working copy, or nil before Ready.
func (s *Session) Snapshot() *portfolio.Portfolio {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.working.Clone()
}

func (s *Session) Progress() map[AssetKey]UploadStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[AssetKey]UploadStatus, len(s.uploads))
	for k, u := range s.uploads {
		out[k] = u.status
	}
	return out
}

// mutate runs fn on the working copy while the session is Ready.
func (s *Session) mutate(fn func(p *portfolio.Portfolio) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readyLocked(); err != nil {
		return err
	}
	return fn(s.working)
}

func (s *Session) readyLocked() error {
	switch s.state {
	case StateReady:
		return nil
	case StateFailed:
		return apperror.NewConflict("session", fmt.Sprintf("session failed to load: %v", s.err))
	default:
		return apperror.NewConflict("session", "session is "+s.state.String())
	}
}

func (s *Session) SetField(section portfolio.SectionKey, field, value string) error {
	return s.mutate(func(p *portfolio.Portfolio) error {
		ref, err := scalarField(&p.Sections, section, field)
		if err != nil {
			return err
		}
		*ref = value
		return nil
	})
}

// SetArrayItem replaces items[index]. The index must exist.
func (s *Session) SetArrayItem(section portfolio.SectionKey, index int, value string) error {
	return s.mutate(func(p *portfolio.Portfolio) error {
		l, err := items(&p.Sections, section)
		if err != nil {
			return err
		}
		if !l.present() {
			return apperror.NewInvalidInput("section '"+string(section)+"' has no items", nil)
		}
		if index < 0 || index >= l.len() {
			return apperror.NewInvalidInput(fmt.Sprintf("item index %d out of range", index), nil)
		}
		l.set(index, value)
		return nil
	})
}

func (s *Session) AddArrayItem(section portfolio.SectionKey, value string) error {
	return s.mutate(func(p *portfolio.Portfolio) error {
		l, err := items(&p.Sections, section)
		if err != nil {
			return err
		}
		l.add(value)
		return nil
	})
}

// RemoveArrayItem drops items[index]; an out-of-range index changes nothing.
func (s *Session) RemoveArrayItem(section portfolio.SectionKey, index int) error {
	return s.mutate(func(p *portfolio.Portfolio) error {
		l, err := items(&p.Sections, section)
		if err != nil {
			return err
		}
		if !l.present() {
			return apperror.NewInvalidInput("section '"+string(section)+"' has no items", nil)
		}
		if index < 0 || index >= l.len() {
			return nil
		}
		l.remove(index)
		return nil
	})
}

func (s *Session) SetSocialField(platform, value string) error {
	return s.mutate(func(p *portfolio.Portfolio) error {
		ref, err := socialField(&p.Sections, platform)
		if err != nil {
			return err
		}
		*ref = value
		return nil
	})
}

func (s *Session) AddExperience() error {
	return s.mutate(func(p *portfolio.Portfolio) error {
		p.Experiences = append(p.Experiences, portfolio.BlankExperience())
		return nil
	})
}

func (s *Session) SetExperienceField(index int, field, value string) error {
	return s.mutate(func(p *portfolio.Portfolio) error {
		if index < 0 || index >= len(p.Experiences) {
			return apperror.NewInvalidInput(fmt.Sprintf("experience index %d out of range", index), nil)
		}
		return experienceField(&p.Experiences[index], field, value)
	})
}

// RemoveExperience drops experiences[index]; out of range is a no-op.
func (s *Session) RemoveExperience(index int) error {
	return s.mutate(func(p *portfolio.Portfolio) error {
		if index < 0 || index >= len(p.Experiences) {
			return nil
		}
		p.Experiences = append(p.Experiences[:index:index], p.Experiences[index+1:]...)
		return nil
	})
}

type AssetFile struct {
	Body        io.Reader
	Size        int64
	ContentType string
}

// AttachAsset uploads file and writes the resulting URL into section.field.
// A newer upload for the same key supersedes this one: the superseded
// result is discarded and reported as a Conflict.
func (s *Session) AttachAsset(ctx context.Context, section portfolio.SectionKey, field string, file AssetFile) (*service.Asset, error) {
	key := AssetKey{Section: section, Field: field}

	s.mu.Lock()
	if err := s.readyLocked(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if _, err := scalarField(&s.working.Sections, section, field); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	u := s.uploads[key]
	if u == nil {
		u = &upload{}
		s.uploads[key] = u
	}
	u.gen++
	gen := u.gen
	u.status = UploadStatus{}
	s.mu.Unlock()

	blobKey := fmt.Sprintf("portfolios/%s/%s_%s_%d_%s", s.portfolioID, section, field, s.deps.Now().UnixMilli(), s.deps.NewID())
	asset, err := s.deps.Blobs.Upload(ctx, service.UploadInput{
		Key:         blobKey,
		Body:        file.Body,
		Size:        file.Size,
		ContentType: file.ContentType,
		OnProgress:  func(f float64) { s.reportProgress(key, gen, f) },
	})
	s.deps.Metrics.ObserveUpload(file.Size, err)

	s.mu.Lock()
	current := s.uploads[key].gen == gen
	if err != nil {
		if current {
			s.uploads[key].status = UploadStatus{Progress: 0, Error: "failed to upload image"}
		}
		s.mu.Unlock()
		s.logger.Error("Asset upload failed", err, zap.String("asset_key", key.String()))
		if errors.Is(err, apperror.ErrTransient) {
			return nil, err
		}
		return nil, apperror.NewTransient("failed to upload image", err)
	}
	if !current {
		inUse := s.uploads[key].blobKey == asset.Key
		s.mu.Unlock()
		if !inUse {
			s.discard(asset.Key)
		}
		return nil, apperror.NewConflict("asset", "upload for "+key.String()+" was superseded")
	}
	s.uploads[key].status = UploadStatus{Progress: 1}
	s.uploads[key].blobKey = asset.Key
	// A save in flight already took its snapshot, so the URL lands in the next save.
	if s.working != nil && s.state != StateFailed {
		ref, _ := scalarField(&s.working.Sections, section, field)
		*ref = asset.URL
	}
	s.mu.Unlock()
	return asset, nil
}

func (s *Session) reportProgress(key AssetKey, gen uint64, f float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.uploads[key]
	if u == nil || u.gen != gen || f <= u.status.Progress {
		return
	}
	if f > 1 {
		f = 1
	}
	u.status.Progress = f
}

func (s *Session) discard(blobKey string) {
	if err := s.deps.Blobs.Delete(context.Background(), blobKey); err != nil && !errors.Is(err, apperror.ErrNotFound) {
		s.logger.Warn("Failed to delete superseded asset", zap.String("blob_key", blobKey), zap.Error(err))
	}
}

// Save writes the whole sections object and experiences list. A second call
// while one is in flight is rejected. On failure the session stays Ready
// with its changes intact.
func (s *Session) Save(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Save")
	defer span.End()
	span.SetAttributes(attribute.String("portfolio.id", s.portfolioID))

	s.mu.Lock()
	if err := s.readyLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.state = StateSaving
	snap := s.working.Clone()
	snap.UpdatedAt = s.deps.Now().UTC()
	s.mu.Unlock()

	start := time.Now()
	err := s.deps.Portfolios.UpdateContent(ctx, snap)
	s.deps.Metrics.ObserveSave(time.Since(start), err)

	s.mu.Lock()
	s.state = StateReady
	if err != nil {
		if !errors.Is(err, apperror.ErrTransient) && !errors.Is(err, apperror.ErrNotFound) {
			err = apperror.NewTransient("failed to save portfolio", err)
		}
		s.err = err
		s.mu.Unlock()
		span.RecordError(err)
		s.logger.Error("Failed to save portfolio", err)
		return err
	}
	s.err = nil
	s.working.UpdatedAt = snap.UpdatedAt
	if s.working.LegacyUserID != "" {
		s.working.LegacyUserID = ""
	}
	s.mu.Unlock()

	s.logger.Info("Portfolio saved")
	if s.deps.AfterSave != nil {
		s.deps.AfterSave(ctx, snap)
	}
	return nil
}
