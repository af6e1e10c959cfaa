package portfolio

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/khoahotran/portgen/adapters/persistence"
	"github.com/khoahotran/portgen/internal/application/service"
	"github.com/khoahotran/portgen/internal/domain/portfolio"
	"github.com/khoahotran/portgen/internal/domain/user"
	"github.com/khoahotran/portgen/pkg/apperror"
	"github.com/khoahotran/portgen/pkg/logger"
	"github.com/khoahotran/portgen/pkg/metrics"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []service.PortfolioEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e service.PortfolioEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []service.PortfolioEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]service.PortfolioEventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type closedSessions struct{ ids []string }

func (c *closedSessions) CloseForPortfolio(id string) { c.ids = append(c.ids, id) }

type PortfolioUseCaseSuite struct {
	suite.Suite
	ctx      context.Context
	store    *persistence.MemoryStore
	portRepo portfolio.Repository
	userRepo user.Repository
	pub      *recordingPublisher
	metrics  *metrics.Metrics
	mr       *miniredis.Miniredis
	cache    service.RenderCache
	sessions *closedSessions

	create *CreatePortfolioUseCase
	remove *DeletePortfolioUseCase
	list   *ListPortfoliosUseCase
	public *GetPublicPortfolioUseCase
}

var u1 = service.Principal{UserID: "u1", DisplayName: "Ada Lovelace", Email: "ada@example.com"}

func (s *PortfolioUseCaseSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = persistence.NewMemoryStore()
	s.portRepo = persistence.NewPortfolioRepo(s.store)
	s.userRepo = persistence.NewUserRepo(s.store)
	s.pub = &recordingPublisher{}
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.mr = miniredis.RunT(s.T())
	rdb := redis.NewClient(&redis.Options{Addr: s.mr.Addr()})
	s.T().Cleanup(func() { _ = rdb.Close() })
	s.cache = persistence.NewRedisRenderCache(rdb)
	s.sessions = &closedSessions{}
	log := logger.NewNop()

	s.create = NewCreatePortfolioUseCase(s.portRepo, s.userRepo, s.pub, s.metrics, log)
	s.remove = NewDeletePortfolioUseCase(s.portRepo, s.userRepo, s.cache, s.sessions, s.pub, s.metrics, log)
	s.list = NewListPortfoliosUseCase(s.portRepo, s.userRepo, log)
	s.public = NewGetPublicPortfolioUseCase(s.portRepo, s.cache, time.Minute, s.metrics, log)
}

func (s *PortfolioUseCaseSuite) mustCreate(name string) *portfolio.Portfolio {
	out, err := s.create.Execute(s.ctx, CreatePortfolioInput{Principal: u1, Name: name})
	s.Require().NoError(err)
	return out.Portfolio
}

func (s *PortfolioUseCaseSuite) TestCreate_SeedsDefaultsAndBackReference() {
	p := s.mustCreate("My Site")

	got, err := s.portRepo.Get(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal("u1", got.Owner)
	s.Equal("My Site", got.Name)
	s.Equal(portfolio.DefaultTemplate, got.Template)
	s.Contains(got.Sections.Hero.Title, "Ada Lovelace")
	s.Len(got.Sections.Skills.Items, 3)
	s.Empty(got.Experiences)
	s.Equal("ada@example.com", got.Sections.Contact.Email)

	u, err := s.userRepo.Get(s.ctx, "u1")
	s.Require().NoError(err)
	s.Contains(u.Portfolios, p.ID)
	s.Equal([]service.PortfolioEventType{service.PortfolioEventCreated}, s.pub.types())
}

func (s *PortfolioUseCaseSuite) TestCreate_PrefersUserDocumentProfile() {
	_, err := s.userRepo.Ensure(s.ctx, "u1", "Stored Name", "stored@example.com")
	s.Require().NoError(err)

	p := s.mustCreate("Site")
	s.Equal("I'm Stored Name", p.Sections.Hero.Title)
	s.Equal("stored@example.com", p.Sections.Contact.Email)
}

func (s *PortfolioUseCaseSuite) TestCreate_Validation() {
	_, err := s.create.Execute(s.ctx, CreatePortfolioInput{Principal: u1, Name: "   "})
	s.ErrorIs(err, apperror.ErrInvalidInput)

	_, err = s.create.Execute(s.ctx, CreatePortfolioInput{Name: "x"})
	s.ErrorIs(err, apperror.ErrUnauthorized)

	_, err = s.create.Execute(s.ctx, CreatePortfolioInput{Principal: u1, Name: "x", Username: "Ada"})
	s.Require().NoError(err)
	_, err = s.create.Execute(s.ctx, CreatePortfolioInput{Principal: u1, Name: "y", Username: "ada"})
	s.ErrorIs(err, apperror.ErrConflict)
}

func (s *PortfolioUseCaseSuite) TestCreate_BackReferenceFailure() {
	_, err := s.userRepo.Ensure(s.ctx, "u1", "", "")
	s.Require().NoError(err)
	s.store.FailNext(persistence.OpUpdate, user.Collection, apperror.NewTransient("network", nil))

	out, err := s.create.Execute(s.ctx, CreatePortfolioInput{Principal: u1, Name: "Orphan"})
	s.ErrorIs(err, apperror.ErrTransient)
	s.Require().NotNil(out)

	_, err = s.portRepo.Get(s.ctx, out.Portfolio.ID)
	s.NoError(err, "first write stays")
	u, err := s.userRepo.Get(s.ctx, "u1")
	s.Require().NoError(err)
	s.NotContains(u.Portfolios, out.Portfolio.ID)

	s.Equal([]service.PortfolioEventType{service.PortfolioEventBackrefFailed}, s.pub.types())
	s.Equal(1.0, testutil.ToFloat64(s.metrics.BackrefFailures.WithLabelValues("create")))
}

func (s *PortfolioUseCaseSuite) TestDelete_RemovesDocumentAndBackReference() {
	p := s.mustCreate("Doomed")
	_, err := s.cache.Set(s.ctx, p.ID, []byte("{}"), time.Minute, 0)
	s.Require().NoError(err)

	s.Require().NoError(s.remove.Execute(s.ctx, DeletePortfolioInput{Principal: u1, PortfolioID: p.ID}))

	_, err = s.portRepo.Get(s.ctx, p.ID)
	s.ErrorIs(err, apperror.ErrNotFound)
	u, err := s.userRepo.Get(s.ctx, "u1")
	s.Require().NoError(err)
	s.NotContains(u.Portfolios, p.ID)
	s.False(s.mr.Exists("portfolio:render:" + p.ID))
	s.Equal([]string{p.ID}, s.sessions.ids)
	s.Equal(service.PortfolioEventDeleted, s.pub.types()[len(s.pub.types())-1])
}

func (s *PortfolioUseCaseSuite) TestDelete_SecondWriteFailureLeavesStaleID() {
	p := s.mustCreate("Doomed")
	s.store.FailNext(persistence.OpUpdate, user.Collection, apperror.NewTransient("network", nil))

	err := s.remove.Execute(s.ctx, DeletePortfolioInput{Principal: u1, PortfolioID: p.ID})
	s.ErrorIs(err, apperror.ErrTransient)

	_, err = s.portRepo.Get(s.ctx, p.ID)
	s.ErrorIs(err, apperror.ErrNotFound)
	u, err := s.userRepo.Get(s.ctx, "u1")
	s.Require().NoError(err)
	s.Contains(u.Portfolios, p.ID)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.BackrefFailures.WithLabelValues("delete")))
	s.Contains(s.pub.types(), service.PortfolioEventBackrefFailed)
}

func (s *PortfolioUseCaseSuite) TestDelete_Permission() {
	p := s.mustCreate("Mine")
	err := s.remove.Execute(s.ctx, DeletePortfolioInput{Principal: service.Principal{UserID: "u2"}, PortfolioID: p.ID})
	s.ErrorIs(err, apperror.ErrPermission)

	_, err = s.portRepo.Get(s.ctx, p.ID)
	s.NoError(err)

	err = s.remove.Execute(s.ctx, DeletePortfolioInput{Principal: u1, PortfolioID: "missing"})
	s.ErrorIs(err, apperror.ErrNotFound)
}

func (s *PortfolioUseCaseSuite) TestList_SkipsStaleAndMergesLegacy() {
	a := s.mustCreate("A")
	b := s.mustCreate("B")
	s.Require().NoError(s.userRepo.SetPortfolios(s.ctx, "u1", []string{a.ID, "gone", b.ID}))
	_, err := s.store.Create(s.ctx, portfolio.Collection, "legacy", map[string]any{"userId": "u1", "name": "Old"})
	s.Require().NoError(err)

	out, err := s.list.Execute(s.ctx, ListPortfoliosInput{Principal: u1})
	s.Require().NoError(err)
	s.Equal([]string{"gone"}, out.StaleIDs)
	s.Require().Len(out.Portfolios, 3)
	s.Equal(a.ID, out.Portfolios[0].ID)
	s.Equal(b.ID, out.Portfolios[1].ID)
	s.True(out.Portfolios[1].Linked)
	s.Equal("legacy", out.Portfolios[2].ID)
	s.False(out.Portfolios[2].Linked)
}

func (s *PortfolioUseCaseSuite) TestList_NewUserIsEmpty() {
	out, err := s.list.Execute(s.ctx, ListPortfoliosInput{Principal: service.Principal{UserID: "fresh"}})
	s.Require().NoError(err)
	s.Empty(out.Portfolios)
}

func (s *PortfolioUseCaseSuite) TestList_StoreFailure() {
	s.mustCreate("A")
	s.store.FailNext(persistence.OpGet, portfolio.Collection, apperror.NewTransient("network", nil))

	_, err := s.list.Execute(s.ctx, ListPortfoliosInput{Principal: u1})
	s.ErrorIs(err, apperror.ErrTransient)
}

func (s *PortfolioUseCaseSuite) TestPublic_ReadsThroughCache() {
	p := s.mustCreate("Public")

	first, err := s.public.Execute(s.ctx, GetPublicPortfolioInput{PortfolioID: p.ID})
	s.Require().NoError(err)
	s.False(first.Cached)
	s.Equal("Public", first.Model.Name)
	s.True(s.mr.Exists("portfolio:render:" + p.ID))

	second, err := s.public.Execute(s.ctx, GetPublicPortfolioInput{PortfolioID: p.ID})
	s.Require().NoError(err)
	s.True(second.Cached)
	s.Equal(first.Model, second.Model)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.RenderCache.WithLabelValues("hit")))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.RenderCache.WithLabelValues("miss")))
}

func (s *PortfolioUseCaseSuite) TestPublic_SavedHookInvalidates() {
	p := s.mustCreate("Public")
	_, err := s.public.Execute(s.ctx, GetPublicPortfolioInput{PortfolioID: p.ID})
	s.Require().NoError(err)

	hook := NewSavedHook(s.cache, s.pub, logger.NewNop())
	hook(s.ctx, p)

	s.False(s.mr.Exists("portfolio:render:" + p.ID))
	s.Contains(s.pub.types(), service.PortfolioEventSaved)
}

// racingRepo runs onGet after loading the document, standing in for a save
// that completes while a public read is in flight.
type racingRepo struct {
	portfolio.Repository
	onGet func()
}

func (r *racingRepo) Get(ctx context.Context, id string) (*portfolio.Portfolio, error) {
	p, err := r.Repository.Get(ctx, id)
	if r.onGet != nil {
		r.onGet()
		r.onGet = nil
	}
	return p, err
}

func (s *PortfolioUseCaseSuite) TestPublic_SaveDuringReadIsNotCached() {
	p := s.mustCreate("Before")
	hook := NewSavedHook(s.cache, s.pub, logger.NewNop())
	repo := &racingRepo{Repository: s.portRepo}
	repo.onGet = func() {
		saved := p.Clone()
		saved.Name = "After"
		hook(s.ctx, saved)
	}
	uc := NewGetPublicPortfolioUseCase(repo, s.cache, time.Minute, s.metrics, logger.NewNop())

	out, err := uc.Execute(s.ctx, GetPublicPortfolioInput{PortfolioID: p.ID})
	s.Require().NoError(err)
	s.Equal("Before", out.Model.Name)
	s.False(s.mr.Exists("portfolio:render:"+p.ID), "render from before the save must not be cached")

	again, err := uc.Execute(s.ctx, GetPublicPortfolioInput{PortfolioID: p.ID})
	s.Require().NoError(err)
	s.False(again.Cached)
	s.True(s.mr.Exists("portfolio:render:" + p.ID))
}

func (s *PortfolioUseCaseSuite) TestPublic_Errors() {
	_, err := s.public.Execute(s.ctx, GetPublicPortfolioInput{PortfolioID: "../etc"})
	s.ErrorIs(err, apperror.ErrInvalidInput)

	_, err = s.public.Execute(s.ctx, GetPublicPortfolioInput{PortfolioID: "missing"})
	s.ErrorIs(err, apperror.ErrNotFound)
}

func (s *PortfolioUseCaseSuite) TestPublic_ByUsername() {
	out, err := s.create.Execute(s.ctx, CreatePortfolioInput{Principal: u1, Name: "Handle", Username: "ada"})
	s.Require().NoError(err)

	got, err := s.public.Execute(s.ctx, GetPublicPortfolioInput{Username: "ADA"})
	s.Require().NoError(err)
	s.Equal(out.Portfolio.ID, got.Model.ID)
}

func (s *PortfolioUseCaseSuite) TestPublic_WorksWithoutCache() {
	p := s.mustCreate("NoCache")
	uc := NewGetPublicPortfolioUseCase(s.portRepo, nil, 0, nil, logger.NewNop())

	out, err := uc.Execute(s.ctx, GetPublicPortfolioInput{PortfolioID: p.ID})
	s.Require().NoError(err)
	s.Equal("NoCache", out.Model.Name)
}

func (s *PortfolioUseCaseSuite) TestGetAccount() {
	uc := NewGetAccountUseCase(s.userRepo)
	u, err := uc.Execute(s.ctx, u1)
	s.Require().NoError(err)
	s.Equal("Ada Lovelace", u.Name)
	s.Empty(u.Portfolios)

	_, err = uc.Execute(s.ctx, service.Principal{})
	s.ErrorIs(err, apperror.ErrUnauthorized)
}

func TestPortfolioUseCaseSuite(t *testing.T) {
	suite.Run(t, new(PortfolioUseCaseSuite))
}
