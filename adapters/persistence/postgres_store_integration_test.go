//go:build integration

package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/khoahotran/portgen/internal/application/service"
	"github.com/khoahotran/portgen/internal/domain/portfolio"
	"github.com/khoahotran/portgen/pkg/apperror"
	"github.com/khoahotran/portgen/pkg/logger"
)

type PostgresStoreTestSuite struct {
	suite.Suite
	pgContainer *postgres.PostgresContainer
	pool        *pgxpool.Pool
	store       service.DocumentStore
	ctx         context.Context
}

func (s *PostgresStoreTestSuite) SetupSuite() {
	s.ctx = context.Background()

	pgContainer, err := postgres.Run(s.ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(1*time.Minute),
		),
	)
	if err != nil {
		s.T().Fatalf("failed to start postgres container: %v", err)
	}
	s.pgContainer = pgContainer

	connStr, err := pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	if err != nil {
		s.T().Fatalf("failed to get connection string: %v", err)
	}

	pool, err := pgxpool.New(s.ctx, connStr)
	if err != nil {
		s.T().Fatalf("failed to connect to test database: %v", err)
	}
	s.pool = pool

	if err := EnsureDocumentsSchema(s.ctx, pool); err != nil {
		s.T().Fatalf("failed to create schema: %v", err)
	}
	s.store = NewPostgresStore(pool, logger.NewNop())
}

func (s *PostgresStoreTestSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.pgContainer != nil {
		if err := s.pgContainer.Terminate(s.ctx); err != nil {
			s.T().Logf("failed to terminate postgres container: %v", err)
		}
	}
}

func (s *PostgresStoreTestSuite) SetupTest() {
	_, err := s.pool.Exec(s.ctx, "TRUNCATE documents")
	s.Require().NoError(err)
}

func (s *PostgresStoreTestSuite) TestCreateAndGet() {
	_, err := s.store.Create(s.ctx, "things", "t1", map[string]any{"name": "one", "count": 2})
	s.Require().NoError(err)

	doc, err := s.store.Get(s.ctx, "things", "t1")
	s.Require().NoError(err)
	s.Equal("t1", doc.ID)
	s.Equal("one", doc.Data["name"])
	s.Equal(float64(2), doc.Data["count"])

	_, err = s.store.Get(s.ctx, "other", "t1")
	s.ErrorIs(err, apperror.ErrNotFound)
}

func (s *PostgresStoreTestSuite) TestCreateGeneratesIDAndRejectsDuplicate() {
	doc, err := s.store.Create(s.ctx, "things", "", map[string]any{"name": "auto"})
	s.Require().NoError(err)
	s.NotEmpty(doc.ID)

	_, err = s.store.Create(s.ctx, "things", doc.ID, map[string]any{"name": "again"})
	s.ErrorIs(err, apperror.ErrConflict)
}

func (s *PostgresStoreTestSuite) TestQueryMatchesContainedFields() {
	_, err := s.store.Create(s.ctx, "things", "b", map[string]any{"owner": "u1", "tag": "x"})
	s.Require().NoError(err)
	_, err = s.store.Create(s.ctx, "things", "a", map[string]any{"owner": "u1", "tag": "y"})
	s.Require().NoError(err)
	_, err = s.store.Create(s.ctx, "things", "c", map[string]any{"owner": "u2", "tag": "x"})
	s.Require().NoError(err)
	_, err = s.store.Create(s.ctx, "others", "d", map[string]any{"owner": "u1"})
	s.Require().NoError(err)

	docs, err := s.store.Query(s.ctx, "things", service.Filter{Field: "owner", Value: "u1"})
	s.Require().NoError(err)
	s.Require().Len(docs, 2)
	s.Equal("a", docs[0].ID)
	s.Equal("b", docs[1].ID)

	docs, err = s.store.Query(s.ctx, "things",
		service.Filter{Field: "owner", Value: "u1"},
		service.Filter{Field: "tag", Value: "x"},
	)
	s.Require().NoError(err)
	s.Require().Len(docs, 1)
	s.Equal("b", docs[0].ID)

	docs, err = s.store.Query(s.ctx, "things", service.Filter{Field: "owner", Value: "nobody"})
	s.Require().NoError(err)
	s.NotNil(docs)
	s.Empty(docs)
}

func (s *PostgresStoreTestSuite) TestUpdateMergesTopLevelFieldsOnly() {
	_, err := s.store.Create(s.ctx, "things", "t1", map[string]any{
		"name": "one",
		"meta": map[string]any{"a": 1, "b": 2},
	})
	s.Require().NoError(err)

	err = s.store.Update(s.ctx, "things", "t1", map[string]any{
		"meta":  map[string]any{"c": 3},
		"extra": true,
	})
	s.Require().NoError(err)

	doc, err := s.store.Get(s.ctx, "things", "t1")
	s.Require().NoError(err)
	s.Equal("one", doc.Data["name"])
	s.Equal(true, doc.Data["extra"])
	s.Equal(map[string]any{"c": float64(3)}, doc.Data["meta"])
}

func (s *PostgresStoreTestSuite) TestUpdateMissingIsNotFound() {
	err := s.store.Update(s.ctx, "things", "ghost", map[string]any{"name": "x"})
	s.ErrorIs(err, apperror.ErrNotFound)

	s.NoError(s.store.Update(s.ctx, "things", "ghost", nil))
}

func (s *PostgresStoreTestSuite) TestDeleteIsIdempotent() {
	_, err := s.store.Create(s.ctx, "things", "t1", map[string]any{"name": "one"})
	s.Require().NoError(err)

	s.Require().NoError(s.store.Delete(s.ctx, "things", "t1"))
	s.NoError(s.store.Delete(s.ctx, "things", "t1"))

	_, err = s.store.Get(s.ctx, "things", "t1")
	s.ErrorIs(err, apperror.ErrNotFound)
}

func (s *PostgresStoreTestSuite) TestPortfolioRepoOverPostgres() {
	repo := NewPortfolioRepo(s.store)
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	p := &portfolio.Portfolio{
		Owner:     "u1",
		Name:      "My Site",
		Template:  portfolio.DefaultTemplate,
		Sections:  portfolio.DefaultSections("Ada", "ada@example.com"),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.Require().NoError(repo.Create(s.ctx, p))

	_, err := s.store.Create(s.ctx, portfolio.Collection, "legacy", map[string]any{
		"userId": "u1",
		"name":   "Old Site",
	})
	s.Require().NoError(err)

	list, err := repo.ListByOwner(s.ctx, "u1")
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(p.ID, list[0].ID)
	s.Equal("legacy", list[1].ID)

	p.Experiences = []portfolio.Experience{{Company: "Acme", Position: "Engineer"}}
	p.UpdatedAt = now.Add(time.Hour)
	s.Require().NoError(repo.UpdateContent(s.ctx, p))

	got, err := repo.Get(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Require().Len(got.Experiences, 1)
	s.Equal("Acme", got.Experiences[0].Company)
	s.Equal("My Site", got.Name)
	s.Equal("u1", got.Owner)
	s.True(got.CreatedAt.Equal(now))
}

func TestPostgresStoreTestSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreTestSuite))
}
