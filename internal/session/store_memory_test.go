package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"idguardian/internal/media"
	"idguardian/pkg/domain"
	"idguardian/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	now   time.Time
}

func (s *MemoryStoreSuite) SetupTest() {
	s.now = time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	s.store = NewInMemoryStore()
	s.store.now = func() time.Time { return s.now }
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) newSession() *Session {
	return &Session{
		ID:                 domain.NewSessionID(),
		Step:               StepWelcome,
		ExpectedPhrase:     DefaultPhrase,
		ChallengeDirection: "left",
		Attempt:            1,
		Media:              make(map[media.Kind]MediaRef),
		CreatedAt:          s.now,
		UpdatedAt:          s.now,
		ExpiresAt:          s.now.Add(30 * time.Minute),
	}
}

func (s *MemoryStoreSuite) TestCreateAndGet() {
	sess := s.newSession()
	s.Require().NoError(s.store.Create(context.Background(), sess))

	found, err := s.store.Get(context.Background(), sess.ID)
	s.Require().NoError(err)
	s.Equal(sess.ID, found.ID)
	s.Equal(StepWelcome, found.Step)
}

func (s *MemoryStoreSuite) TestGetReturnsACopy() {
	sess := s.newSession()
	s.Require().NoError(s.store.Create(context.Background(), sess))

	first, err := s.store.Get(context.Background(), sess.ID)
	s.Require().NoError(err)
	first.Media[media.KindSelfie] = MediaRef{Path: "/tmp/selfie.jpg"}
	first.Step = StepResults

	second, err := s.store.Get(context.Background(), sess.ID)
	s.Require().NoError(err)
	s.Empty(second.Media)
	s.Equal(StepWelcome, second.Step)
}

func (s *MemoryStoreSuite) TestDuplicateCreateConflicts() {
	sess := s.newSession()
	s.Require().NoError(s.store.Create(context.Background(), sess))
	s.Require().ErrorIs(s.store.Create(context.Background(), sess), sentinel.ErrConflict)
}

func (s *MemoryStoreSuite) TestGetMissingReturnsNotFound() {
	_, err := s.store.Get(context.Background(), domain.NewSessionID())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestUpdatePersistsChanges() {
	sess := s.newSession()
	s.Require().NoError(s.store.Create(context.Background(), sess))

	sess.Step = StepDocument
	sess.FullName = "Jane Doe"
	s.Require().NoError(s.store.Update(context.Background(), sess))

	found, err := s.store.Get(context.Background(), sess.ID)
	s.Require().NoError(err)
	s.Equal(StepDocument, found.Step)
	s.Equal("Jane Doe", found.FullName)
}

func (s *MemoryStoreSuite) TestUpdateMissingReturnsNotFound() {
	s.Require().ErrorIs(s.store.Update(context.Background(), s.newSession()), sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestExpiredSessionIsReaped() {
	sess := s.newSession()
	s.Require().NoError(s.store.Create(context.Background(), sess))

	s.now = s.now.Add(31 * time.Minute)
	_, err := s.store.Get(context.Background(), sess.ID)
	s.Require().ErrorIs(err, sentinel.ErrExpired)

	// Second access: the entry is gone entirely.
	_, err = s.store.Get(context.Background(), sess.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestDeleteIsIdempotent() {
	sess := s.newSession()
	s.Require().NoError(s.store.Create(context.Background(), sess))
	s.Require().NoError(s.store.Delete(context.Background(), sess.ID))
	s.Require().NoError(s.store.Delete(context.Background(), sess.ID))

	_, err := s.store.Get(context.Background(), sess.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}
