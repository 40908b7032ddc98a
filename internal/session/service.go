package session

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"idguardian/internal/audit"
	"idguardian/internal/media"
	"idguardian/pkg/domain"
	domainerrors "idguardian/pkg/domain-errors"
	"idguardian/pkg/platform/sentinel"
	"idguardian/pkg/requestcontext"
)

// DefaultPhrase is the passphrase shown at the audio step.
const DefaultPhrase = "My voice is my password, and I am verifying my identity."

// DefaultTTL bounds how long a wizard run may take end to end.
const DefaultTTL = 30 * time.Minute

// challengeDirections are the head-turn challenges the liveness step can ask
// for.
var challengeDirections = []string{"up", "left", "right"}

// kindStep maps each media kind to the wizard step that captures it.
var kindStep = map[media.Kind]Step{
	media.KindDocFront:    StepDocument,
	media.KindDocBack:     StepDocument,
	media.KindSelfie:      StepSelfie,
	media.KindAVClip:      StepLiveness,
	media.KindPhraseAudio: StepAudio,
}

// Service drives the wizard state machine. All transitions go through here so
// the step invariants hold no matter which transport calls in.
type Service struct {
	store  Store
	audit  *audit.Publisher
	logger *slog.Logger
	ttl    time.Duration
	pick   func(n int) int
}

func NewService(store Store, publisher *audit.Publisher, logger *slog.Logger, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		store:  store,
		audit:  publisher,
		logger: logger,
		ttl:    ttl,
		pick:   rand.IntN,
	}
}

// Create starts a new wizard run with a fresh challenge direction and the
// passphrase the user will read at the audio step.
func (s *Service) Create(ctx context.Context) (*Session, error) {
	now := requestcontext.Now(ctx)
	sess := &Session{
		ID:                 domain.NewSessionID(),
		Step:               StepWelcome,
		ExpectedPhrase:     DefaultPhrase,
		ChallengeDirection: challengeDirections[s.pick(len(challengeDirections))],
		Attempt:            1,
		Media:              make(map[media.Kind]MediaRef),
		CreatedAt:          now,
		UpdatedAt:          now,
		ExpiresAt:          now.Add(s.ttl),
	}
	if err := s.store.Create(ctx, sess); err != nil {
		return nil, s.translate(err)
	}

	s.audit.Emit(ctx, audit.Event{
		SessionID: sess.ID,
		Action:    audit.ActionSessionCreated,
	})
	s.logger.InfoContext(ctx, "session created",
		"session_id", sess.ID.String(),
		"request_id", requestcontext.RequestID(ctx),
		"challenge_direction", sess.ChallengeDirection,
	)
	return sess, nil
}

// Get loads a session.
func (s *Service) Get(ctx context.Context, id domain.SessionID) (*Session, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, s.translate(err)
	}
	return sess, nil
}

// SubmitName records the identity name and moves the wizard to the document
// step. Allowed from the welcome and name steps only.
func (s *Service) SubmitName(ctx context.Context, id domain.SessionID, fullName string) (*Session, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, domainerrors.New(domainerrors.CodeValidation, "full name is required")
	}

	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Step != StepWelcome && sess.Step != StepName {
		return nil, domainerrors.New(domainerrors.CodeInvalidState, "name can only be submitted at the start of the wizard")
	}

	sess.FullName = fullName
	sess.Step = StepDocument
	return s.save(ctx, sess)
}

// RecordMedia attaches an uploaded artifact and advances the step when the
// current step's required capture is in place. The upload must match the
// wizard position; out-of-order uploads are rejected.
func (s *Service) RecordMedia(ctx context.Context, id domain.SessionID, kind media.Kind, ref MediaRef) (*Session, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !captureSteps[sess.Step] {
		return nil, domainerrors.New(domainerrors.CodeInvalidState, "session is not accepting uploads")
	}
	if kindStep[kind] != sess.Step {
		return nil, domainerrors.New(domainerrors.CodeInvalidState,
			string(kind)+" cannot be uploaded during the "+string(sess.Step)+" step")
	}

	sess.Media[kind] = ref
	sess.Step = s.advanceAfterUpload(sess)

	saved, err := s.save(ctx, sess)
	if err != nil {
		return nil, err
	}
	s.audit.Emit(ctx, audit.Event{
		SessionID: sess.ID,
		Action:    audit.ActionMediaUploaded,
		Subject:   string(kind),
	})
	return saved, nil
}

// advanceAfterUpload moves past a capture step once its required kind is
// present. The audio step never auto-advances: phrase audio is optional and
// CompleteMedia owns the transition into verifying.
func (s *Service) advanceAfterUpload(sess *Session) Step {
	switch sess.Step {
	case StepDocument:
		if sess.HasMedia(media.KindDocFront) {
			return StepSelfie
		}
	case StepSelfie:
		if sess.HasMedia(media.KindSelfie) {
			return StepLiveness
		}
	case StepLiveness:
		if sess.HasMedia(media.KindAVClip) {
			return StepAudio
		}
	}
	return sess.Step
}

// CompleteMedia validates the capture set and moves the wizard into the
// verifying step.
func (s *Service) CompleteMedia(ctx context.Context, id domain.SessionID) (*Session, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Step != StepAudio {
		return nil, domainerrors.New(domainerrors.CodeInvalidState, "media can only be completed from the audio step")
	}
	if !sess.MediaComplete() {
		return nil, domainerrors.New(domainerrors.CodeValidation, "missing required media: document front, selfie, and A/V clip")
	}

	sess.Step = StepVerifying
	saved, err := s.save(ctx, sess)
	if err != nil {
		return nil, err
	}
	s.audit.Emit(ctx, audit.Event{
		SessionID: sess.ID,
		Action:    audit.ActionMediaCompleted,
	})
	return saved, nil
}

// Back rewinds the wizard to an earlier capture step for a retake. The
// attempt counter increments so any in-flight analysis for the old attempt is
// discarded when it lands, and captures from the target step onward are
// dropped. Rewinding past the liveness step re-rolls the challenge direction
// so a replayed clip cannot satisfy the new challenge.
func (s *Service) Back(ctx context.Context, id domain.SessionID, to Step) (*Session, error) {
	if !captureSteps[to] {
		return nil, domainerrors.New(domainerrors.CodeInvalidInput, "can only navigate back to a capture step")
	}

	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Step == StepResults {
		return nil, domainerrors.New(domainerrors.CodeInvalidState, "session already has a decision")
	}
	if sess.Step != StepError && !to.Before(sess.Step) {
		return nil, domainerrors.New(domainerrors.CodeInvalidState, "can only navigate backwards")
	}

	for kind, step := range kindStep {
		if !step.Before(to) {
			delete(sess.Media, kind)
		}
	}
	if !StepLiveness.Before(to) {
		sess.ChallengeDirection = s.redirect(sess.ChallengeDirection)
	}
	sess.Step = to
	sess.Attempt++
	return s.save(ctx, sess)
}

// redirect picks a fresh challenge direction different from the previous one.
func (s *Service) redirect(previous string) string {
	pool := make([]string, 0, len(challengeDirections)-1)
	for _, direction := range challengeDirections {
		if direction != previous {
			pool = append(pool, direction)
		}
	}
	return pool[s.pick(len(pool))]
}

// Finalize ends the verifying step with an outcome. The attempt guard makes
// a decision computed before a backward navigation a no-op: the session moved
// on, so the stale outcome is refused with a conflict.
func (s *Service) Finalize(ctx context.Context, id domain.SessionID, attempt int, outcome Step) (*Session, error) {
	if outcome != StepResults && outcome != StepError {
		return nil, domainerrors.New(domainerrors.CodeInvalidInput, "outcome must be results or error")
	}

	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Attempt != attempt {
		return nil, domainerrors.New(domainerrors.CodeConflict, "verification attempt superseded")
	}
	if sess.Step != StepVerifying {
		return nil, domainerrors.New(domainerrors.CodeInvalidState, "session is not verifying")
	}

	sess.Step = outcome
	return s.save(ctx, sess)
}

func (s *Service) save(ctx context.Context, sess *Session) (*Session, error) {
	sess.UpdatedAt = requestcontext.Now(ctx)
	if err := s.store.Update(ctx, sess); err != nil {
		return nil, s.translate(err)
	}
	return sess, nil
}

// translate maps store sentinels to coded domain errors.
func (s *Service) translate(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return domainerrors.Wrap(err, domainerrors.CodeNotFound, "session not found")
	case errors.Is(err, sentinel.ErrExpired):
		return domainerrors.Wrap(err, domainerrors.CodeInvalidState, "session expired")
	case errors.Is(err, sentinel.ErrConflict):
		return domainerrors.Wrap(err, domainerrors.CodeConflict, "session already exists")
	default:
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "session store failure")
	}
}
