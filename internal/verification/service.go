package verification

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"idguardian/internal/analyzer"
	"idguardian/internal/audit"
	"idguardian/internal/decision"
	"idguardian/internal/decision/ports"
	"idguardian/internal/media"
	"idguardian/internal/session"
	"idguardian/pkg/domain"
	domainerrors "idguardian/pkg/domain-errors"
	"idguardian/pkg/platform/sentinel"
	"idguardian/pkg/requestcontext"
)

// DefaultTimeout bounds one full analyzer fan-out.
const DefaultTimeout = 90 * time.Second

// ResultStore is write-once per session: Save returns sentinel.ErrConflict
// when a result already exists, Find returns sentinel.ErrNotFound when none
// does.
type ResultStore interface {
	Save(ctx context.Context, record Record) error
	FindBySession(ctx context.Context, sessionID domain.SessionID) (Record, error)
}

// Service runs the verification pipeline for a session that finished
// capturing: load the artifacts, fan the four analyses out, reduce them to a
// verdict, and finalize the wizard with the outcome.
type Service struct {
	sessions  *session.Service
	artifacts media.ArtifactStore
	analyzers ports.Analyzers
	engine    *decision.Engine
	results   ResultStore
	audit     *audit.Publisher
	logger    *slog.Logger
	timeout   time.Duration
}

type Config struct {
	Sessions  *session.Service
	Artifacts media.ArtifactStore
	Analyzers ports.Analyzers
	Engine    *decision.Engine
	Results   ResultStore
	Audit     *audit.Publisher
	Logger    *slog.Logger
	Timeout   time.Duration
}

func NewService(cfg Config) *Service {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{
		sessions:  cfg.Sessions,
		artifacts: cfg.Artifacts,
		analyzers: cfg.Analyzers,
		engine:    cfg.Engine,
		results:   cfg.Results,
		audit:     cfg.Audit,
		logger:    cfg.Logger,
		timeout:   timeout,
	}
}

// Verify runs one verification attempt for the session. The session must be
// in the verifying step; the attempt counter is snapshotted up front so a
// backward navigation racing with the analysis supersedes the outcome rather
// than the other way round.
//
// Re-calling Verify after a decision landed returns the stored result, so a
// retried request is idempotent.
func (s *Service) Verify(ctx context.Context, id domain.SessionID) (*decision.VerificationResult, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Step == session.StepResults {
		return s.Result(ctx, id)
	}
	if sess.Step != session.StepVerifying {
		return nil, domainerrors.New(domainerrors.CodeInvalidState, "session has not completed media capture")
	}
	attempt := sess.Attempt

	ev, err := s.loadEvidence(ctx, sess)
	if err != nil {
		return nil, err
	}

	input, err := s.gatherChannels(ctx, sess, ev)
	if err != nil {
		return nil, s.failAttempt(ctx, sess, attempt, err)
	}

	decidedAt := requestcontext.Now(ctx)
	result, err := s.engine.Decide(input, decidedAt)
	if err != nil {
		return nil, s.failAttempt(ctx, sess, attempt, err)
	}

	// Finalize first: if the attempt was superseded by a retake, the session
	// already moved on and this outcome must be discarded, not stored.
	if _, err := s.sessions.Finalize(ctx, id, attempt, session.StepResults); err != nil {
		if domainerrors.HasCode(err, domainerrors.CodeConflict) {
			s.logger.InfoContext(ctx, "discarding superseded verification outcome",
				"session_id", id.String(),
				"attempt", attempt,
			)
		}
		return nil, err
	}

	record := Record{
		SessionID: id,
		Attempt:   attempt,
		Result:    *result,
		CreatedAt: decidedAt,
	}
	if err := s.results.Save(ctx, record); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, domainerrors.Wrap(err, domainerrors.CodeConflict, "verification result already recorded")
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "storing verification result")
	}

	s.audit.Emit(ctx, audit.Event{
		SessionID: id,
		Action:    audit.ActionVerificationDecided,
		Subject:   string(result.Status),
		Reason:    result.ReferenceID,
	})
	s.logger.InfoContext(ctx, "verification decided",
		"session_id", id.String(),
		"request_id", requestcontext.RequestID(ctx),
		"status", string(result.Status),
		"reference_id", result.ReferenceID,
		"attempt", attempt,
	)

	// Raw captures are only needed for the analysis; drop them as soon as the
	// decision is durable.
	if err := s.artifacts.CleanupSession(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "cleaning up session media",
			"session_id", id.String(),
			"error", err,
		)
	}

	return result, nil
}

// Result returns the stored decision for a session.
func (s *Service) Result(ctx context.Context, id domain.SessionID) (*decision.VerificationResult, error) {
	record, err := s.results.FindBySession(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, domainerrors.Wrap(err, domainerrors.CodeNotFound, "no verification result for session")
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "loading verification result")
	}
	return &record.Result, nil
}

// failAttempt moves the session to the error step, audits the failure, and
// maps the analyzer error to a coded one. The finalize is best-effort: a
// superseded attempt means the user already navigated away.
func (s *Service) failAttempt(ctx context.Context, sess *session.Session, attempt int, cause error) error {
	var chErr *channelError
	channel := "unknown"
	if errors.As(cause, &chErr) {
		channel = chErr.channel
	}

	if _, err := s.sessions.Finalize(ctx, sess.ID, attempt, session.StepError); err != nil {
		if !domainerrors.HasCode(err, domainerrors.CodeConflict) {
			s.logger.ErrorContext(ctx, "finalizing failed verification",
				"session_id", sess.ID.String(),
				"error", err,
			)
		}
	}

	s.audit.Emit(ctx, audit.Event{
		SessionID: sess.ID,
		Action:    audit.ActionAnalyzerFailed,
		Subject:   channel,
		Reason:    cause.Error(),
	})
	s.logger.ErrorContext(ctx, "verification attempt failed",
		"session_id", sess.ID.String(),
		"request_id", requestcontext.RequestID(ctx),
		"channel", channel,
		"error", cause,
	)

	if analyzer.IsRetryable(cause) {
		return domainerrors.Wrap(cause, domainerrors.CodeUnavailable, "verification provider unavailable")
	}
	return domainerrors.Wrap(cause, domainerrors.CodeInternal, "verification failed")
}
