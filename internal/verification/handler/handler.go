package handler

import (
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"idguardian/internal/media"
	"idguardian/internal/session"
	"idguardian/internal/token"
	"idguardian/internal/verification"
	"idguardian/pkg/domain"
	dErrors "idguardian/pkg/domain-errors"
	"idguardian/pkg/platform/httputil"
	"idguardian/pkg/requestcontext"
)

// maxUploadBytes caps a single capture upload. The A/V clip is the largest
// artifact and stays well under this at wizard recording lengths.
const maxUploadBytes = 32 << 20

// Handler wires the wizard endpoints to the session and verification
// services.
type Handler struct {
	sessions      *session.Service
	artifacts     media.ArtifactStore
	verifier      *verification.Service
	tokens        *token.Service
	logger        *slog.Logger
	createLimiter func(http.Handler) http.Handler
}

// Option configures the Handler.
type Option func(*Handler)

// WithCreateLimiter rate limits session creation, the only unauthenticated
// endpoint.
func WithCreateLimiter(mw func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		h.createLimiter = mw
	}
}

// New constructs the wizard handler with its dependencies.
func New(sessions *session.Service, artifacts media.ArtifactStore, verifier *verification.Service, tokens *token.Service, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		sessions:  sessions,
		artifacts: artifacts,
		verifier:  verifier,
		tokens:    tokens,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the wizard endpoints on the router. Everything below
// session creation requires the session token.
func (h *Handler) Register(r chi.Router) {
	if h.createLimiter != nil {
		r.With(h.createLimiter).Post("/sessions", h.HandleCreateSession)
	} else {
		r.Post("/sessions", h.HandleCreateSession)
	}

	r.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Use(h.RequireSession)
		r.Get("/", h.HandleGetSession)
		r.Post("/name", h.HandleSubmitName)
		r.Post("/media/{kind}", h.HandleUploadMedia)
		r.Post("/media-complete", h.HandleCompleteMedia)
		r.Post("/back", h.HandleBack)
		r.Post("/verify", h.HandleVerify)
		r.Get("/result", h.HandleGetResult)
	})
}

// RequireSession validates the bearer token and binds it to the session in
// the path. A token for one session never opens another.
func (h *Handler) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		tokenString, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || tokenString == "" {
			httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "session token required"))
			return
		}
		tokenSessionID, err := h.tokens.Validate(tokenString)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}

		pathSessionID, err := domain.ParseSessionID(chi.URLParam(r, "sessionID"))
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid session id"))
			return
		}
		if pathSessionID != tokenSessionID {
			httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "token is not valid for this session"))
			return
		}

		next.ServeHTTP(w, r.WithContext(requestcontext.WithSessionID(ctx, pathSessionID)))
	})
}

// HandleCreateSession handles POST /sessions requests.
func (h *Handler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess, err := h.sessions.Create(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	signed, err := h.tokens.Issue(sess.ID, sess.CreatedAt, sess.ExpiresAt)
	if err != nil {
		h.logger.ErrorContext(ctx, "issuing session token",
			"request_id", requestcontext.RequestID(ctx),
			"session_id", sess.ID.String(),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "issuing session token"))
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, CreateSessionResponse{
		Session: FromSession(sess),
		Token:   signed,
	})
}

// HandleGetSession handles GET /sessions/{sessionID} requests.
func (h *Handler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess, err := h.sessions.Get(ctx, requestcontext.SessionID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromSession(sess))
}

// HandleSubmitName handles POST /sessions/{sessionID}/name requests.
func (h *Handler) HandleSubmitName(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SubmitNameRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	sess, err := h.sessions.SubmitName(ctx, requestcontext.SessionID(ctx), req.FullName)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromSession(sess))
}

// HandleUploadMedia handles POST /sessions/{sessionID}/media/{kind} requests.
// The capture arrives as a multipart form with a single "file" part.
func (h *Handler) HandleUploadMedia(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := requestcontext.SessionID(ctx)

	kind, err := media.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "multipart form with a \"file\" part is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "reading upload failed"))
		return
	}

	artifact, err := h.artifacts.Save(ctx, sessionID, kind, header.Header.Get("Content-Type"), data)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	sess, err := h.sessions.RecordMedia(ctx, sessionID, kind, session.MediaRef{
		Path:       artifact.Path,
		MIMEType:   artifact.MIMEType,
		Size:       artifact.Size,
		UploadedAt: requestcontext.Now(ctx),
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "media uploaded",
		"request_id", requestcontext.RequestID(ctx),
		"session_id", sessionID.String(),
		"kind", string(kind),
		"size", artifact.Size,
	)
	httputil.WriteJSON(w, http.StatusOK, FromSession(sess))
}

// HandleCompleteMedia handles POST /sessions/{sessionID}/media-complete
// requests, moving the wizard into the verifying step.
func (h *Handler) HandleCompleteMedia(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess, err := h.sessions.CompleteMedia(ctx, requestcontext.SessionID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromSession(sess))
}

// HandleBack handles POST /sessions/{sessionID}/back requests.
func (h *Handler) HandleBack(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[BackRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	sess, err := h.sessions.Back(ctx, requestcontext.SessionID(ctx), req.ParsedStep())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromSession(sess))
}

// HandleVerify handles POST /sessions/{sessionID}/verify requests. The call
// blocks while the analyzer fan-out runs.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := requestcontext.SessionID(ctx)
	start := time.Now()

	result, err := h.verifier.Verify(ctx, sessionID)
	if err != nil {
		h.logger.ErrorContext(ctx, "verification failed",
			"request_id", requestcontext.RequestID(ctx),
			"session_id", sessionID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "verification completed",
		"request_id", requestcontext.RequestID(ctx),
		"session_id", sessionID.String(),
		"status", result.Status,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromResult(result))
}

// HandleGetResult handles GET /sessions/{sessionID}/result requests.
func (h *Handler) HandleGetResult(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := h.verifier.Result(ctx, requestcontext.SessionID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromResult(result))
}
