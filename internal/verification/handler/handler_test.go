package handler

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"idguardian/internal/analyzer"
	"idguardian/internal/audit"
	"idguardian/internal/decision"
	"idguardian/internal/media"
	"idguardian/internal/session"
	"idguardian/internal/token"
	"idguardian/internal/verification"
	"idguardian/internal/verification/store"
)

func newWizardRouter(t *testing.T) chi.Router {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	publisher := audit.NewPublisher(audit.NewInMemoryStore(), logger, 64)
	sessions := session.NewService(session.NewInMemoryStore(), publisher, logger, time.Hour)

	artifacts, err := media.NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("creating disk store: %v", err)
	}

	verifier := verification.NewService(verification.Config{
		Sessions:  sessions,
		Artifacts: artifacts,
		Analyzers: analyzer.Offline{}.Analyzers(),
		Engine:    decision.NewEngine(decision.DefaultPolicy()),
		Results:   store.NewInMemoryStore(),
		Audit:     publisher,
		Logger:    logger,
		Timeout:   5 * time.Second,
	})
	tokens := token.NewService("test-signing-key", "idguardian", "idguardian-wizard")

	router := chi.NewRouter()
	New(sessions, artifacts, verifier, tokens, logger).Register(router)
	return router
}

func createSession(t *testing.T, router chi.Router) (sessionID, bearer string) {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sessions", nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating session, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp CreateSessionResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding create response: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("expected session token in create response")
	}
	return resp.Session.ID, resp.Token
}

func postJSON(t *testing.T, router chi.Router, bearer, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshaling payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+bearer)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func uploadMedia(t *testing.T, router chi.Router, bearer, sessionID, kind, mimeType string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	partHeader := textproto.MIMEHeader{}
	partHeader.Set("Content-Disposition", `form-data; name="file"; filename="capture"`)
	partHeader.Set("Content-Type", mimeType)
	part, err := writer.CreatePart(partHeader)
	if err != nil {
		t.Fatalf("creating multipart part: %v", err)
	}
	if _, err := part.Write([]byte("capture-bytes")); err != nil {
		t.Fatalf("writing multipart part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/sessions/"+sessionID+"/media/"+kind, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+bearer)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSessionTokenRequired(t *testing.T) {
	router := newWizardRouter(t)
	sessionID, _ := createSession(t, router)

	req := httptest.NewRequest(http.MethodGet, "/sessions/"+sessionID, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
}

func TestTokenBoundToItsSession(t *testing.T) {
	router := newWizardRouter(t)
	_, bearerA := createSession(t, router)
	sessionB, _ := createSession(t, router)

	req := httptest.NewRequest(http.MethodGet, "/sessions/"+sessionB, nil)
	req.Header.Set("Authorization", "Bearer "+bearerA)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for mismatched token, got %d", rec.Code)
	}
}

func TestFullWizardFlow(t *testing.T) {
	router := newWizardRouter(t)
	sessionID, bearer := createSession(t, router)

	rec := postJSON(t, router, bearer, "/sessions/"+sessionID+"/name", map[string]string{"fullName": "Jane Doe"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 submitting name, got %d: %s", rec.Code, rec.Body.String())
	}

	uploads := []struct{ kind, mime string }{
		{"doc_front", "image/jpeg"},
		{"selfie", "image/jpeg"},
		{"av_clip", "video/mp4"},
	}
	for _, upload := range uploads {
		rec := uploadMedia(t, router, bearer, sessionID, upload.kind, upload.mime)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 uploading %s, got %d: %s", upload.kind, rec.Code, rec.Body.String())
		}
	}

	rec = postJSON(t, router, bearer, "/sessions/"+sessionID+"/media-complete", struct{}{})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 completing media, got %d: %s", rec.Code, rec.Body.String())
	}
	var completed SessionResponse
	if err := json.NewDecoder(rec.Body).Decode(&completed); err != nil {
		t.Fatalf("decoding complete response: %v", err)
	}
	if completed.Step != "verifying" {
		t.Fatalf("expected verifying step after completion, got %q", completed.Step)
	}

	rec = postJSON(t, router, bearer, "/sessions/"+sessionID+"/verify", struct{}{})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 verifying, got %d: %s", rec.Code, rec.Body.String())
	}
	var result ResultResponse
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decoding verify response: %v", err)
	}
	if result.Status != "verified" {
		t.Fatalf("expected verified status from offline analyzers, got %q", result.Status)
	}
	if !strings.HasPrefix(result.ReferenceID, "VRF-") {
		t.Fatalf("expected VRF- reference id, got %q", result.ReferenceID)
	}
	if len(result.Explanations) != 0 {
		t.Fatalf("expected no explanations for verified outcome, got %v", result.Explanations)
	}

	getReq := httptest.NewRequest(http.MethodGet, "/sessions/"+sessionID+"/result", nil)
	getReq.Header.Set("Authorization", "Bearer "+bearer)
	getRec := httptest.NewRecorder()
	router.ServeHTTP(getRec, getReq)
	if getRec.Code != http.StatusOK {
		t.Fatalf("expected 200 fetching result, got %d", getRec.Code)
	}
	var stored ResultResponse
	if err := json.NewDecoder(getRec.Body).Decode(&stored); err != nil {
		t.Fatalf("decoding result response: %v", err)
	}
	if stored.ReferenceID != result.ReferenceID {
		t.Fatalf("expected stored result %q, got %q", result.ReferenceID, stored.ReferenceID)
	}
}

func TestUploadRejectsWrongMIMEType(t *testing.T) {
	router := newWizardRouter(t)
	sessionID, bearer := createSession(t, router)

	rec := postJSON(t, router, bearer, "/sessions/"+sessionID+"/name", map[string]string{"fullName": "Jane Doe"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 submitting name, got %d", rec.Code)
	}

	rec = uploadMedia(t, router, bearer, sessionID, "doc_front", "video/mp4")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for wrong mime type, got %d", rec.Code)
	}
}

func TestUploadRejectsUnknownKind(t *testing.T) {
	router := newWizardRouter(t)
	sessionID, bearer := createSession(t, router)

	rec := uploadMedia(t, router, bearer, sessionID, "passport_scan", "image/jpeg")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown kind, got %d", rec.Code)
	}
}

func TestBackNavigationRerollsChallenge(t *testing.T) {
	router := newWizardRouter(t)
	sessionID, bearer := createSession(t, router)

	rec := postJSON(t, router, bearer, "/sessions/"+sessionID+"/name", map[string]string{"fullName": "Jane Doe"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 submitting name, got %d", rec.Code)
	}
	for _, upload := range []struct{ kind, mime string }{
		{"doc_front", "image/jpeg"},
		{"selfie", "image/jpeg"},
		{"av_clip", "video/mp4"},
	} {
		if rec := uploadMedia(t, router, bearer, sessionID, upload.kind, upload.mime); rec.Code != http.StatusOK {
			t.Fatalf("expected 200 uploading %s, got %d", upload.kind, rec.Code)
		}
	}

	rec = postJSON(t, router, bearer, "/sessions/"+sessionID+"/back", map[string]string{"step": "liveness"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 navigating back, got %d: %s", rec.Code, rec.Body.String())
	}
	var sess SessionResponse
	if err := json.NewDecoder(rec.Body).Decode(&sess); err != nil {
		t.Fatalf("decoding back response: %v", err)
	}
	if sess.Step != "liveness" {
		t.Fatalf("expected liveness step after back, got %q", sess.Step)
	}
	if sess.Attempt != 2 {
		t.Fatalf("expected attempt bump after back, got %d", sess.Attempt)
	}
	if _, ok := sess.Media["av_clip"]; ok {
		t.Fatal("expected av_clip capture dropped after back")
	}
}

func TestVerifyBeforeCompletionRejected(t *testing.T) {
	router := newWizardRouter(t)
	sessionID, bearer := createSession(t, router)

	rec := postJSON(t, router, bearer, "/sessions/"+sessionID+"/verify", struct{}{})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 verifying early, got %d", rec.Code)
	}
}
