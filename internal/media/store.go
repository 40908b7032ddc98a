package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"idguardian/pkg/domain"
	"idguardian/pkg/platform/sentinel"
)

// Artifact is one stored capture.
type Artifact struct {
	Kind     Kind
	Path     string
	MIMEType string
	Size     int64
}

// ArtifactStore persists raw captures for the duration of a verification
// attempt. Raw files are removed once a decision is recorded.
type ArtifactStore interface {
	Save(ctx context.Context, sessionID domain.SessionID, kind Kind, mimeType string, data []byte) (Artifact, error)
	Read(ctx context.Context, sessionID domain.SessionID, kind Kind) ([]byte, error)
	CleanupSession(ctx context.Context, sessionID domain.SessionID) error
}

// DiskStore stores artifacts under root/raw/<session-id>/<kind>.<ext>. One
// file per kind; a retake overwrites the previous capture.
type DiskStore struct {
	rawDir string
}

// NewDiskStore creates the raw directory under root if needed.
func NewDiskStore(root string) (*DiskStore, error) {
	rawDir := filepath.Join(root, "raw")
	if err := os.MkdirAll(rawDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating media root: %w", err)
	}
	return &DiskStore{rawDir: rawDir}, nil
}

func (s *DiskStore) sessionDir(sessionID domain.SessionID) string {
	return filepath.Join(s.rawDir, sessionID.String())
}

// findArtifact locates the stored file for a kind. The extension follows the
// uploaded content type, so the lookup matches any extension.
func (s *DiskStore) findArtifact(sessionID domain.SessionID, kind Kind) (string, bool) {
	matches, _ := filepath.Glob(filepath.Join(s.sessionDir(sessionID), string(kind)+".*"))
	if len(matches) == 0 {
		return "", false
	}
	return matches[0], true
}

// Save writes the capture, creating the session directory on first upload.
func (s *DiskStore) Save(_ context.Context, sessionID domain.SessionID, kind Kind, mimeType string, data []byte) (Artifact, error) {
	if err := ValidateMIME(kind, mimeType); err != nil {
		return Artifact{}, err
	}
	dir := s.sessionDir(sessionID)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return Artifact{}, fmt.Errorf("creating session dir: %w", err)
	}
	// A retake may arrive with a different content type; drop the previous
	// capture so only one file per kind remains.
	if existing, ok := s.findArtifact(sessionID, kind); ok {
		_ = os.Remove(existing)
	}
	path := filepath.Join(dir, string(kind)+extensions[mimeType])
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return Artifact{}, fmt.Errorf("writing artifact: %w", err)
	}
	return Artifact{
		Kind:     kind,
		Path:     path,
		MIMEType: mimeType,
		Size:     int64(len(data)),
	}, nil
}

// Read loads a stored capture. Returns sentinel.ErrNotFound when the kind was
// never uploaded or the session was already cleaned up.
func (s *DiskStore) Read(_ context.Context, sessionID domain.SessionID, kind Kind) ([]byte, error) {
	path, ok := s.findArtifact(sessionID, kind)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading artifact: %w", err)
	}
	return data, nil
}

// CleanupSession removes every raw file for the session. Idempotent.
func (s *DiskStore) CleanupSession(_ context.Context, sessionID domain.SessionID) error {
	if err := os.RemoveAll(s.sessionDir(sessionID)); err != nil {
		return fmt.Errorf("removing session dir: %w", err)
	}
	return nil
}
