// Package media handles capture-artifact intake: the allowed media kinds,
// their MIME allowlists, and the on-disk artifact store.
package media

import (
	domainerrors "idguardian/pkg/domain-errors"
)

// Kind identifies what a captured artifact is.
type Kind string

const (
	KindDocFront    Kind = "doc_front"
	KindDocBack     Kind = "doc_back"
	KindSelfie      Kind = "selfie"
	KindPhraseAudio Kind = "phrase_audio"
	KindAVClip      Kind = "av_clip"
)

// Kinds lists every accepted kind, in upload order.
func Kinds() []Kind {
	return []Kind{KindDocFront, KindDocBack, KindSelfie, KindAVClip, KindPhraseAudio}
}

// allowedMIMETypes is the per-kind content-type allowlist.
var allowedMIMETypes = map[Kind][]string{
	KindDocFront:    {"image/jpeg", "image/png"},
	KindDocBack:     {"image/jpeg", "image/png"},
	KindSelfie:      {"image/jpeg", "image/png"},
	KindAVClip:      {"video/mp4"},
	KindPhraseAudio: {"audio/wav", "audio/wave"},
}

// extensions maps an allowed content type to its stored file extension.
var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"video/mp4":  ".mp4",
	"audio/wav":  ".wav",
	"audio/wave": ".wav",
}

// ParseKind validates a kind string from the request path or query.
func ParseKind(raw string) (Kind, error) {
	kind := Kind(raw)
	if _, ok := allowedMIMETypes[kind]; !ok {
		return "", domainerrors.New(domainerrors.CodeInvalidInput, "invalid media kind")
	}
	return kind, nil
}

// ValidateMIME checks the uploaded content type against the kind's allowlist.
func ValidateMIME(kind Kind, mimeType string) error {
	for _, allowed := range allowedMIMETypes[kind] {
		if mimeType == allowed {
			return nil
		}
	}
	return domainerrors.New(domainerrors.CodeInvalidInput, "invalid mime type for "+string(kind))
}
