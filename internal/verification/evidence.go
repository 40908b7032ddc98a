package verification

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"idguardian/internal/analyzer"
	"idguardian/internal/decision"
	"idguardian/internal/decision/ports"
	"idguardian/internal/media"
	"idguardian/internal/session"
	domainerrors "idguardian/pkg/domain-errors"
	"idguardian/pkg/platform/sentinel"
)

// channelError tags an analyzer failure with its channel so the caller can
// audit which leg of the fan-out broke.
type channelError struct {
	channel string
	err     error
}

func (e *channelError) Error() string {
	return fmt.Sprintf("%s channel: %v", e.channel, e.err)
}

func (e *channelError) Unwrap() error { return e.err }

// evidence is the raw material for one attempt, loaded from the artifact
// store before the fan-out starts.
type evidence struct {
	docFront ports.ImageEvidence
	selfie   ports.ImageEvidence
	frames   []ports.ImageEvidence
	audio    ports.AudioEvidence
}

// loadEvidence reads the captured artifacts from disk. The session FSM
// guarantees the required kinds exist before the verifying step, so a
// missing file here means the artifacts were cleaned up or lost.
func (s *Service) loadEvidence(ctx context.Context, sess *session.Session) (*evidence, error) {
	readImage := func(kind media.Kind) (ports.ImageEvidence, error) {
		data, err := s.artifacts.Read(ctx, sess.ID, kind)
		if err != nil {
			return ports.ImageEvidence{}, err
		}
		return ports.ImageEvidence{Data: data, MIMEType: sess.Media[kind].MIMEType}, nil
	}

	docFront, err := readImage(media.KindDocFront)
	if err != nil {
		return nil, translateEvidenceErr(err, media.KindDocFront)
	}
	selfie, err := readImage(media.KindSelfie)
	if err != nil {
		return nil, translateEvidenceErr(err, media.KindSelfie)
	}
	clip, err := readImage(media.KindAVClip)
	if err != nil {
		return nil, translateEvidenceErr(err, media.KindAVClip)
	}

	// The voice channel prefers the dedicated phrase recording and falls
	// back to the A/V clip's audio track.
	audio := ports.AudioEvidence{Data: clip.Data, MIMEType: clip.MIMEType}
	if sess.HasMedia(media.KindPhraseAudio) {
		data, err := s.artifacts.Read(ctx, sess.ID, media.KindPhraseAudio)
		if err != nil {
			return nil, translateEvidenceErr(err, media.KindPhraseAudio)
		}
		audio = ports.AudioEvidence{Data: data, MIMEType: sess.Media[media.KindPhraseAudio].MIMEType}
	}

	return &evidence{
		docFront: docFront,
		selfie:   selfie,
		frames:   []ports.ImageEvidence{clip},
		audio:    audio,
	}, nil
}

func translateEvidenceErr(err error, kind media.Kind) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return domainerrors.New(domainerrors.CodeInvalidState, string(kind)+" capture is no longer available")
	}
	return domainerrors.Wrap(err, domainerrors.CodeInternal, "loading captured media")
}

// gatherChannels fans the four analyses out in parallel under a shared
// timeout. The first failure cancels the rest.
func (s *Service) gatherChannels(ctx context.Context, sess *session.Session, ev *evidence) (decision.ChannelResults, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	var input decision.ChannelResults

	g.Go(func() error {
		result, err := s.analyzers.Document.VerifyDocument(ctx, ev.docFront, sess.FullName)
		if err != nil {
			return &channelError{channel: analyzer.ChannelDocument, err: err}
		}
		input.Document = result
		return nil
	})

	g.Go(func() error {
		result, err := s.analyzers.Face.MatchFace(ctx, ev.docFront, ev.selfie)
		if err != nil {
			return &channelError{channel: analyzer.ChannelFace, err: err}
		}
		input.Face = result
		return nil
	})

	g.Go(func() error {
		result, err := s.analyzers.Liveness.AssessLiveness(ctx, ev.frames, sess.ChallengeDirection)
		if err != nil {
			return &channelError{channel: analyzer.ChannelLiveness, err: err}
		}
		input.Liveness = result
		return nil
	})

	g.Go(func() error {
		result, err := s.analyzers.Voice.AssessVoice(ctx, ev.audio, sess.ExpectedPhrase)
		if err != nil {
			return &channelError{channel: analyzer.ChannelVoice, err: err}
		}
		input.Voice = result
		return nil
	})

	if err := g.Wait(); err != nil {
		return decision.ChannelResults{}, err
	}
	return input, nil
}
