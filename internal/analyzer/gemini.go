package analyzer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"idguardian/internal/decision"
	"idguardian/internal/decision/metrics"
	"idguardian/internal/decision/ports"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-2.5-flash"
	defaultTimeout = 30 * time.Second

	// The liveness prompt caps frames to keep the request under the inline
	// payload limit. Six sequential frames are enough to judge a head turn.
	maxLivenessFrames = 6
)

// GeminiConfig configures the live analyzer client.
type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Gemini calls the Generative Language API once per channel and parses the
// model's JSON verdict. A response that is not valid JSON degrades to an
// indeterminate channel result carrying the raw text; only a failed round
// trip surfaces as an error.
type Gemini struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	logger     *slog.Logger
	metrics    *metrics.Metrics
	breaker    *Breaker
}

// NewGemini constructs the live analyzer. metrics may be nil.
func NewGemini(cfg GeminiConfig, logger *slog.Logger, m *metrics.Metrics) *Gemini {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Gemini{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		logger:     logger,
		metrics:    m,
		breaker:    NewBreaker(5, 30*time.Second),
	}
}

// Analyzers bundles the client as one analyzer per channel.
func (g *Gemini) Analyzers() ports.Analyzers {
	return ports.Analyzers{Document: g, Face: g, Liveness: g, Voice: g}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// firstText concatenates the text parts of the first candidate.
func (r *generateResponse) firstText() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var buf bytes.Buffer
	for _, p := range r.Candidates[0].Content.Parts {
		buf.WriteString(p.Text)
	}
	return buf.String()
}

func imagePart(img ports.ImageEvidence) part {
	return part{InlineData: &inlineData{
		MIMEType: img.MIMEType,
		Data:     base64.StdEncoding.EncodeToString(img.Data),
	}}
}

// generate performs one generateContent round trip and returns the candidate
// text. All failures on this path are TransportError.
func (g *Gemini) generate(ctx context.Context, channel string, parts []part) (string, error) {
	if !g.breaker.Allow() {
		g.metrics.IncrementAnalyzerFailure(channel, failureTransport)
		return "", &TransportError{Channel: channel, Message: "provider circuit open"}
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: parts}},
	})
	if err != nil {
		return "", fmt.Errorf("encoding %s request: %w", channel, err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building %s request: %w", channel, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.breaker.RecordFailure()
		g.metrics.IncrementAnalyzerFailure(channel, failureTransport)
		return "", &TransportError{Channel: channel, Message: "request failed", cause: err}
	}
	defer resp.Body.Close()
	g.metrics.ObserveAnalyzerLatency(channel, time.Since(start))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			g.breaker.RecordFailure()
		}
		g.metrics.IncrementAnalyzerFailure(channel, failureTransport)
		g.logger.WarnContext(ctx, "analyzer request rejected",
			"channel", channel,
			"status", resp.StatusCode,
		)
		return "", &TransportError{
			Channel: channel,
			Status:  resp.StatusCode,
			Message: string(snippet),
		}
	}

	var payload generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		g.metrics.IncrementAnalyzerFailure(channel, failureTransport)
		return "", &TransportError{Channel: channel, Message: "decoding response", cause: err}
	}
	text := payload.firstText()
	if text == "" {
		g.metrics.IncrementAnalyzerFailure(channel, failureTransport)
		return "", &TransportError{Channel: channel, Message: "response contained no usable text"}
	}
	g.breaker.RecordSuccess()
	return text, nil
}

// recordParseFailure logs and counts an unparseable model verdict. The caller
// returns an indeterminate result rather than an error.
func (g *Gemini) recordParseFailure(ctx context.Context, channel, raw string) {
	g.metrics.IncrementAnalyzerFailure(channel, failureParse)
	g.logger.WarnContext(ctx, "analyzer verdict was not valid JSON",
		"channel", channel,
		"raw_length", len(raw),
	)
}

// VerifyDocument extracts the name on the document image and compares it to
// the expected name.
func (g *Gemini) VerifyDocument(ctx context.Context, document ports.ImageEvidence, expectedName string) (*decision.DocumentResult, error) {
	prompt := fmt.Sprintf(`You are helping with an identity verification flow. Extract the primary full name on this ID. Then compare it to %q and respond strictly with JSON using the shape { "extractedName": string, "match": boolean, "confidence": number (0-1), "reason": string }. Only output valid JSON, no prose.`, expectedName)

	text, err := g.generate(ctx, ChannelDocument, []part{{Text: prompt}, imagePart(document)})
	if err != nil {
		return nil, err
	}

	var parsed struct {
		ExtractedName string   `json:"extractedName"`
		Match         bool     `json:"match"`
		Confidence    *float64 `json:"confidence"`
		Reason        string   `json:"reason"`
	}
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &parsed); err != nil {
		g.recordParseFailure(ctx, ChannelDocument, text)
		return &decision.DocumentResult{
			Matched: false,
			Reason:  "Could not parse model response for the ID analysis.",
			RawText: text,
		}, nil
	}

	return &decision.DocumentResult{
		Matched:       parsed.Match,
		ExtractedName: parsed.ExtractedName,
		Confidence:    decision.NormalizePtr(parsed.Confidence),
		Reason:        parsed.Reason,
		RawText:       text,
	}, nil
}

// MatchFace compares the document portrait with the live selfie.
func (g *Gemini) MatchFace(ctx context.Context, document, selfie ports.ImageEvidence) (*decision.FaceResult, error) {
	prompt := `You will receive two images: first an ID photo, then a live selfie. Respond strictly with JSON using { "match": boolean, "similarity": number (0-1), "reason": string }. Assess whether they belong to the same person.`

	text, err := g.generate(ctx, ChannelFace, []part{{Text: prompt}, imagePart(document), imagePart(selfie)})
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Match      bool     `json:"match"`
		Similarity *float64 `json:"similarity"`
		Reason     string   `json:"reason"`
	}
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &parsed); err != nil {
		g.recordParseFailure(ctx, ChannelFace, text)
		return &decision.FaceResult{
			Matched: false,
			Reason:  "Could not parse model response for the face comparison.",
			RawText: text,
		}, nil
	}

	return &decision.FaceResult{
		Matched:    parsed.Match,
		Similarity: decision.NormalizePtr(parsed.Similarity),
		Reason:     parsed.Reason,
		RawText:    text,
	}, nil
}

// AssessLiveness judges a directional head-turn challenge from sequential
// frames. At most maxLivenessFrames frames are sent.
func (g *Gemini) AssessLiveness(ctx context.Context, frames []ports.ImageEvidence, challengeDirection string) (*decision.LivenessResult, error) {
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}
	if len(frames) > maxLivenessFrames {
		frames = frames[:maxLivenessFrames]
	}

	prompt := fmt.Sprintf("You are a liveness detection system.\n"+
		"Step 1: User looked straight.\n"+
		"Step 2: User was instructed to look %s.\n"+
		"Provided: sequential frames during the test.\n"+
		"Tasks:\n"+
		"1) Did the user follow the challenge?\n"+
		"2) Do the images look like a real live capture vs spoof/replay?\n"+
		"Return ONLY JSON:\n"+
		"{\n \"liveness_active\": number,\n \"liveness_passive\": number,\n \"challenge_direction\": %q,\n \"explanations\": string[]\n}",
		challengeDirection, challengeDirection)

	parts := make([]part, 0, len(frames)+1)
	parts = append(parts, part{Text: prompt})
	for _, frame := range frames {
		parts = append(parts, imagePart(frame))
	}

	text, err := g.generate(ctx, ChannelLiveness, parts)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		LivenessActive     *float64 `json:"liveness_active"`
		LivenessPassive    *float64 `json:"liveness_passive"`
		ChallengeDirection string   `json:"challenge_direction"`
		Explanations       []string `json:"explanations"`
	}
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &parsed); err != nil {
		g.recordParseFailure(ctx, ChannelLiveness, text)
		return &decision.LivenessResult{
			ChallengeDirection: challengeDirection,
			Explanations:       []string{"Could not parse model response for the liveness assessment."},
			RawText:            text,
		}, nil
	}

	direction := parsed.ChallengeDirection
	if direction == "" {
		direction = challengeDirection
	}
	return &decision.LivenessResult{
		Active:             decision.NormalizePtr(parsed.LivenessActive),
		Passive:            decision.NormalizePtr(parsed.LivenessPassive),
		ChallengeDirection: direction,
		Explanations:       parsed.Explanations,
		RawText:            text,
	}, nil
}

// AssessVoice transcribes the spoken passphrase and scores anti-spoof and A/V
// sync.
func (g *Gemini) AssessVoice(ctx context.Context, audio ports.AudioEvidence, expectedPhrase string) (*decision.VoiceResult, error) {
	if len(audio.Data) == 0 {
		return nil, ErrNoAudio
	}

	prompt := fmt.Sprintf("You are verifying an identity using a spoken passphrase.\n"+
		"Prompt given to user: %q.\n"+
		"Tasks:\n"+
		"1) Transcribe the audio.\n"+
		"2) Decide if the spoken audio matches the prompt (phrase_match).\n"+
		"3) Estimate anti-spoof score (0-1) for replay/voice conversion detection.\n"+
		"4) Estimate A/V sync score (0-1) if applicable.\n"+
		"Return ONLY JSON:\n"+
		"{\n \"phrase_match\": boolean,\n \"transcript\": string,\n \"antispoof\": number,\n \"av_sync\": number,\n \"explanations\": string[]\n}",
		expectedPhrase)

	audioPart := part{InlineData: &inlineData{
		MIMEType: audio.MIMEType,
		Data:     base64.StdEncoding.EncodeToString(audio.Data),
	}}
	text, err := g.generate(ctx, ChannelVoice, []part{{Text: prompt}, audioPart})
	if err != nil {
		return nil, err
	}

	var parsed struct {
		PhraseMatch  *bool    `json:"phrase_match"`
		Transcript   string   `json:"transcript"`
		Antispoof    *float64 `json:"antispoof"`
		AVSync       *float64 `json:"av_sync"`
		Explanations []string `json:"explanations"`
	}
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &parsed); err != nil {
		g.recordParseFailure(ctx, ChannelVoice, text)
		return &decision.VoiceResult{
			Explanations: []string{"Could not parse model response for the voice verification."},
			RawText:      text,
		}, nil
	}

	return &decision.VoiceResult{
		PhraseMatch:  parsed.PhraseMatch,
		Transcript:   parsed.Transcript,
		Antispoof:    decision.NormalizePtr(parsed.Antispoof),
		AVSync:       decision.NormalizePtr(parsed.AVSync),
		Explanations: parsed.Explanations,
		RawText:      text,
	}, nil
}
