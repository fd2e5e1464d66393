// Package speech turns recorded answers into text through an external
// recognition service.
package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	ErrNoSpeech       = errors.New("could not understand audio")
	ErrEmptyAudio     = errors.New("audio is empty")
	ErrAudioTooLarge  = errors.New("audio exceeds 10 MiB")
	ErrServiceFailure = errors.New("speech recognition service error")
	ErrNotConfigured  = errors.New("speech recognition is not configured")
)

const (
	maxAudioBytes      = 10 << 20
	defaultHTTPTimeout = 15 * time.Second
)

type Recognizer interface {
	Recognize(ctx context.Context, audio io.Reader) (string, error)
}

// HTTPRecognizer speaks the speech:recognize JSON protocol.
type HTTPRecognizer struct {
	endpoint string
	apiKey   string
	language string
	client   *http.Client
}

func NewHTTPRecognizer(endpoint, apiKey, language string) *HTTPRecognizer {
	return &HTTPRecognizer{
		endpoint: endpoint,
		apiKey:   apiKey,
		language: language,
		client:   &http.Client{Timeout: defaultHTTPTimeout},
	}
}

type recognizeRequest struct {
	Config struct {
		LanguageCode string `json:"languageCode"`
	} `json:"config"`
	Audio struct {
		Content string `json:"content"`
	} `json:"audio"`
}

type recognizeResponse struct {
	Results []struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"results"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (r *HTTPRecognizer) Recognize(ctx context.Context, audio io.Reader) (string, error) {
	if r.endpoint == "" {
		return "", ErrNotConfigured
	}

	data, err := io.ReadAll(io.LimitReader(audio, maxAudioBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read audio: %w", err)
	}
	switch {
	case len(data) == 0:
		return "", ErrEmptyAudio
	case len(data) > maxAudioBytes:
		return "", ErrAudioTooLarge
	}

	var body recognizeRequest
	body.Config.LanguageCode = r.language
	body.Audio.Content = base64.StdEncoding.EncodeToString(data)
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.requestURL(), bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrServiceFailure, err)
	}
	defer resp.Body.Close()

	var decoded recognizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("%w: status %d", ErrServiceFailure, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		if decoded.Error != nil {
			return "", fmt.Errorf("%w: %s", ErrServiceFailure, decoded.Error.Message)
		}
		return "", fmt.Errorf("%w: status %d", ErrServiceFailure, resp.StatusCode)
	}

	var parts []string
	for _, result := range decoded.Results {
		if len(result.Alternatives) == 0 {
			continue
		}
		if text := strings.TrimSpace(result.Alternatives[0].Transcript); text != "" {
			parts = append(parts, text)
		}
	}
	if len(parts) == 0 {
		return "", ErrNoSpeech
	}
	return strings.Join(parts, " "), nil
}

func (r *HTTPRecognizer) requestURL() string {
	if r.apiKey == "" {
		return r.endpoint
	}
	u, err := url.Parse(r.endpoint)
	if err != nil {
		return r.endpoint
	}
	q := u.Query()
	q.Set("key", r.apiKey)
	u.RawQuery = q.Encode()
	return u.String()
}
