package recognize

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/fmueller/voxchunk/internal/audio"
)

const (
	DefaultCloudflareURL   = "https://api.cloudflare.com/client/v4"
	DefaultCloudflareModel = "@cf/openai/whisper"
)

// CloudflareBackend calls a Workers AI speech model with the raw window WAV.
// The model detects the language itself and only transcribes.
type CloudflareBackend struct {
	BaseURL   string
	AccountID string
	APIToken  string
	Options   Options
	Client    *http.Client
}

type cloudflareResponse struct {
	Success bool `json:"success"`
	Errors  []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
	Result struct {
		Text  string `json:"text"`
		Words []struct {
			Word  string  `json:"word"`
			Start float64 `json:"start"`
			End   float64 `json:"end"`
		} `json:"words"`
	} `json:"result"`
}

func NewCloudflareBackend(baseURL, accountID, apiToken string, opts Options, client *http.Client) (*CloudflareBackend, error) {
	if opts.Task == TaskTranslate {
		return nil, errors.New("cloudflare backend does not support the translate task")
	}
	if !opts.autoLanguage() {
		return nil, fmt.Errorf("cloudflare backend detects the language automatically; got --language %q, use auto", opts.Language)
	}
	return &CloudflareBackend{
		BaseURL:   baseURL,
		AccountID: accountID,
		APIToken:  apiToken,
		Options:   opts,
		Client:    client,
	}, nil
}

func (c *CloudflareBackend) Name() string {
	return "cloudflare"
}

func (c *CloudflareBackend) Transcribe(ctx context.Context, clip Clip) (Transcription, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(audio.EncodeWAV(clip.Audio)))
	if err != nil {
		return Transcription{}, fmt.Errorf("create cloudflare request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIToken)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := httpClientOrDefault(c.Client).Do(req)
	if err != nil {
		return Transcription{}, fmt.Errorf("cloudflare request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Transcription{}, statusError("cloudflare", resp)
	}

	var parsed cloudflareResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Transcription{}, fmt.Errorf("decode cloudflare response: %w", err)
	}
	if !parsed.Success {
		msgs := make([]string, 0, len(parsed.Errors))
		for _, e := range parsed.Errors {
			msgs = append(msgs, fmt.Sprintf("%d %s", e.Code, e.Message))
		}
		if len(msgs) == 0 {
			return Transcription{}, errors.New("cloudflare response not successful")
		}
		return Transcription{}, fmt.Errorf("cloudflare response not successful: %s", strings.Join(msgs, "; "))
	}

	words := make([]timedWord, 0, len(parsed.Result.Words))
	for _, w := range parsed.Result.Words {
		words = append(words, timedWord{Text: w.Word, Start: w.Start, End: w.End})
	}
	spans := sentenceSpans(words)

	return Transcription{Text: parsed.Result.Text, Spans: spans, Timed: len(spans) > 0}, nil
}

func (c *CloudflareBackend) endpoint() string {
	base := strings.TrimRight(c.BaseURL, "/")
	if base == "" {
		base = DefaultCloudflareURL
	}
	model := strings.TrimSpace(c.Options.Model)
	if model == "" {
		model = DefaultCloudflareModel
	}
	return fmt.Sprintf("%s/accounts/%s/ai/run/%s", base, c.AccountID, model)
}
