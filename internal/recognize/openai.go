package recognize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/fmueller/voxchunk/internal/audio"
	"github.com/shopspring/decimal"
)

const (
	DefaultOpenAIURL   = "https://api.openai.com/v1"
	DefaultOpenAIModel = "whisper-1"
)

// OpenAIBackend talks to any OpenAI-compatible audio endpoint
// (/audio/transcriptions, or /audio/translations for the translate task).
type OpenAIBackend struct {
	BaseURL string
	APIKey  string
	Options Options
	Client  *http.Client
}

type openAIResponse struct {
	Text     string          `json:"text"`
	Language string          `json:"language"`
	Segments []openAISegment `json:"segments"`
}

type openAISegment struct {
	Start decimal.Decimal `json:"start"`
	End   decimal.Decimal `json:"end"`
	Text  string          `json:"text"`
}

func (o *OpenAIBackend) Name() string {
	return "openai"
}

func (o *OpenAIBackend) Transcribe(ctx context.Context, clip Clip) (Transcription, error) {
	body, contentType, err := o.buildForm(clip)
	if err != nil {
		return Transcription{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint(), body)
	if err != nil {
		return Transcription{}, fmt.Errorf("create openai request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+o.APIKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := httpClientOrDefault(o.Client).Do(req)
	if err != nil {
		return Transcription{}, fmt.Errorf("openai request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Transcription{}, statusError("openai", resp)
	}

	var parsed openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Transcription{}, fmt.Errorf("decode openai response: %w", err)
	}

	spans := make([]Span, 0, len(parsed.Segments))
	for _, seg := range parsed.Segments {
		spans = append(spans, Span{
			StartMs: secondsToMs(seg.Start),
			EndMs:   secondsToMs(seg.End),
			Text:    strings.TrimSpace(seg.Text),
		})
	}

	return Transcription{Text: parsed.Text, Spans: spans, Timed: len(spans) > 0}, nil
}

func (o *OpenAIBackend) endpoint() string {
	base := strings.TrimRight(o.BaseURL, "/")
	if base == "" {
		base = DefaultOpenAIURL
	}
	if o.Options.Task == TaskTranslate {
		return base + "/audio/translations"
	}
	return base + "/audio/transcriptions"
}

func (o *OpenAIBackend) buildForm(clip Clip) (*bytes.Buffer, string, error) {
	model := strings.TrimSpace(o.Options.Model)
	if model == "" {
		model = DefaultOpenAIModel
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile("file", fmt.Sprintf("window-%03d.wav", clip.Window.Index))
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := fw.Write(audio.EncodeWAV(clip.Audio)); err != nil {
		return nil, "", fmt.Errorf("write window audio: %w", err)
	}

	fields := map[string]string{
		"model":           model,
		"response_format": "verbose_json",
	}
	if o.Options.Task != TaskTranslate && !o.Options.autoLanguage() {
		fields["language"] = o.Options.Language
	}
	for key, value := range fields {
		if err := mw.WriteField(key, value); err != nil {
			return nil, "", fmt.Errorf("write form field %s: %w", key, err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

var thousand = decimal.NewFromInt(1000)

func secondsToMs(seconds decimal.Decimal) int64 {
	return seconds.Mul(thousand).Round(0).IntPart()
}

type timedWord struct {
	Text       string
	Start, End float64
}

// sentenceSpans groups word timings into spans that end at terminal
// punctuation. Words without punctuation run on into one span.
func sentenceSpans(words []timedWord) []Span {
	var spans []Span
	open := false
	for _, w := range words {
		text := strings.TrimSpace(w.Text)
		if text == "" {
			continue
		}

		if !open {
			spans = append(spans, Span{StartMs: secondsToMs(decimal.NewFromFloat(w.Start))})
			open = true
		}
		last := &spans[len(spans)-1]
		last.EndMs = secondsToMs(decimal.NewFromFloat(w.End))
		last.Text = strings.TrimSpace(last.Text + " " + text)

		if strings.ContainsAny(text[len(text)-1:], ".?!") {
			open = false
		}
	}
	return spans
}
