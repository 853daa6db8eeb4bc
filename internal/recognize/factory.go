package recognize

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/fmueller/voxchunk/internal/whisper"
	"go.uber.org/zap"
)

// ErrUnknownBackend is returned for backend names Names does not list.
var ErrUnknownBackend = errors.New("unknown backend")

var backendNames = []string{"whisper", "openai", "cloudflare", "deepgram"}

// Names lists the selectable backends, local engine first.
func Names() []string {
	return append([]string(nil), backendNames...)
}

// Settings carries everything NewBackend may need. Fields that do not apply to
// the selected backend are ignored.
type Settings struct {
	Options Options

	WhisperEngine    whisper.Engine
	WhisperModelPath string
	TempDir          string

	OpenAIURL    string
	OpenAIAPIKey string

	CloudflareURL       string
	CloudflareAccountID string
	CloudflareAPIToken  string

	DeepgramAPIKey string

	HTTPClient *http.Client
	Logger     *zap.Logger
}

func NewBackend(name string, s Settings) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "whisper":
		if s.WhisperEngine == nil {
			return nil, errors.New("whisper backend requires an engine")
		}
		return &WhisperBackend{
			Engine:    s.WhisperEngine,
			ModelPath: s.WhisperModelPath,
			Options:   s.Options,
			TempDir:   s.TempDir,
			Logger:    s.Logger,
		}, nil
	case "openai":
		return &OpenAIBackend{
			BaseURL: s.OpenAIURL,
			APIKey:  s.OpenAIAPIKey,
			Options: s.Options,
			Client:  s.HTTPClient,
		}, nil
	case "cloudflare":
		return NewCloudflareBackend(s.CloudflareURL, s.CloudflareAccountID, s.CloudflareAPIToken, s.Options, s.HTTPClient)
	case "deepgram":
		return NewDeepgramBackend(s.DeepgramAPIKey, s.Options)
	default:
		return nil, fmt.Errorf("%w %q (expected one of: %s)", ErrUnknownBackend, name, strings.Join(backendNames, ", "))
	}
}
