package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = "VOXCHUNK"

var ErrMissingCredential = errors.New("missing credential")

// Credentials holds backend endpoints and secrets. They come from the
// environment only, never from flags.
type Credentials struct {
	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`
	OpenAIURL    string `envconfig:"OPENAI_URL" default:"https://api.openai.com/v1"`

	CloudflareAccountID string `envconfig:"CLOUDFLARE_ACCOUNT_ID"`
	CloudflareAPIToken  string `envconfig:"CLOUDFLARE_API_TOKEN"`
	CloudflareURL       string `envconfig:"CLOUDFLARE_URL" default:"https://api.cloudflare.com/client/v4"`

	DeepgramAPIKey string `envconfig:"DEEPGRAM_API_KEY"`

	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"2m"`
}

// LoadCredentials reads an optional dotenv file and then the VOXCHUNK_*
// environment. Variables already set in the environment win over the file.
func LoadCredentials(envFile string) (Credentials, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Credentials{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var c Credentials
	if err := envconfig.Process(EnvPrefix, &c); err != nil {
		return Credentials{}, fmt.Errorf("load environment: %w", err)
	}
	return c, nil
}

// Require checks that the credentials needed by backend are present.
func (c Credentials) Require(backend string) error {
	var missing []string
	switch backend {
	case "openai":
		if c.OpenAIAPIKey == "" {
			missing = append(missing, EnvPrefix+"_OPENAI_API_KEY")
		}
	case "cloudflare":
		if c.CloudflareAccountID == "" {
			missing = append(missing, EnvPrefix+"_CLOUDFLARE_ACCOUNT_ID")
		}
		if c.CloudflareAPIToken == "" {
			missing = append(missing, EnvPrefix+"_CLOUDFLARE_API_TOKEN")
		}
	case "deepgram":
		if c.DeepgramAPIKey == "" {
			missing = append(missing, EnvPrefix+"_DEEPGRAM_API_KEY")
		}
	}

	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w for %s backend: set %v", ErrMissingCredential, backend, missing)
}
