package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type (
	Config struct {
		HTTP      HTTP
		Database  Database
		R2        R2
		Storage   Storage
		BgRemover BgRemover
		Email     Email
		Tokens    Tokens
		JWT       JWT

		// PublicBaseURL must be reachable by the background-removal service,
		// which pulls staged files back from this server.
		PublicBaseURL string `env:"PUBLIC_BASE_URL,required"`
	}

	HTTP struct {
		Port string `env:"PORT" envDefault:"8080"`
	}

	Database struct {
		URL string `env:"DATABASE_URL,required"`
	}

	R2 struct {
		AccountID       string `env:"R2_ACCOUNT_ID"`
		AccessKeyID     string `env:"R2_ACCESS_KEY_ID"`
		SecretAccessKey string `env:"R2_SECRET_ACCESS_KEY"`
		Bucket          string `env:"R2_BUCKET"`
	}

	Storage struct {
		// LocalDir is used instead of R2 when no R2 credentials are set.
		LocalDir string `env:"STORAGE_LOCAL_DIR" envDefault:"data/objects"`
	}

	BgRemover struct {
		APIBase       string        `env:"BG_REMOVER_API_BASE"`
		APIToken      string        `env:"BG_REMOVER_API_TOKEN"`
		SigningSecret string        `env:"BG_REMOVER_SIGNING_SECRET,required"`
		StagingDir    string        `env:"BG_REMOVER_STAGING_DIR" envDefault:"data/staging"`
		Timeout       time.Duration `env:"BG_REMOVER_TIMEOUT" envDefault:"60s"`
	}

	Email struct {
		ResendAPIKey string `env:"RESEND_API_KEY"`
		FromAddress  string `env:"EMAIL_FROM_ADDRESS" envDefault:"hello@boothpix.co"`
		FromName     string `env:"EMAIL_FROM_NAME" envDefault:"BoothPix"`
		TemplatesDir string `env:"EMAIL_TEMPLATES_DIR" envDefault:"pkg/email/templates"`
		// OutboxDir receives rendered emails when no API key is configured.
		OutboxDir string `env:"EMAIL_OUTBOX_DIR" envDefault:"data/outbox"`
	}

	Tokens struct {
		// Per-channel TTLs; the two observed delivery channels historically
		// carried different lifetimes, so each stays configurable.
		DownloadTTL   time.Duration `env:"DOWNLOAD_TOKEN_TTL" envDefault:"168h"`
		AttachmentTTL time.Duration `env:"ATTACHMENT_TOKEN_TTL" envDefault:"72h"`
		SelectionTTL  time.Duration `env:"SELECTION_TOKEN_TTL" envDefault:"72h"`
	}

	JWT struct {
		Secret string `env:"JWT_SECRET,required"`
	}
)

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	return cfg, nil
}
