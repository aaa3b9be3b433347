package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"local"`

	// Source (MTProto user client).
	TGAPIID       int    `env:"TG_API_ID,required"`
	TGAPIHash     string `env:"TG_API_HASH,required"`
	TGPhone       string `env:"TG_PHONE"`
	TG2FAPassword string `env:"TG_2FA_PASSWORD"`
	TGSessionPath string `env:"TG_SESSION_PATH" envDefault:"./tg.session"`
	SourceChannel string `env:"SOURCE_CHANNEL,required"`

	// Target (Bot API publisher).
	BotToken     string `env:"BOT_TOKEN,required"`
	TargetChatID int64  `env:"TARGET_CHAT_ID,required"`

	// Scan policy.
	StateDir  string `env:"STATE_DIR" envDefault:"./state"`
	BatchSize int    `env:"BATCH_SIZE" envDefault:"50"`

	// Caption policy.
	ContextRadius    int           `env:"CONTEXT_RADIUS" envDefault:"2"`
	HeuristicMaxGap  time.Duration `env:"HEURISTIC_MAX_GAP" envDefault:"300s"`
	CaptionLimit     int           `env:"CAPTION_LIMIT" envDefault:"280"`
	DefaultCaption   string        `env:"DEFAULT_CAPTION" envDefault:""`
	CaptionRewriting bool          `env:"CAPTION_REWRITING" envDefault:"false"`

	// LLM ranking.
	LLMAPIKey    string `env:"LLM_API_KEY" envDefault:"mock"`
	LLMModel     string `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	RateLimitRPS int    `env:"RATE_LIMIT_RPS" envDefault:"1"`

	// Loop mode.
	ScanInterval time.Duration `env:"SCAN_INTERVAL" envDefault:"15m"`

	HealthPort int `env:"HEALTH_PORT" envDefault:"8080"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
