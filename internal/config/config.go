package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BerylCAtieno/opportunity-analyzer/internal/yelp"
)

// Config holds all configuration for the application
type Config struct {
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Yelp   YelpConfig   `yaml:"yelp" mapstructure:"yelp"`
	LLM    LLMConfig    `yaml:"llm" mapstructure:"llm"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

type ServerConfig struct {
	Port         int      `yaml:"port" mapstructure:"port"`
	PortAttempts int      `yaml:"port_attempts" mapstructure:"port_attempts"`
	StaticDir    string   `yaml:"static_dir" mapstructure:"static_dir"`
	CORSOrigins  []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

type YelpConfig struct {
	APIKey           string  `yaml:"api_key" mapstructure:"api_key"`
	BaseURL          string  `yaml:"base_url" mapstructure:"base_url"`
	Locale           string  `yaml:"locale" mapstructure:"locale"`
	Latitude         float64 `yaml:"latitude" mapstructure:"latitude"`
	Longitude        float64 `yaml:"longitude" mapstructure:"longitude"`
	ReviewLimit      int     `yaml:"review_limit" mapstructure:"review_limit"`
	FetchConcurrency int     `yaml:"fetch_concurrency" mapstructure:"fetch_concurrency"`
	TimeoutSecs      int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// LLMConfig selects the completion provider and carries credentials for each.
type LLMConfig struct {
	Provider        string         `yaml:"provider" mapstructure:"provider"`
	Temperature     float64        `yaml:"temperature" mapstructure:"temperature"`
	MaxOutputTokens int            `yaml:"max_output_tokens" mapstructure:"max_output_tokens"`
	Gemini          ProviderConfig `yaml:"gemini" mapstructure:"gemini"`
	OpenAI          ProviderConfig `yaml:"openai" mapstructure:"openai"`
	Anthropic       ProviderConfig `yaml:"anthropic" mapstructure:"anthropic"`
}

type ProviderConfig struct {
	APIKey string `yaml:"api_key" mapstructure:"api_key"`
	Model  string `yaml:"model" mapstructure:"model"`
}

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Load reads configuration from .env, config.yaml and the environment.
// Environment wins over the file; a missing .env or config.yaml is not an error.
func Load() (*Config, error) {
	// In production variables are set directly, so a missing .env is fine.
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("OPPORTUNITY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bare names used by existing deployments.
	bindings := map[string]string{
		"yelp.api_key":          "YELP_API_KEY",
		"llm.gemini.api_key":    "GEMINI_API_KEY",
		"llm.openai.api_key":    "OPENAI_API_KEY",
		"llm.anthropic.api_key": "ANTHROPIC_API_KEY",
		"llm.provider":          "LLM_PROVIDER",
		"server.port":           "PORT",
		"server.cors_origins":   "CORS_ORIGINS",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, "OPPORTUNITY_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, eris.Wrapf(err, "config: bind %s", key)
		}
	}

	v.SetDefault("server.port", 3000)
	v.SetDefault("server.port_attempts", 10)
	v.SetDefault("server.static_dir", "public")
	v.SetDefault("server.cors_origins", []string{"https://biz.sound.fan", "http://localhost:3000", "http://localhost:5173"})
	v.SetDefault("yelp.base_url", yelp.DefaultBaseURL)
	v.SetDefault("yelp.locale", yelp.DefaultLocale)
	v.SetDefault("yelp.latitude", yelp.DefaultLatitude)
	v.SetDefault("yelp.longitude", yelp.DefaultLongitude)
	v.SetDefault("yelp.review_limit", yelp.MaxReviewLimit)
	v.SetDefault("yelp.fetch_concurrency", 1)
	v.SetDefault("yelp.timeout_secs", 30)
	v.SetDefault("llm.provider", ProviderGemini)
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_output_tokens", 8192)
	v.SetDefault("llm.gemini.model", "gemini-2.5-flash")
	v.SetDefault("llm.openai.model", "gpt-5.1")
	v.SetDefault("llm.anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	// CORS_ORIGINS arrives as one comma-separated string from the environment.
	cfg.Server.CORSOrigins = splitList(cfg.Server.CORSOrigins)

	if cfg.Yelp.ReviewLimit <= 0 || cfg.Yelp.ReviewLimit > yelp.MaxReviewLimit {
		cfg.Yelp.ReviewLimit = yelp.MaxReviewLimit
	}
	if cfg.Yelp.FetchConcurrency <= 0 {
		cfg.Yelp.FetchConcurrency = 1
	}
	if cfg.Server.PortAttempts <= 0 {
		cfg.Server.PortAttempts = 1
	}
	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))

	return &cfg, nil
}

// Validate checks that the credentials needed to serve requests are present.
func (c *Config) Validate() error {
	if c.Yelp.APIKey == "" {
		return eris.New("config: YELP_API_KEY is required")
	}

	switch c.LLM.Provider {
	case ProviderGemini:
		if c.LLM.Gemini.APIKey == "" {
			return eris.New("config: GEMINI_API_KEY is required")
		}
	case ProviderOpenAI:
		if c.LLM.OpenAI.APIKey == "" {
			return eris.New("config: OPENAI_API_KEY is required")
		}
	case ProviderAnthropic:
		if c.LLM.Anthropic.APIKey == "" {
			return eris.New("config: ANTHROPIC_API_KEY is required")
		}
	default:
		return eris.Errorf("config: unknown llm provider %q", c.LLM.Provider)
	}

	return nil
}

// InitLogger installs a global zap logger built from cfg.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
