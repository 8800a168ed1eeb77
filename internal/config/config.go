package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `json:"server"`
	Bridge    BridgeConfig    `json:"bridge"`
	Inference InferenceConfig `json:"inference"`
	Auth      AuthConfig      `json:"auth"`
	LogLevel  string          `json:"log_level"`
}

type ServerConfig struct {
	Host        string `json:"host"`
	Port        int    `json:"port"`
	CORSOrigins string `json:"cors_origins"`
}

// BridgeConfig points at the external inference/execution gateway.
type BridgeConfig struct {
	BaseURL string `json:"base_url"`
}

// InferenceConfig selects where generation and answering happen:
// "bridge" routes through the gateway, "openai" calls a model directly.
type InferenceConfig struct {
	Provider string `json:"provider"`
	APIKey   string `json:"api_key,omitempty"`
	BaseURL  string `json:"base_url,omitempty"`
	Model    string `json:"model,omitempty"`
}

// AuthConfig configures session issuance. Auth is disabled entirely when
// IdentityURL is empty.
type AuthConfig struct {
	IdentityURL string `json:"identity_url,omitempty"`
	JWTSecret   string `json:"jwt_secret,omitempty"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("json")

	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	homeDir, err := os.UserHomeDir()
	if err == nil {
		viper.AddConfigPath(filepath.Join(homeDir, ".querypilot"))
	}

	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.cors_origins", "http://localhost:5173,http://localhost:3000")
	viper.SetDefault("bridge.base_url", "http://localhost:5000")
	viper.SetDefault("inference.provider", "bridge")
	viper.SetDefault("log_level", "info")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// No config file: defaults plus env overrides.
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	loadEnvOverrides(&cfg)

	return &cfg, nil
}

func loadEnvOverrides(cfg *Config) {
	if host := os.Getenv("QUERYPILOT_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if origins := os.Getenv("QUERYPILOT_CORS_ORIGINS"); origins != "" {
		cfg.Server.CORSOrigins = origins
	}
	if url := os.Getenv("QUERYPILOT_BRIDGE_URL"); url != "" {
		cfg.Bridge.BaseURL = url
	}
	if provider := os.Getenv("QUERYPILOT_INFERENCE_PROVIDER"); provider != "" {
		cfg.Inference.Provider = provider
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.Inference.APIKey = key
	}
	if url := os.Getenv("QUERYPILOT_IDENTITY_URL"); url != "" {
		cfg.Auth.IdentityURL = url
	}
	if secret := os.Getenv("QUERYPILOT_JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	if level := os.Getenv("QUERYPILOT_LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
}
