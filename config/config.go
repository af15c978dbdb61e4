package config

import (
	"log"
	"os"

	"github.com/spf13/viper"
)

// Config holds the application's configuration.
type Config struct {
	Server struct {
		Port string
	}
	Database struct {
		DSN string // "memory" or file path for SQLite
	}
	Auth struct {
		// Base URL of the identity provider (e.g. a Supabase project URL).
		URL string `mapstructure:"url"`
		// Service role key sent as the `apikey` header when resolving tokens.
		ServiceRoleKey string `mapstructure:"service_role_key"`
	} `mapstructure:"auth"`
	Gemini struct {
		APIKey  string `mapstructure:"api_key"`
		BaseURL string `mapstructure:"base_url"`
		Model   string `mapstructure:"model"`
	} `mapstructure:"gemini"`
	DailyMessageLimit int `mapstructure:"daily_message_limit"`
}

// AppConfig is the global configuration instance, populated once by LoadConfig.
// Components receive it (or the fields they need) through their constructors
// rather than reading it ad hoc.
var AppConfig Config

// LoadConfig loads configuration from config.yaml and environment variables.
// Environment variables take precedence over file values.
func LoadConfig() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../config") // for running from locations like tests

	viper.SetDefault("server.port", "8080")
	viper.SetDefault("database.dsn", "memory")
	viper.SetDefault("daily_message_limit", 100)
	viper.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com")
	viper.SetDefault("gemini.model", "gemini-2.5-flash")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("WARN: [Config] Configuration file (config.yaml) not found. Using environment variables and defaults.")
		} else {
			log.Fatalf("FATAL: [Config] Error reading configuration file: %v", err)
		}
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("FATAL: [Config] Failed to unmarshal configuration into AppConfig struct: %v", err)
	}

	// Environment variable overrides. Secrets are expected to come from the
	// environment, never from config.yaml.
	if port := os.Getenv("SERVER_PORT"); port != "" {
		AppConfig.Server.Port = port
		log.Printf("INFO: [Config] Server port overridden by environment variable SERVER_PORT: %s", port)
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		AppConfig.Database.DSN = dsn
		log.Printf("INFO: [Config] Database DSN overridden by environment variable DATABASE_DSN.")
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		AppConfig.Gemini.APIKey = key
		log.Println("INFO: [Config] Loaded Gemini API key from environment variable GEMINI_API_KEY.")
	}
	if url := os.Getenv("SUPABASE_URL"); url != "" {
		AppConfig.Auth.URL = url
		log.Printf("INFO: [Config] Identity provider URL overridden by environment variable SUPABASE_URL: %s", url)
	}
	if key := os.Getenv("SERVICE_ROLE_KEY"); key != "" {
		AppConfig.Auth.ServiceRoleKey = key
		log.Println("INFO: [Config] Loaded service role key from environment variable SERVICE_ROLE_KEY.")
	}

	if AppConfig.Gemini.APIKey == "" {
		log.Println("WARN: [Config] GEMINI_API_KEY is not set. Relay requests will fail until it is configured.")
	}
	if AppConfig.Auth.URL == "" {
		log.Println("WARN: [Config] Identity provider URL is not set. Authentication will reject all requests.")
	}

	log.Println("INFO: [Config] Configuration loading complete.")
}
