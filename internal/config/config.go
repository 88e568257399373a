package config

import (
	"errors"
	"os"
	"sync"

	"github.com/joho/godotenv"
)

type Config struct {
	Env            string
	LogLevel       string
	HTTPAddr       string
	DBType         string
	DBDSN          string
	FilePlans      string
	FileUserPlans  string
	FileProgress   string
	FileProfiles   string
	AuthServiceURL string
	VerseAPIURL    string
}

var (
	cfg  *Config
	once sync.Once
)

func Load() *Config {
	once.Do(func() {
		_ = godotenv.Load()
		cfg = &Config{
			Env:            getEnv("APP_ENV", "development"),
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			HTTPAddr:       getEnv("HTTP_ADDR", ":8088"),
			DBType:         getEnv("STORAGE_BACKEND", "file"),
			DBDSN:          getEnv("POSTGRES_DSN", ""),
			FilePlans:      getEnv("PLANS_FILE", "data/plans.json"),
			FileUserPlans:  getEnv("USER_PLANS_FILE", "data/user_plans.json"),
			FileProgress:   getEnv("PROGRESS_FILE", "data/daily_progress.json"),
			FileProfiles:   getEnv("PROFILES_FILE", "data/profiles.json"),
			AuthServiceURL: getEnv("AUTH_SERVICE_URL", ""),
			VerseAPIURL:    getEnv("VERSE_API_URL", "https://beta.ourmanna.com/api/v1/get/?format=json"),
		}
		if err := cfg.Validate(); err != nil {
			panic("Invalid config: " + err.Error())
		}
	})
	return cfg
}

func (c *Config) Validate() error {
	if c.DBType == "postgres" && c.DBDSN == "" {
		return errors.New("POSTGRES_DSN is required when STORAGE_BACKEND=postgres")
	}
	if c.DBType == "file" && (c.FilePlans == "" || c.FileUserPlans == "" || c.FileProgress == "" || c.FileProfiles == "") {
		return errors.New("File storage requires PLANS_FILE, USER_PLANS_FILE, PROGRESS_FILE and PROFILES_FILE to be set")
	}
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return errors.New("APP_ENV must be one of: development, staging, production")
	}
	if c.Env != "development" && c.AuthServiceURL == "" {
		return errors.New("AUTH_SERVICE_URL is required outside development")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
