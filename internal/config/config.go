package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	DefaultAddr        = ":8080"
	DefaultDBPath      = "quiz.db"
	DefaultSeedAmount  = 50
	DefaultHTTPTimeout = 10 * time.Second
)

// Config holds the quiz-service settings read from the environment.
type Config struct {
	Addr           string        `validate:"required"`
	DBPath         string        `validate:"required"`
	JWTSecret      string        `validate:"required,min=16"`
	AllowedOrigins []string      `validate:"dive,required"`
	AdminUsers     []string      `validate:"dive,required"`
	SeedAmount     int           `validate:"gte=0,lte=50"`
	OpenTDBURL     string        `validate:"omitempty,url"`
	HTTPTimeout    time.Duration `validate:"gt=0"`
}

var validate = validator.New()

// LoadEnv loads a .env file when one is present. A missing file is not an error.
func LoadEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		log.Println("[INFO] no .env file loaded, using process environment")
		return
	}
	log.Println("[INFO] .env file loaded")
}

// GetEnv returns the variable's value, or the first default when it is unset.
func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if !exists && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return value
}

// Load reads the environment (after LoadEnv) and validates the result.
func Load() (Config, error) {
	cfg := Config{
		Addr:           strings.TrimSpace(GetEnv("ADDR", DefaultAddr)),
		DBPath:         strings.TrimSpace(GetEnv("DB_PATH", DefaultDBPath)),
		JWTSecret:      GetEnv("JWT_SECRET"),
		AllowedOrigins: splitList(GetEnv("ALLOWED_ORIGINS", "*")),
		AdminUsers:     splitList(GetEnv("ADMIN_USERS")),
		OpenTDBURL:     strings.TrimSpace(GetEnv("OPENTDB_URL")),
	}

	var err error
	if cfg.SeedAmount, err = intEnv("SEED_AMOUNT", DefaultSeedAmount); err != nil {
		return Config{}, err
	}
	if cfg.HTTPTimeout, err = durationEnv("HTTP_TIMEOUT", DefaultHTTPTimeout); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return fmt.Errorf("invalid config: %s failed %q", fieldErrs[0].Field(), fieldErrs[0].Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func splitList(raw string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func intEnv(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(GetEnv(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return value, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(GetEnv(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return value, nil
}
