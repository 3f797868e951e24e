// Package Config reads process settings from .env and the environment.
package Config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DirectoryFirebase = "firebase"
	DirectoryMemory   = "memory"
)

type Config struct {
	Port      string
	Directory string

	FirebaseCredentials string
	FirebaseProjectID   string
	FirebaseAPIKey      string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	JWTSecret         string
	LocalDB           string
	CatalogFile       string
	RobotID           string
	HeartbeatSchedule string
	NotifyTopic       string
	SeedDemoTasks     bool
	LogFile           string
	RequestLog        string

	SlackBotToken string
	SlackChannel  string

	SMTPServer   string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPTLS      bool
	AlertEmails  []string
}

// Load reads files (".env" when none are given) and then the environment.
// A missing .env file is not an error.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("load %s: %w", file, err)
		} else if err != nil {
			log.Printf("No %s file, using environment only", file)
		}
	}

	cfg := Config{
		Port:                getenv("PORT", "3001"),
		Directory:           strings.ToLower(getenv("DIRECTORY", DirectoryMemory)),
		FirebaseCredentials: os.Getenv("FIREBASE_CREDENTIALS"),
		FirebaseProjectID:   os.Getenv("FIREBASE_PROJECT_ID"),
		FirebaseAPIKey:      os.Getenv("FIREBASE_API_KEY"),
		GoogleClientID:      os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret:  os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:   os.Getenv("GOOGLE_REDIRECT_URL"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		LocalDB:             getenv("LOCAL_DB", "lulan.db"),
		CatalogFile:         os.Getenv("CATALOG_FILE"),
		RobotID:             getenv("ROBOT_ID", "MED-001"),
		HeartbeatSchedule:   getenv("HEARTBEAT_SCHEDULE", "*/10 * * * * *"),
		NotifyTopic:         os.Getenv("NOTIFY_TOPIC"),
		LogFile:             os.Getenv("LOG_FILE"),
		RequestLog:          getenv("REQUEST_LOG", "logs/requests.log"),
		SlackBotToken:       os.Getenv("SLACK_BOT_TOKEN"),
		SlackChannel:        os.Getenv("SLACK_CHANNEL"),
		SMTPServer:          os.Getenv("SMTP_SERVER"),
		SMTPUsername:        os.Getenv("SMTP_USERNAME"),
		SMTPPassword:        os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:            os.Getenv("SMTP_FROM"),
		AlertEmails:         splitList(os.Getenv("ALERT_EMAILS")),
	}

	seed, err := strconv.ParseBool(getenv("SEED_DEMO_TASKS", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("SEED_DEMO_TASKS: %w", err)
	}
	cfg.SeedDemoTasks = seed

	if cfg.SMTPPort, err = strconv.Atoi(getenv("SMTP_PORT", "587")); err != nil {
		return Config{}, fmt.Errorf("SMTP_PORT: %w", err)
	}
	if cfg.SMTPTLS, err = strconv.ParseBool(getenv("SMTP_TLS", "false")); err != nil {
		return Config{}, fmt.Errorf("SMTP_TLS: %w", err)
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Directory {
	case DirectoryMemory:
	case DirectoryFirebase:
		if c.FirebaseCredentials == "" || c.FirebaseProjectID == "" || c.FirebaseAPIKey == "" {
			return fmt.Errorf("DIRECTORY=firebase needs FIREBASE_CREDENTIALS, FIREBASE_PROJECT_ID and FIREBASE_API_KEY")
		}
	default:
		return fmt.Errorf("unknown DIRECTORY %q", c.Directory)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	return nil
}

// GoogleEnabled reports whether the OAuth client is configured.
func (c Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != "" && c.GoogleRedirectURL != ""
}

func (c Config) SlackEnabled() bool {
	return c.SlackBotToken != "" && c.SlackChannel != ""
}

func (c Config) EmailEnabled() bool {
	return c.SMTPServer != "" && c.SMTPFrom != "" && len(c.AlertEmails) > 0
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getenv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}
