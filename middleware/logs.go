package middleware

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"Lulan/Models"
)

// LogConfig holds configuration for the request logging middleware
type LogConfig struct {
	Console bool
	// LogFilePath enables file logging when set
	LogFilePath string
	// "json" or "text" for console lines; the file always gets json
	Format    string
	SkipPaths []string
	// Output receives every formatted line when set, instead of log
	Output func(line string)
}

// LogData is one logged request
type LogData struct {
	Timestamp time.Time     `json:"timestamp"`
	Method    string        `json:"method"`
	Path      string        `json:"path"`
	Status    int           `json:"status"`
	Latency   time.Duration `json:"latency"`
	IP        string        `json:"ip"`
	RequestID string        `json:"request_id,omitempty"`
	UID       string        `json:"uid,omitempty"`
	Email     string        `json:"email,omitempty"`
	Error     string        `json:"error,omitempty"`
}

func DefaultLogConfig() LogConfig {
	return LogConfig{
		Console:   true,
		Format:    "text",
		SkipPaths: []string{"/health"},
	}
}

// LoggingMiddleware logs every request after it has been handled
func LoggingMiddleware(config ...LogConfig) fiber.Handler {
	cfg := DefaultLogConfig()
	if len(config) > 0 {
		cfg = config[0]
	}

	var file *os.File
	var fileMu sync.Mutex
	if cfg.LogFilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFilePath), 0755); err != nil {
			log.Printf("Error creating logs directory: %v\n", err)
		}
		f, err := os.OpenFile(cfg.LogFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			log.Printf("Error opening log file: %v\n", err)
		} else {
			file = f
		}
	}

	skip := make(map[string]bool, len(cfg.SkipPaths))
	for _, path := range cfg.SkipPaths {
		skip[path] = true
	}

	return func(c *fiber.Ctx) error {
		if skip[c.Path()] {
			return c.Next()
		}
		start := time.Now()

		err := c.Next()

		data := LogData{
			Timestamp: start,
			Method:    c.Method(),
			Path:      c.Path(),
			Status:    c.Response().StatusCode(),
			Latency:   time.Since(start),
			IP:        c.IP(),
			RequestID: c.Get("X-Request-ID"),
		}
		if identity, ok := c.Locals(IdentityKey).(Models.Identity); ok {
			data.UID = identity.UID
			data.Email = identity.Email
		}
		if err != nil {
			data.Error = err.Error()
		}

		line := formatLog(cfg.Format, data)
		switch {
		case cfg.Output != nil:
			cfg.Output(line)
		case cfg.Console:
			log.Println(line)
		}
		if file != nil {
			fileMu.Lock()
			if _, werr := file.WriteString(formatLog("json", data) + "\n"); werr != nil {
				log.Printf("Error writing to log file: %v\n", werr)
			}
			fileMu.Unlock()
		}
		return err
	}
}

func formatLog(format string, data LogData) string {
	if format == "json" {
		raw, _ := json.Marshal(data)
		return string(raw)
	}

	user := ""
	if data.UID != "" {
		user = fmt.Sprintf(" user:%s(%s)", data.UID, data.Email)
	}
	return fmt.Sprintf("[%s] %s %s %s %d %s %s%s",
		data.Timestamp.Format("2006-01-02 15:04:05"),
		data.Method,
		data.Path,
		statusMark(data.Status),
		data.Status,
		data.Latency,
		data.IP,
		user,
	)
}

func statusMark(status int) string {
	switch {
	case status >= 500:
		return "❌"
	case status >= 400:
		return "⚠️"
	case status >= 300:
		return "🔄"
	default:
		return "✅"
	}
}
