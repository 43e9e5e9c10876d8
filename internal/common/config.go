package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	Render  RenderConfig
	Vision  VisionConfig
	Jobs    JobsConfig
	PDF     PDFConfig
	Journal JournalConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr           string
	UploadDir      string
	OutputDir      string
	MaxUploadBytes int64
}

// RenderConfig holds page rendering configuration
type RenderConfig struct {
	DPI int
}

// VisionConfig holds text-extraction configuration
type VisionConfig struct {
	Engine    string // "claude" | "tesseract"
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
	Prompt    string
	Timeout   time.Duration
	Language  string // tesseract language hint
}

// JobsConfig holds the worker queue knobs
type JobsConfig struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration
}

// PDFConfig holds external PDF tool binaries
type PDFConfig struct {
	Qpdf        string
	Ghostscript string
}

// JournalConfig holds the optional job journal settings
type JournalConfig struct {
	Path string // empty disables the journal
}

const defaultPrompt = "This is a scanned image of a handwritten page. " +
	"Please transcribe ALL handwritten text exactly as written, preserving line breaks. " +
	"Do not add any commentary, formatting, or interpretation. " +
	"Output only the transcribed text."

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           getEnv("HTTP_ADDR", ":5001"),
			UploadDir:      getEnv("UPLOAD_DIR", "./uploads"),
			OutputDir:      getEnv("OUTPUT_DIR", "./outputs"),
			MaxUploadBytes: getEnvAsInt64("MAX_UPLOAD_BYTES", 50<<20),
		},
		Render: RenderConfig{
			DPI: getEnvAsInt("PDF_RENDER_DPI", 150),
		},
		Vision: VisionConfig{
			Engine:    getEnv("OCR_ENGINE", "claude"),
			APIKey:    getEnv("ANTHROPIC_API_KEY", ""),
			Model:     getEnv("CLAUDE_MODEL", "claude-sonnet-4-6"),
			BaseURL:   getEnv("ANTHROPIC_BASE_URL", "https://api.anthropic.com"),
			MaxTokens: getEnvAsInt("CLAUDE_MAX_TOKENS", 4096),
			Prompt:    getEnv("OCR_PROMPT", defaultPrompt),
			Timeout:   getEnvAsDuration("OCR_TIMEOUT", 120*time.Second),
			Language:  getEnv("TESSERACT_LANG", "eng"),
		},
		Jobs: JobsConfig{
			Workers:   getEnvAsInt("JOB_WORKERS", 4),
			QueueSize: getEnvAsInt("JOB_QUEUE_SIZE", 64),
			Timeout:   getEnvAsDuration("JOB_TIMEOUT", 15*time.Minute),
		},
		PDF: PDFConfig{
			Qpdf:        getEnv("QPDF_BIN", "qpdf"),
			Ghostscript: getEnv("GS_BIN", "gs"),
		},
		Journal: JournalConfig{
			Path: getEnv("JOURNAL_PATH", ""),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration. Configuration errors are
// rejected at startup, before any job can be created.
func (c *Config) Validate() error {
	switch c.Vision.Engine {
	case "claude":
		if c.Vision.APIKey == "" {
			return NewAppError("CONFIG_ERROR", "ANTHROPIC_API_KEY is required when OCR_ENGINE=claude", ErrInvalidInput)
		}
	case "tesseract":
		// local engine, no credentials
	default:
		return NewAppError("CONFIG_ERROR", "OCR_ENGINE must be claude or tesseract", ErrInvalidInput)
	}
	if c.Server.Addr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Render.DPI <= 0 {
		return NewAppError("CONFIG_ERROR", "PDF_RENDER_DPI must be positive", ErrInvalidInput)
	}
	return nil
}
