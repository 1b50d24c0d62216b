package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config stores runtime configuration for the desktop client and the filing API.
type Config struct {
	Board    BoardConfig
	Gemini   GeminiConfig
	Teams    TeamsConfig
	Server   ServerConfig
	Client   ClientConfig
	Deepgram DeepgramConfig
	Audio    AudioConfig
	Session  SessionConfig
	Storage  StorageConfig
	Rules    RulesConfig
	Log      LogConfig
}

type BoardConfig struct {
	Token         string
	APIURL        string
	TaskBoardID   string
	SprintBoardID string
	SprintLimit   int
}

type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type TeamsConfig struct {
	WebhookURL string
}

type ServerConfig struct {
	Addr string
}

type ClientConfig struct {
	APIBaseURL string
	Timeout    time.Duration
}

type DeepgramConfig struct {
	APIKey      string
	APIBaseURL  string
	Model       string
	Language    string
	SmartFormat bool
}

type AudioConfig struct {
	RecorderCommand string
	InputFormat     string
	InputDevice     string
	SampleRate      int
	Channels        int
	ChunkSize       int
}

// SessionConfig holds the capture-confirm-submit timings.
type SessionConfig struct {
	Inactivity     time.Duration
	CountdownStart int
	Tick           time.Duration
	DispatchDelay  time.Duration
	SuccessDisplay time.Duration
	StreamingGrace time.Duration
}

type StorageConfig struct {
	Path string
}

type RulesConfig struct {
	Path           string
	IterationLimit int
}

type LogConfig struct {
	Level string
}

// Load resolves configuration from environment variables and sensible defaults.
// Missing credentials are not an error here; they surface per request.
func Load() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, errors.New("could not determine home directory")
	}

	configDir := filepath.Join(home, ".config", "voicetask")
	loadEnvFiles(".env", filepath.Join(configDir, "voicetask.env"))

	cfg := Config{
		Board: BoardConfig{
			Token:         strings.TrimSpace(os.Getenv("MONDAY_TOKEN")),
			APIURL:        envOrDefault("MONDAY_API_URL", "https://api.monday.com/v2"),
			TaskBoardID:   envOrDefault("MONDAY_TASK_BOARD_ID", "9137787182"),
			SprintBoardID: envOrDefault("MONDAY_SPRINT_BOARD_ID", "9434600052"),
			SprintLimit:   envOrDefaultInt("MONDAY_SPRINT_LIMIT", 200),
		},
		Gemini: GeminiConfig{
			APIKey:  strings.TrimSpace(os.Getenv("GOOGLE_KEY")),
			Model:   envOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
			BaseURL: strings.TrimSpace(os.Getenv("GEMINI_BASE_URL")),
		},
		Teams: TeamsConfig{
			WebhookURL: strings.TrimSpace(os.Getenv("TEAMS_WEBHOOK_URL")),
		},
		Server: ServerConfig{
			Addr: envOrDefault("VOICETASK_ADDR", ":8888"),
		},
		Client: ClientConfig{
			APIBaseURL: envOrDefault("VOICETASK_API_BASE", "http://localhost:8888"),
			Timeout:    time.Duration(envOrDefaultInt("VOICETASK_API_TIMEOUT_MS", 60000)) * time.Millisecond,
		},
		Deepgram: DeepgramConfig{
			APIKey:      strings.TrimSpace(os.Getenv("DEEPGRAM_API_KEY")),
			APIBaseURL:  envOrDefault("DEEPGRAM_API_BASE", "https://api.deepgram.com/v1"),
			Model:       envOrDefault("DEEPGRAM_MODEL", "nova-2"),
			Language:    envOrDefault("DEEPGRAM_LANGUAGE", "en-US"),
			SmartFormat: envOrDefaultBool("DEEPGRAM_SMART_FORMAT", true),
		},
		Audio: AudioConfig{
			RecorderCommand: envOrDefault("VOICETASK_FFMPEG_COMMAND", "ffmpeg"),
			InputFormat:     envOrDefault("VOICETASK_AUDIO_INPUT_FORMAT", "pulse"),
			InputDevice:     envOrDefault("VOICETASK_AUDIO_INPUT_DEVICE", "default"),
			SampleRate:      envOrDefaultInt("VOICETASK_SAMPLE_RATE", 16000),
			Channels:        envOrDefaultInt("VOICETASK_CHANNELS", 1),
			ChunkSize:       envOrDefaultInt("VOICETASK_AUDIO_CHUNK_SIZE", 4096),
		},
		Session: SessionConfig{
			Inactivity:     millis("VOICETASK_INACTIVITY_MS", 2000),
			CountdownStart: envOrDefaultInt("VOICETASK_COUNTDOWN", 5),
			Tick:           millis("VOICETASK_TICK_MS", 1000),
			DispatchDelay:  millis("VOICETASK_DISPATCH_DELAY_MS", 500),
			SuccessDisplay: millis("VOICETASK_SUCCESS_DISPLAY_MS", 3000),
			StreamingGrace: millis("VOICETASK_STREAMING_GRACE_MS", 500),
		},
		Storage: StorageConfig{
			Path: envOrDefault("VOICETASK_DB_PATH", filepath.Join(configDir, "preferences.sqlite")),
		},
		Rules: RulesConfig{
			Path:           firstExisting(strings.TrimSpace(os.Getenv("VOICETASK_RULES_FILE")), filepath.Join(configDir, "vocabulary.rules")),
			IterationLimit: envOrDefaultInt("VOICETASK_RULE_ITERATION_LIMIT", 30),
		},
		Log: LogConfig{
			Level: envOrDefault("VOICETASK_LOG_LEVEL", "info"),
		},
	}

	if cfg.Board.SprintLimit <= 0 {
		cfg.Board.SprintLimit = 200
	}
	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = 16000
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = 1
	}
	if cfg.Audio.ChunkSize < 256 {
		cfg.Audio.ChunkSize = 4096
	}
	if cfg.Session.CountdownStart <= 0 {
		cfg.Session.CountdownStart = 5
	}
	if cfg.Session.Tick <= 0 {
		cfg.Session.Tick = time.Second
	}
	if cfg.Session.Inactivity <= 0 {
		cfg.Session.Inactivity = 2 * time.Second
	}
	if cfg.Rules.IterationLimit <= 0 {
		cfg.Rules.IterationLimit = 30
	}
	if cfg.Client.Timeout <= 0 {
		cfg.Client.Timeout = time.Minute
	}

	return cfg, nil
}

// loadEnvFiles fills unset variables from dotenv files. Variables already in
// the environment win, and missing files are skipped.
func loadEnvFiles(paths ...string) {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		_ = godotenv.Load(p)
	}
}

func firstExisting(paths ...string) string {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range paths {
		if p != "" {
			return p
		}
	}
	return ""
}

func millis(key string, fallback int) time.Duration {
	value := envOrDefaultInt(key, fallback)
	if value < 0 {
		value = fallback
	}
	return time.Duration(value) * time.Millisecond
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultBool(key string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
