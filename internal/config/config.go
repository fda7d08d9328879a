package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type TelemetryConfig struct {
	LogLevel       string `yaml:"log_level"`
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
	OTLPInsecure   bool   `yaml:"otlp_insecure"`
	PrometheusBind string `yaml:"prometheus_bind"`
}

type HTTPConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type Config struct {
	RuntimeName string            `yaml:"runtime_name"`
	Environment string            `yaml:"environment"`
	HTTP        HTTPConfig        `yaml:"http"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	Bus         BusConfig         `yaml:"bus"`
	Camera      CameraConfig      `yaml:"camera"`
	Classifier  ClassifierConfig  `yaml:"classifier"`
	Labels      LabelsConfig      `yaml:"labels"`
	Recognition RecognitionConfig `yaml:"recognition"`
	Speech      SpeechConfig      `yaml:"speech"`
	EventStore  EventStoreConfig  `yaml:"event_store"`
}

type BusConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Embedded       bool     `yaml:"embedded"`
	Port           int      `yaml:"port"`
	Servers        []string `yaml:"servers"`
	Username       string   `yaml:"username"`
	Password       string   `yaml:"password"`
	Token          string   `yaml:"token"`
	TLSInsecure    bool     `yaml:"tls_insecure"`
	ConnectTimeout int      `yaml:"connect_timeout_ms"`
}

type CameraConfig struct {
	Mode    string `yaml:"mode"` // mock, exec
	Command string `yaml:"command"`
	Width   int    `yaml:"width"`
	Height  int    `yaml:"height"`
}

type ClassifierConfig struct {
	Mode       string `yaml:"mode"` // mock, exec
	Command    string `yaml:"command"`
	ModelPath  string `yaml:"model_path"`
	InputSize  int    `yaml:"input_size"`
	NumClasses int    `yaml:"num_classes"`
	OnError    string `yaml:"on_error"` // fatal, skip
}

type LabelsConfig struct {
	Names     []string `yaml:"names"`
	Directory string   `yaml:"directory"`
}

type RecognitionConfig struct {
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	SentenceWindow      int     `yaml:"sentence_window"`
}

type SpeechConfig struct {
	Enabled bool   `yaml:"enabled"`
	Mode    string `yaml:"mode"` // mock, exec
	Command string `yaml:"command"`
	Voice   string `yaml:"voice"`
}

type EventStoreConfig struct {
	Path          string `yaml:"path"`
	RetentionMode string `yaml:"retention_mode"`
	RetentionDays int    `yaml:"retention_days"`
	MaxSessions   int    `yaml:"max_sessions"`
	VacuumOnStart bool   `yaml:"vacuum_on_start"`
}

func Default() Config {
	return Config{
		RuntimeName: "signvoice-runtime",
		Environment: "development",
		HTTP: HTTPConfig{
			Bind: "0.0.0.0",
			Port: 8080,
		},
		Telemetry: TelemetryConfig{
			LogLevel:       "info",
			OTLPEndpoint:   "",
			OTLPInsecure:   true,
			PrometheusBind: ":9091",
		},
		Bus: BusConfig{
			Enabled:        true,
			Embedded:       true,
			Port:           4222,
			Servers:        []string{"nats://localhost:4222"},
			ConnectTimeout: 2000,
		},
		Camera: CameraConfig{
			Mode:   "mock",
			Width:  640,
			Height: 480,
		},
		Classifier: ClassifierConfig{
			Mode:       "mock",
			InputSize:  224,
			NumClasses: 26,
			OnError:    "fatal",
		},
		Recognition: RecognitionConfig{
			ConfidenceThreshold: 0.90,
			SentenceWindow:      10,
		},
		Speech: SpeechConfig{
			Enabled: true,
			Mode:    "mock",
			Voice:   "en-US",
		},
		EventStore: EventStoreConfig{
			Path:          "./data/signvoice-events.db",
			RetentionMode: "session",
			RetentionDays: 30,
			MaxSessions:   10000,
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.RuntimeName, "SIGNVOICE_RUNTIME_NAME")
	overrideString(&cfg.Environment, "SIGNVOICE_RUNTIME_ENVIRONMENT")
	overrideString(&cfg.HTTP.Bind, "SIGNVOICE_HTTP_BIND")
	overrideInt(&cfg.HTTP.Port, "SIGNVOICE_HTTP_PORT")
	overrideString(&cfg.Telemetry.LogLevel, "SIGNVOICE_TELEMETRY_LOG_LEVEL")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "SIGNVOICE_TELEMETRY_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "SIGNVOICE_TELEMETRY_OTLP_INSECURE")
	overrideString(&cfg.Telemetry.PrometheusBind, "SIGNVOICE_TELEMETRY_PROMETHEUS_BIND")
	overrideBool(&cfg.Bus.Enabled, "SIGNVOICE_BUS_ENABLED")
	overrideBool(&cfg.Bus.Embedded, "SIGNVOICE_BUS_EMBEDDED")
	overrideInt(&cfg.Bus.Port, "SIGNVOICE_BUS_PORT")
	overrideStringSlice(&cfg.Bus.Servers, "SIGNVOICE_BUS_SERVERS")
	overrideString(&cfg.Bus.Username, "SIGNVOICE_BUS_USERNAME")
	overrideString(&cfg.Bus.Password, "SIGNVOICE_BUS_PASSWORD")
	overrideString(&cfg.Bus.Token, "SIGNVOICE_BUS_TOKEN")
	overrideBool(&cfg.Bus.TLSInsecure, "SIGNVOICE_BUS_TLS_INSECURE")
	overrideInt(&cfg.Bus.ConnectTimeout, "SIGNVOICE_BUS_CONNECT_TIMEOUT_MS")
	overrideString(&cfg.Camera.Mode, "SIGNVOICE_CAMERA_MODE")
	overrideString(&cfg.Camera.Command, "SIGNVOICE_CAMERA_COMMAND")
	overrideInt(&cfg.Camera.Width, "SIGNVOICE_CAMERA_WIDTH")
	overrideInt(&cfg.Camera.Height, "SIGNVOICE_CAMERA_HEIGHT")
	overrideString(&cfg.Classifier.Mode, "SIGNVOICE_CLASSIFIER_MODE")
	overrideString(&cfg.Classifier.Command, "SIGNVOICE_CLASSIFIER_COMMAND")
	overrideString(&cfg.Classifier.ModelPath, "SIGNVOICE_CLASSIFIER_MODEL_PATH")
	overrideInt(&cfg.Classifier.InputSize, "SIGNVOICE_CLASSIFIER_INPUT_SIZE")
	overrideInt(&cfg.Classifier.NumClasses, "SIGNVOICE_CLASSIFIER_NUM_CLASSES")
	overrideString(&cfg.Classifier.OnError, "SIGNVOICE_CLASSIFIER_ON_ERROR")
	overrideStringSlice(&cfg.Labels.Names, "SIGNVOICE_LABELS_NAMES")
	overrideString(&cfg.Labels.Directory, "SIGNVOICE_LABELS_DIRECTORY")
	overrideFloat(&cfg.Recognition.ConfidenceThreshold, "SIGNVOICE_RECOGNITION_CONFIDENCE_THRESHOLD")
	overrideInt(&cfg.Recognition.SentenceWindow, "SIGNVOICE_RECOGNITION_SENTENCE_WINDOW")
	overrideBool(&cfg.Speech.Enabled, "SIGNVOICE_SPEECH_ENABLED")
	overrideString(&cfg.Speech.Mode, "SIGNVOICE_SPEECH_MODE")
	overrideString(&cfg.Speech.Command, "SIGNVOICE_SPEECH_COMMAND")
	overrideString(&cfg.Speech.Voice, "SIGNVOICE_SPEECH_VOICE")
	overrideString(&cfg.EventStore.Path, "SIGNVOICE_EVENT_STORE_PATH")
	overrideString(&cfg.EventStore.RetentionMode, "SIGNVOICE_EVENT_STORE_RETENTION_MODE")
	overrideInt(&cfg.EventStore.RetentionDays, "SIGNVOICE_EVENT_STORE_RETENTION_DAYS")
	overrideInt(&cfg.EventStore.MaxSessions, "SIGNVOICE_EVENT_STORE_MAX_SESSIONS")
	overrideBool(&cfg.EventStore.VacuumOnStart, "SIGNVOICE_EVENT_STORE_VACUUM_ON_START")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func overrideStringSlice(target *[]string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		parts := strings.Split(value, ",")
		var trimmed []string
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				trimmed = append(trimmed, s)
			}
		}
		if len(trimmed) > 0 {
			*target = trimmed
		}
	}
}

func overrideFloat(target *float64, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			*target = parsed
		}
	}
}

func validate(cfg Config) error {
	if cfg.RuntimeName == "" {
		return errors.New("runtime_name must not be empty")
	}
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return errors.New("http.port must be between 1 and 65535")
	}
	if cfg.Bus.Enabled {
		if cfg.Bus.Embedded {
			if cfg.Bus.Port <= 0 || cfg.Bus.Port > 65535 {
				return errors.New("bus.port must be between 1 and 65535 when embedded mode is enabled")
			}
		} else if len(cfg.Bus.Servers) == 0 {
			return errors.New("bus.servers must not be empty when embedded mode is disabled")
		}
	}
	switch cfg.Camera.Mode {
	case "mock", "exec":
	default:
		return errors.New("camera.mode must be one of mock|exec")
	}
	if cfg.Camera.Mode == "exec" && cfg.Camera.Command == "" {
		return errors.New("camera.command must be set when mode=exec")
	}
	if cfg.Camera.Width <= 0 || cfg.Camera.Height <= 0 {
		return errors.New("camera.width and camera.height must be positive")
	}
	switch cfg.Classifier.Mode {
	case "mock", "exec":
	default:
		return errors.New("classifier.mode must be one of mock|exec")
	}
	if cfg.Classifier.Mode == "exec" && cfg.Classifier.Command == "" {
		return errors.New("classifier.command must be set when mode=exec")
	}
	if cfg.Classifier.InputSize <= 0 {
		return errors.New("classifier.input_size must be positive")
	}
	if cfg.Classifier.NumClasses <= 0 {
		return errors.New("classifier.num_classes must be positive")
	}
	switch cfg.Classifier.OnError {
	case "fatal", "skip":
	default:
		return errors.New("classifier.on_error must be one of fatal|skip")
	}
	if cfg.Recognition.ConfidenceThreshold < 0 || cfg.Recognition.ConfidenceThreshold >= 1 {
		return errors.New("recognition.confidence_threshold must be in [0, 1)")
	}
	if cfg.Recognition.SentenceWindow <= 0 {
		return errors.New("recognition.sentence_window must be >= 1")
	}
	if cfg.Speech.Enabled {
		switch cfg.Speech.Mode {
		case "mock", "exec":
		default:
			return errors.New("speech.mode must be one of mock|exec")
		}
		if cfg.Speech.Mode == "exec" && cfg.Speech.Command == "" {
			return errors.New("speech.command must be set when mode=exec")
		}
	}
	if cfg.EventStore.Path == "" {
		return errors.New("event_store.path must not be empty")
	}
	switch cfg.EventStore.RetentionMode {
	case "ephemeral", "session", "persistent":
		// ok
	default:
		return errors.New("event_store.retention_mode must be one of ephemeral|session|persistent")
	}
	if cfg.EventStore.RetentionDays < 0 {
		return errors.New("event_store.retention_days must be >= 0")
	}
	if cfg.Telemetry.PrometheusBind == "" {
		return errors.New("telemetry.prometheus_bind must not be empty")
	}
	return nil
}
