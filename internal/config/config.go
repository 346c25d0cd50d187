// Package config loads and validates the svcmon configuration file.
//
// Configuration lives in a line-oriented key=value file. Seven keys are
// required and have no defaults: to, sender, template_id, API_KEY, eventID,
// eventSource, keyword. Everything else is optional and defaulted. Values
// may be overridden through SVCMON_* environment variables.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigFile is the config path used when --config is not given.
const DefaultConfigFile = "svcmon.conf"

// envPrefix namespaces the environment override variables.
const envPrefix = "SVCMON_"

// Config is the immutable result of a successful Load. Commands receive it
// by parameter; nothing reads configuration ambiently.
type Config struct {
	// Required settings.
	To          string `koanf:"to" validate:"required"`
	Sender      string `koanf:"sender" validate:"required"`
	TemplateID  string `koanf:"template_id" validate:"required"`
	APIKey      string `koanf:"api_key" validate:"required"`
	EventID     int    `koanf:"eventid" validate:"min=0"`
	EventSource string `koanf:"eventsource" validate:"required"`
	Keyword     string `koanf:"keyword" validate:"required"`

	// Optional settings with defaults.
	LogName            string `koanf:"log_name" validate:"required"`
	Endpoint           string `koanf:"endpoint" validate:"required,url"`
	DispatchTimeout    int    `koanf:"dispatch_timeout" validate:"min=1,max=300"`
	MatchCaseSensitive bool   `koanf:"match_case_sensitive"`
	StateDir           string `koanf:"state_dir" validate:"required"`
	LogFile            string `koanf:"log_file"`
	LogLevel           string `koanf:"log_level"`
	HistoryMax         int    `koanf:"history_max" validate:"min=0"`

	// Recipients is To split into individual addresses.
	Recipients []string `koanf:"-"`

	stateKey string
}

// StateKey returns the sanitized keyword used to name the dedup slot and
// the scheduled task.
func (c *Config) StateKey() string {
	return c.stateKey
}

// requiredKeys maps the canonical key spellings, which appear in
// operator-facing errors, to the normalized form used for lookups.
var requiredKeys = []struct {
	canonical string
	key       string
}{
	{"to", "to"},
	{"sender", "sender"},
	{"template_id", "template_id"},
	{"API_KEY", "api_key"},
	{"eventID", "eventid"},
	{"eventSource", "eventsource"},
	{"keyword", "keyword"},
}

// Load reads, layers, and validates configuration.
// Priority: environment variables > config file > defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	for key, value := range Defaults() {
		k.Set(key, value)
	}

	if _, err := os.Stat(path); err != nil {
		return nil, &UnreadableError{Path: path, Err: err}
	}
	if err := k.Load(file.Provider(path), dotenv.ParserEnv("", ".", normalizeKey)); err != nil {
		return nil, &UnreadableError{Path: path, Err: err}
	}

	k.Load(env.Provider(envPrefix, ".", envTransform), nil)

	if missing := missingRequiredKeys(k); len(missing) > 0 {
		return nil, &MissingKeysError{Path: path, Keys: missing}
	}

	// eventID is checked before unmarshaling so a non-numeric value surfaces
	// as a typed error instead of a generic decode failure.
	rawID := strings.TrimSpace(k.String("eventid"))
	eventID, err := strconv.Atoi(rawID)
	if err != nil || eventID < 0 {
		return nil, &InvalidEventIDError{Path: path, Value: rawID}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, &ValidationError{Path: path, Message: "decoding config: " + err.Error()}
	}
	cfg.EventID = eventID
	cfg.Recipients = ParseRecipients(cfg.To)

	if err := validateConfig(&cfg, path); err != nil {
		return nil, err
	}

	cfg.StateDir = expandHomePath(cfg.StateDir)
	cfg.LogFile = expandHomePath(cfg.LogFile)

	cfg.stateKey = SanitizeKeyword(cfg.Keyword)
	if cfg.stateKey == "" {
		return nil, &ValidationError{
			Path:    path,
			Field:   "keyword",
			Message: "must contain at least one ASCII letter",
		}
	}

	return &cfg, nil
}

// missingRequiredKeys returns the canonical names of required keys that are
// absent from every configuration source.
func missingRequiredKeys(k *koanf.Koanf) []string {
	var missing []string
	for _, rk := range requiredKeys {
		if !k.Exists(rk.key) {
			missing = append(missing, rk.canonical)
		}
	}
	return missing
}

// ParseRecipients splits the to value into addresses. Both a bare comma
// list and a bracketed one ([a@x, b@y]) are accepted, with optional quotes
// around individual addresses.
func ParseRecipients(raw string) []string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")

	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(strings.TrimSpace(p), `"'`)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// normalizeKey lowercases config file keys so eventID, EVENTID, and eventid
// all address the same setting.
func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// envTransform converts environment variable names to config keys.
// Example: SVCMON_TEMPLATE_ID -> template_id
func envTransform(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, envPrefix))
}

// expandHomePath expands ~ to the user's home directory.
func expandHomePath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(homeDir, path[2:])
		}
	}
	return path
}

// FileSource loads configuration from one path at most once and hands every
// caller the same result.
type FileSource struct {
	path string
	once sync.Once
	cfg  *Config
	err  error
}

// NewFileSource returns a memoizing source for path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Load returns the cached configuration, reading the file on first use.
func (s *FileSource) Load() (*Config, error) {
	s.once.Do(func() {
		s.cfg, s.err = Load(s.path)
	})
	return s.cfg, s.err
}

// Path returns the configured file path.
func (s *FileSource) Path() string {
	return s.path
}
