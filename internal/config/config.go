package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	charmLog "github.com/charmbracelet/log"
	toml "github.com/pelletier/go-toml/v2"
)

// DefaultNamespace is the tenant key used when none is configured.
const DefaultNamespace = "default"

// DefaultDevLogDir holds dev log files, relative to the data directory.
const DefaultDevLogDir = "logs"

// DefaultCompletionTimeout bounds one drafting call when the file leaves it blank.
const DefaultCompletionTimeout = 30 * time.Second

type Config struct {
	Database    DatabaseConfig   `toml:"database"`
	Namespace   string           `toml:"namespace"`
	Logging     LoggingConfig    `toml:"logging"`
	Server      ServerConfig     `toml:"server"`
	Identity    IdentityConfig   `toml:"identity"`
	Completion  CompletionConfig `toml:"completion"`
	Frequencies []string         `toml:"frequencies"`
	Keys        KeysConfig       `toml:"keys"`
}

// KeysConfig overrides the dashboard bindings. Blank entries keep the defaults.
type KeysConfig struct {
	MoveAssetUp   string `toml:"move_asset_up"`
	MoveAssetDown string `toml:"move_asset_down"`
	CopyReport    string `toml:"copy_report"`
	NextView      string `toml:"next_view"`
	CycleCategory string `toml:"cycle_category"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type LoggingConfig struct {
	Level   string        `toml:"level"`
	DevFile DevFileConfig `toml:"dev_file"`
}

type DevFileConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type ServerConfig struct {
	HTTPBind    string `toml:"http_bind"`
	APIEndpoint string `toml:"api_endpoint"`
	MCPEndpoint string `toml:"mcp_endpoint"`
}

// IdentityConfig names the actor stamped on local mutations and the bearer-token secret.
type IdentityConfig struct {
	ActorID   string `toml:"actor_id"`
	JWTSecret string `toml:"jwt_secret"`
}

// CompletionConfig configures the optional text-completion backend.
// The API key is read from the named environment variable, never from the file.
type CompletionConfig struct {
	Model     string `toml:"model"`
	APIKeyEnv string `toml:"api_key_env"`
	Timeout   string `toml:"timeout"`
}

// APIKey resolves the completion key from the environment. Blank disables drafting.
func (c CompletionConfig) APIKey() string {
	name := strings.TrimSpace(c.APIKeyEnv)
	if name == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(name))
}

// TimeoutDuration parses Timeout, falling back to the default.
func (c CompletionConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(c.Timeout))
	if err != nil || d <= 0 {
		return DefaultCompletionTimeout
	}
	return d
}

func Default(dbPath string) Config {
	return Config{
		Database: DatabaseConfig{
			Path: dbPath,
		},
		Namespace: DefaultNamespace,
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileConfig{
				Enabled: true,
				Dir:     DefaultDevLogDir,
			},
		},
		Server: ServerConfig{
			HTTPBind:    "127.0.0.1:8080",
			APIEndpoint: "/api/v1",
			MCPEndpoint: "/mcp",
		},
		Completion: CompletionConfig{
			Model:     "gemini-2.0-flash",
			APIKeyEnv: "GEMINI_API_KEY",
			Timeout:   DefaultCompletionTimeout.String(),
		},
		Frequencies: []string{"Diario", "Semanal", "Mensual", "Trimestral", "Anual"},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// normalize trims free-text settings in place.
func (c *Config) normalize() {
	c.Database.Path = strings.TrimSpace(c.Database.Path)
	c.Namespace = strings.TrimSpace(c.Namespace)
	if c.Namespace == "" {
		c.Namespace = DefaultNamespace
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Identity.ActorID = strings.TrimSpace(c.Identity.ActorID)
	c.Identity.JWTSecret = strings.TrimSpace(c.Identity.JWTSecret)
	c.Keys.MoveAssetUp = strings.TrimSpace(c.Keys.MoveAssetUp)
	c.Keys.MoveAssetDown = strings.TrimSpace(c.Keys.MoveAssetDown)
	c.Keys.CopyReport = strings.TrimSpace(c.Keys.CopyReport)
	c.Keys.NextView = strings.TrimSpace(c.Keys.NextView)
	c.Keys.CycleCategory = strings.TrimSpace(c.Keys.CycleCategory)
	freqs := make([]string, 0, len(c.Frequencies))
	for _, f := range c.Frequencies {
		if f = strings.TrimSpace(f); f != "" {
			freqs = append(freqs, f)
		}
	}
	c.Frequencies = freqs
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database path is required")
	}
	if strings.ContainsAny(strings.TrimSpace(c.Namespace), "/\\") {
		return fmt.Errorf("invalid namespace: %q", c.Namespace)
	}
	if level := strings.TrimSpace(c.Logging.Level); level != "" {
		if _, err := charmLog.ParseLevel(level); err != nil {
			return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
		}
	}
	if raw := strings.TrimSpace(c.Completion.Timeout); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid completion.timeout: %q", c.Completion.Timeout)
		}
	}
	if secret := strings.TrimSpace(c.Identity.JWTSecret); secret != "" && len(secret) < 16 {
		return errors.New("identity.jwt_secret must be at least 16 characters")
	}
	seen := map[string]struct{}{}
	for i, f := range c.Frequencies {
		key := strings.ToLower(strings.TrimSpace(f))
		if key == "" {
			return fmt.Errorf("frequencies[%d] is empty", i)
		}
		if _, ok := seen[key]; ok {
			return fmt.Errorf("frequencies[%d] is duplicated: %s", i, f)
		}
		seen[key] = struct{}{}
	}
	return nil
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
