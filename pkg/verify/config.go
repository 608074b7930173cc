package verify

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/azhovan/rangeprobe/pkg/client"
	"gopkg.in/yaml.v3"
)

var ErrNoScenarios = errors.New("no scenarios configured")

// Scenario is one labelled byte window compared across both streaming modes.
// An empty Range sends no Range header at all.
type Scenario struct {
	Label string `json:"label" yaml:"label"`
	Range string `json:"range" yaml:"range"`
}

// DefaultScenarios returns the canonical scenario set: the full body, an
// offset inside the first chunk a streaming encoder emits, and an offset far
// enough in that a live encoder may still be catching up.
func DefaultScenarios() []Scenario {
	return []Scenario{
		{Label: "full body", Range: "bytes=0-"},
		{Label: "mid-file offset", Range: "bytes=32768-"},
		{Label: "far offset", Range: "bytes=32800768-"},
	}
}

// Config describes one verification run.
type Config struct {
	// BaseURL is the media server endpoint, e.g. http://localhost:34455.
	BaseURL string `yaml:"base_url"`

	// Resource is the server-side identifier sent as media_file, usually an absolute path.
	Resource string `yaml:"resource"`

	// Scenarios are run in order.
	Scenarios []Scenario `yaml:"scenarios"`

	// WindowSize is the leading/trailing window digested separately.
	WindowSize int `yaml:"window_size"`

	// Timeout bounds each request, body included. Zero means client.DefaultTimeout.
	Timeout time.Duration `yaml:"timeout"`

	// RequestsPerSecond paces requests; zero disables pacing.
	RequestsPerSecond float64 `yaml:"requests_per_second"`

	// MaxBodySize caps each body; zero means unlimited. Guards against live
	// streams that never end.
	MaxBodySize int64 `yaml:"max_body_size"`
}

// DefaultConfig returns a Config with the default scenarios, window and timeout.
// BaseURL and Resource still have to be set.
func DefaultConfig() Config {
	return Config{
		Scenarios:  DefaultScenarios(),
		WindowSize: DefaultWindowSize,
		Timeout:    client.DefaultTimeout,
	}
}

// LoadConfig reads a YAML config file. Fields absent from the file keep
// their DefaultConfig values; a scenarios list in the file replaces the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(b, &fileCfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.Merge(fileCfg)
	return cfg, nil
}

// Merge copies every non-zero field of other into c.
func (c *Config) Merge(other Config) {
	if other.BaseURL != "" {
		c.BaseURL = other.BaseURL
	}
	if other.Resource != "" {
		c.Resource = other.Resource
	}
	if len(other.Scenarios) > 0 {
		c.Scenarios = other.Scenarios
	}
	if other.WindowSize != 0 {
		c.WindowSize = other.WindowSize
	}
	if other.Timeout != 0 {
		c.Timeout = other.Timeout
	}
	if other.RequestsPerSecond != 0 {
		c.RequestsPerSecond = other.RequestsPerSecond
	}
	if other.MaxBodySize != 0 {
		c.MaxBodySize = other.MaxBodySize
	}
}

// Validate checks the config before any request is sent.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return &InvalidParamError{param: "BaseURL", message: "must not be empty"}
	}
	if c.Resource == "" {
		return &InvalidParamError{param: "Resource", message: "must not be empty"}
	}
	if c.WindowSize < 0 {
		return &InvalidParamError{param: "WindowSize", message: "must be greater or equal to zero"}
	}
	if c.Timeout < 0 {
		return &InvalidParamError{param: "Timeout", message: "must be greater or equal to zero"}
	}
	if c.RequestsPerSecond < 0 || c.MaxBodySize < 0 {
		return &InvalidParamError{param: "RequestsPerSecond, MaxBodySize", message: "only non-negative values are accepted"}
	}
	if len(c.Scenarios) == 0 {
		return ErrNoScenarios
	}

	seen := make(map[string]struct{}, len(c.Scenarios))
	for i, sc := range c.Scenarios {
		if sc.Label == "" {
			return &InvalidParamError{param: fmt.Sprintf("Scenarios[%d].Label", i), message: "must not be empty"}
		}
		if _, dup := seen[sc.Label]; dup {
			return &InvalidParamError{param: fmt.Sprintf("Scenarios[%d].Label", i), message: fmt.Sprintf("duplicate label %q", sc.Label)}
		}
		seen[sc.Label] = struct{}{}

		if sc.Range == "" {
			continue
		}
		if _, err := ParseRange(sc.Range); err != nil {
			return fmt.Errorf("scenario %q: %w", sc.Label, err)
		}
	}

	return nil
}

// InvalidParamError indicates an invalid configuration parameter.
type InvalidParamError struct {
	param, message string
}

func (e *InvalidParamError) Error() string {
	return fmt.Sprintf("param:%s, given:%s", e.param, e.message)
}
