package config

import (
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/markup"
	"github.com/vango-dev/vtree/pkg/render"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "vtree.json"

	// DefaultPort is the default server port.
	DefaultPort = 3000

	// DefaultHost is the default server host.
	DefaultHost = "localhost"

	// DefaultTemplateDir is the default template directory.
	DefaultTemplateDir = "templates"
)

// Config represents the complete vtree.json configuration.
type Config struct {
	Templates TemplatesConfig `json:"templates,omitempty"`
	Render    RenderConfig    `json:"render,omitempty"`
	Server    ServerConfig    `json:"server,omitempty"`
	Metrics   MetricsConfig   `json:"metrics,omitempty"`
	S3        S3Config        `json:"s3,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// TemplatesConfig controls where templates come from and how they are
// built.
type TemplatesConfig struct {
	// Dir is the template directory, relative to the config file.
	Dir string `json:"dir,omitempty"`

	// Text is the whitespace policy: collapse, trim or preserve.
	Text string `json:"text,omitempty" validate:"omitempty,oneof=collapse trim preserve"`

	// NormalizeUnicode applies NFC normalization to text.
	NormalizeUnicode bool `json:"normalizeUnicode,omitempty"`

	// CheckInvariants validates every resolved tree (debug aid).
	CheckInvariants bool `json:"checkInvariants,omitempty"`
}

// RenderConfig controls HTML output.
type RenderConfig struct {
	Pretty bool   `json:"pretty,omitempty"`
	Indent string `json:"indent,omitempty"`
	Minify bool   `json:"minify,omitempty"`
}

// ServerConfig configures `vtree serve`.
type ServerConfig struct {
	Host string `json:"host,omitempty" validate:"required"`
	Port int    `json:"port,omitempty" validate:"min=1,max=65535"`

	// Path is the websocket endpoint.
	Path string `json:"path,omitempty" validate:"startswith=/"`

	// WriteTimeout bounds each websocket write, e.g. "10s".
	WriteTimeout string `json:"writeTimeout,omitempty" validate:"omitempty,duration"`

	// MaxMessageSize bounds inbound websocket messages in bytes.
	MaxMessageSize int64 `json:"maxMessageSize,omitempty" validate:"min=0"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled,omitempty"`
	Namespace string `json:"namespace,omitempty" validate:"omitempty,metricname"`
	Path      string `json:"path,omitempty" validate:"startswith=/"`
}

// S3Config selects an S3 template source.
type S3Config struct {
	Bucket string `json:"bucket,omitempty"`
	Prefix string `json:"prefix,omitempty"`
	Region string `json:"region,omitempty" validate:"required_with=Bucket"`
}

// New creates a new Config with default values.
func New() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from the specified directory.
// It looks for vtree.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadOrDefault is Load returning defaults when no vtree.json exists.
func LoadOrDefault(dir string) (*Config, error) {
	cfg, err := Load(dir)
	if errors.HasCode(err, "E121") {
		cfg = New()
		cfg.configPath = filepath.Join(dir, ConfigFileName)
		return cfg, nil
	}
	return cfg, err
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E121").
				WithDetail("No vtree.json found in " + filepath.Dir(path)).
				WithSuggestion("Create vtree.json or run without one to use the defaults")
		}
		return nil, errors.New("E120").Wrap(err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E120").
			WithDetail("Failed to parse vtree.json: " + err.Error()).
			WithSuggestion("Check that vtree.json is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E120").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E120").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Templates.Dir == "" {
		c.Templates.Dir = DefaultTemplateDir
	}
	if c.Templates.Text == "" {
		c.Templates.Text = markup.TextCollapse.String()
	}
	if c.Render.Indent == "" {
		c.Render.Indent = "  "
	}

	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.Path == "" {
		c.Server.Path = "/live"
	}
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = "10s"
	}
	if c.Server.MaxMessageSize == 0 {
		c.Server.MaxMessageSize = 64 * 1024
	}

	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "vtree"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
		d, err := time.ParseDuration(fl.Field().String())
		return err == nil && d > 0
	})
	_ = v.RegisterValidation("metricname", func(fl validator.FieldLevel) bool {
		return metricName.MatchString(fl.Field().String())
	})
	return v
}

var metricName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Validate checks if the configuration is valid. All failing fields are
// listed in the error detail.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.New("E122").Wrap(err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return errors.New("E122").WithDetail(strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required", "required_with":
		return field + " is required"
	case "min":
		return field + " must be at least " + fe.Param()
	case "max":
		return field + " must be at most " + fe.Param()
	case "oneof":
		return field + " must be one of: " + fe.Param()
	case "startswith":
		return field + " must start with " + strconv.Quote(fe.Param())
	case "metricname":
		return field + " must be a valid Prometheus name"
	case "duration":
		return field + " must be a positive duration such as \"10s\""
	default:
		return field + " is invalid"
	}
}

// TemplatePath returns the absolute path to the template directory.
func (c *Config) TemplatePath() string {
	if filepath.IsAbs(c.Templates.Dir) {
		return c.Templates.Dir
	}
	return filepath.Join(c.Dir(), c.Templates.Dir)
}

// BuildOptions returns the markup options for the configured policy.
func (c *Config) BuildOptions(file string) markup.Options {
	policy, _ := markup.ParseTextPolicy(c.Templates.Text)
	return markup.Options{
		File:             file,
		Text:             policy,
		NormalizeUnicode: c.Templates.NormalizeUnicode,
	}
}

// RenderOptions returns the HTML renderer options.
func (c *Config) RenderOptions() render.Options {
	return render.Options{
		Pretty: c.Render.Pretty,
		Indent: c.Render.Indent,
		Minify: c.Render.Minify,
	}
}

// Address returns the host:port the server listens on.
func (c *Config) Address() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// WriteTimeout returns the parsed websocket write timeout.
func (c *Config) WriteTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.WriteTimeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// UsesS3 reports whether templates come from S3.
func (c *Config) UsesS3() bool {
	return c.S3.Bucket != ""
}
