// Package config loads the settings that select a backing store and bind an
// encrypted preferences namespace.
//
// Sources are applied in order, later ones winning: built-in defaults, a
// YAML file, a .env file, then AESPREFS_* environment variables. Variables
// already set in the environment are never overwritten by the .env file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "AESPREFS_"

// Config selects a backing store and binds a namespace.
type Config struct {
	Namespace     string `yaml:"namespace" validate:"required,max=256"`
	Password      string `yaml:"password" validate:"required"`
	Backend       string `yaml:"backend" validate:"required,oneof=sqlite bolt memory"`
	Path          string `yaml:"path" validate:"required_unless=Backend memory"`
	LogMode       string `yaml:"log_mode" validate:"omitempty,oneof=none default get set all"`
	IVSource      string `yaml:"iv_source" validate:"required,oneof=time random"`
	KDF           string `yaml:"kdf" validate:"required,oneof=sha256 pbkdf2"`
	NormalizeKeys bool   `yaml:"normalize_keys"`
}

// LoadOptions names the files Load reads. Empty names are skipped, except
// that an empty EnvFile falls back to an optional ".env" in the working
// directory.
type LoadOptions struct {
	File    string
	EnvFile string
}

// Use a single instance of Validate, it caches struct info
var validate = validator.New()

// Default returns the built-in defaults. Namespace and Password have none.
func Default() Config {
	return Config{
		Backend:  "sqlite",
		Path:     DefaultPath(),
		LogMode:  "default",
		IVSource: "time",
		KDF:      "sha256",
	}
}

// DefaultPath is the SQLite file used when no path is configured.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "aesprefs.db"
	}
	return filepath.Join(dir, "aesprefs", "prefs.db")
}

// Load builds a Config from defaults, files and environment, then validates
// it.
func Load(opts LoadOptions) (*Config, error) {
	cfg := Default()

	if opts.File != "" {
		data, err := os.ReadFile(opts.File)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := decodeYAML(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", opts.File, err)
		}
	}

	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// decodeYAML rejects unknown fields so a misspelt key is not silently
// ignored. An empty document leaves cfg unchanged.
func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"NAMESPACE": &c.Namespace,
		"PASSWORD":  &c.Password,
		"BACKEND":   &c.Backend,
		"PATH":      &c.Path,
		"LOG_MODE":  &c.LogMode,
		"IV_SOURCE": &c.IVSource,
		"KDF":       &c.KDF,
	}
	for name, dst := range strs {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			*dst = v
		}
	}

	if v, ok := os.LookupEnv(EnvPrefix + "NORMALIZE_KEYS"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sNORMALIZE_KEYS: %w", EnvPrefix, err)
		}
		c.NormalizeKeys = b
	}
	return nil
}

// Validate checks every field and reports all violations at once.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required", "required_unless":
			msgs = append(msgs, fmt.Sprintf("%s is required", fieldName(fe)))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s], got %q", fieldName(fe), fe.Param(), fe.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fieldName(fe), fe.Tag(), fe.Param()))
		}
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// fieldName returns the YAML name of the failing field.
func fieldName(fe validator.FieldError) string {
	f, ok := configFields[fe.StructField()]
	if !ok {
		return fe.Field()
	}
	return f
}

var configFields = map[string]string{
	"Namespace":     "namespace",
	"Password":      "password",
	"Backend":       "backend",
	"Path":          "path",
	"LogMode":       "log_mode",
	"IVSource":      "iv_source",
	"KDF":           "kdf",
	"NormalizeKeys": "normalize_keys",
}
