// Package config loads cuneiset settings from defaults, a YAML file and
// CUNEISET_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"github.com/julianknutsen/cuneiset/internal/oracc"
	"github.com/julianknutsen/cuneiset/internal/xdg"
)

// EnvPrefix prefixes every environment override, e.g. CUNEISET_OUTPUT_DIR.
const EnvPrefix = "CUNEISET"

var (
	// ErrInvalid indicates a configuration that failed validation.
	ErrInvalid = errors.New("invalid configuration")
	// ErrUnknownKey indicates a dotted key that names no setting.
	ErrUnknownKey = errors.New("unknown config key")
)

// Config is the complete cuneiset configuration.
type Config struct {
	OutputDir         string        `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
	CacheDir          string        `yaml:"cache_dir" envconfig:"CACHE_DIR" validate:"required"`
	Corpora           []string      `yaml:"corpora" envconfig:"CORPORA" validate:"dive,corpus"`
	OraccBaseURL      string        `yaml:"oracc_base_url" envconfig:"ORACC_BASE_URL" validate:"required,url"`
	SignListURL       string        `yaml:"sign_list_url" envconfig:"SIGN_LIST_URL" validate:"required,url"`
	SignListPath      string        `yaml:"sign_list_path" envconfig:"SIGN_LIST_PATH"`
	EPSD2SignListPath string        `yaml:"epsd2_sign_list_path" envconfig:"EPSD2_SIGN_LIST_PATH"`
	DownloadTimeout   time.Duration `yaml:"download_timeout" envconfig:"DOWNLOAD_TIMEOUT" validate:"gt=0"`
	DownloadWorkers   int           `yaml:"download_workers" envconfig:"DOWNLOAD_WORKERS" validate:"min=1,max=16"`
	LoadWorkers       int           `yaml:"load_workers" envconfig:"LOAD_WORKERS" validate:"min=1,max=64"`
	SentryDSN         string        `yaml:"sentry_dsn" envconfig:"SENTRY_DSN" validate:"omitempty,url"`
	MetricsFile       string        `yaml:"metrics_file" envconfig:"METRICS_FILE"`

	Split   SplitConfig   `yaml:"split" envconfig:"SPLIT"`
	Log     LogConfig     `yaml:"log" envconfig:"LOG"`
	Serve   ServeConfig   `yaml:"serve" envconfig:"SERVE"`
	Publish PublishConfig `yaml:"publish" envconfig:"PUBLISH"`
}

// SplitConfig controls the train/validation/test split.
type SplitConfig struct {
	TestFraction    float64  `yaml:"test_fraction" envconfig:"TEST_FRACTION" validate:"gt=0,lt=1"`
	ValFraction     float64  `yaml:"val_fraction" envconfig:"VAL_FRACTION" validate:"gt=0,lt=1"`
	Seed            int64    `yaml:"seed" envconfig:"SEED"`
	TrainOnlyGenres []string `yaml:"train_only_genres" envconfig:"TRAIN_ONLY_GENRES"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" envconfig:"FORMAT" validate:"oneof=text json"`
}

// ServeConfig controls the glyph lookup HTTP API.
type ServeConfig struct {
	Addr            string        `yaml:"addr" envconfig:"ADDR" validate:"required"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
}

// PublishConfig names where final dataset files are uploaded.
type PublishConfig struct {
	Bucket   string `yaml:"bucket" envconfig:"BUCKET"`
	Prefix   string `yaml:"prefix" envconfig:"PREFIX"`
	Region   string `yaml:"region" envconfig:"REGION" validate:"required"`
	Endpoint string `yaml:"endpoint" envconfig:"ENDPOINT" validate:"omitempty,url"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		OutputDir:       "outputs",
		CacheDir:        xdg.CacheDir(),
		OraccBaseURL:    oracc.DefaultBaseURL,
		SignListURL:     oracc.DefaultSignListURL,
		DownloadTimeout: 240 * time.Second,
		DownloadWorkers: 4,
		LoadWorkers:     8,
		Split: SplitConfig{
			TestFraction:    0.05,
			ValFraction:     0.05,
			Seed:            42,
			TrainOnlyGenres: []string{"Lexical"},
		},
		Log:     LogConfig{Level: "info", Format: "text"},
		Serve:   ServeConfig{Addr: ":8999", ShutdownTimeout: 10 * time.Second},
		Publish: PublishConfig{Prefix: "cuneiset", Region: "us-east-1"},
	}
}

// DefaultPath returns the config file location under the XDG config dir.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigDir(), "config.yaml")
}

// Load builds a Config from defaults, the YAML file at path and the
// environment. An empty path means DefaultPath, which may be absent; an
// explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.UnmarshalStrict(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("loading config from env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg as YAML to path, creating parent directories.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// SignListFile returns where the OSL sign list is read from.
func (c *Config) SignListFile() string {
	if c.SignListPath != "" {
		return c.SignListPath
	}
	return filepath.Join(c.CacheDir, "osl.json")
}

// EPSD2SignListFile returns where the optional ePSD2 sign-list index is read from.
func (c *Config) EPSD2SignListFile() string {
	if c.EPSD2SignListPath != "" {
		return c.EPSD2SignListPath
	}
	return filepath.Join(c.CacheDir, "epsd2-sl.json")
}

// MetricsPath returns where batch runs write their metrics textfile.
func (c *Config) MetricsPath() string {
	if c.MetricsFile != "" {
		return c.MetricsFile
	}
	return filepath.Join(c.OutputDir, "cuneiset.prom")
}

// SelectedCorpora returns the configured corpora, or all of them.
func (c *Config) SelectedCorpora() ([]oracc.Corpus, error) {
	return oracc.ParseCorpora(c.Corpora)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("corpus", func(fl validator.FieldLevel) bool {
		_, err := oracc.ParseCorpus(fl.Field().String())
		return err == nil
	})
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		return name
	})
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		s := sl.Current().Interface().(SplitConfig)
		if s.TestFraction+s.ValFraction >= 1 {
			sl.ReportError(s.ValFraction, "val_fraction", "ValFraction", "fractionsum", "")
		}
	}, SplitConfig{})
	return v
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		problems = append(problems, describe(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
}

func describe(fe validator.FieldError) string {
	key := dottedKey(fe.Namespace())
	switch fe.Tag() {
	case "required":
		return key + " is required"
	case "corpus":
		return fmt.Sprintf("%s: unknown corpus %q", key, fe.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", key, fe.Param(), fe.Value())
	case "fractionsum":
		return "split.test_fraction + split.val_fraction must be below 1"
	case "url":
		return fmt.Sprintf("%s must be a URL, got %q", key, fe.Value())
	default:
		return fmt.Sprintf("%s failed %s=%s (got %v)", key, fe.Tag(), fe.Param(), fe.Value())
	}
}

// dottedKey turns a validator namespace like "Config.split.test_fraction"
// or "Config.corpora[2]" into a config key.
func dottedKey(ns string) string {
	_, rest, ok := strings.Cut(ns, ".")
	if !ok {
		return ns
	}
	return rest
}

// Keys lists every settable dotted key, sorted.
func Keys() []string {
	var keys []string
	walkFields(reflect.TypeOf(Config{}), "", func(key string, _ []int) {
		keys = append(keys, key)
	})
	sort.Strings(keys)
	return keys
}

func walkFields(t reflect.Type, prefix string, fn func(key string, index []int)) {
	var walk func(t reflect.Type, prefix string, index []int)
	walk = func(t reflect.Type, prefix string, index []int) {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
			if name == "" || name == "-" {
				continue
			}
			idx := append(append([]int{}, index...), i)
			if f.Type.Kind() == reflect.Struct && f.Type != reflect.TypeOf(time.Duration(0)) {
				walk(f.Type, prefix+name+".", idx)
				continue
			}
			fn(prefix+name, idx)
		}
	}
	walk(t, prefix, nil)
}

func (c *Config) field(key string) (reflect.Value, error) {
	var found []int
	walkFields(reflect.TypeOf(*c), "", func(k string, index []int) {
		if k == key {
			found = index
		}
	})
	if found == nil {
		return reflect.Value{}, fmt.Errorf("%w %q", ErrUnknownKey, key)
	}
	return reflect.ValueOf(c).Elem().FieldByIndex(found), nil
}

// Get returns the value of a dotted key formatted for display.
func (c *Config) Get(key string) (string, error) {
	v, err := c.field(key)
	if err != nil {
		return "", err
	}
	switch x := v.Interface().(type) {
	case time.Duration:
		return x.String(), nil
	case []string:
		return strings.Join(x, ","), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	default:
		return fmt.Sprint(x), nil
	}
}

// Set parses value into the setting named by a dotted key. Lists are
// comma-separated. The result is not validated.
func (c *Config) Set(key, value string) error {
	v, err := c.field(key)
	if err != nil {
		return err
	}
	if v.Type() == reflect.TypeOf(time.Duration(0)) {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		v.SetInt(int64(d))
		return nil
	}
	switch v.Kind() {
	case reflect.String:
		v.SetString(value)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		v.SetInt(n)
	case reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		v.SetFloat(f)
	case reflect.Slice:
		var items []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		v.Set(reflect.ValueOf(items))
	default:
		return fmt.Errorf("%s: unsupported type %s", key, v.Type())
	}
	return nil
}
