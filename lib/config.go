package lib

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"dorkmail/common"
	"dorkmail/pinning"
)

// EnvPrefix namespaces environment overrides, e.g. DORKMAIL_MAX_RESULTS.
const EnvPrefix = "DORKMAIL"

// ErrMissingDomain is returned when no target domain was configured.
var ErrMissingDomain = errors.New("target domain is required")

// Configuration is the settings of one harvesting run.
type Configuration struct {
	Domain       string        `mapstructure:"domain"`
	MaxResults   int           `mapstructure:"max_results"`
	OutputFolder string        `mapstructure:"output_folder"`
	ProxyFile    string        `mapstructure:"proxy_file"`
	Engine       string        `mapstructure:"engine"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MinDelay     time.Duration `mapstructure:"min_delay"`
	MaxDelay     time.Duration `mapstructure:"max_delay"`

	// NoPin disables certificate pinning altogether.
	NoPin bool `mapstructure:"no_pin"`
	// Pin is the expected SPKI fingerprint of the target. When empty the
	// fingerprint is taken from a first handshake.
	Pin string `mapstructure:"pin"`

	Pretty      bool   `mapstructure:"pretty"`
	KeepHistory bool   `mapstructure:"keep_history"`
	LogFile     string `mapstructure:"log_file"`
	Debug       bool   `mapstructure:"debug"`
}

// Defaults holds the value of every setting left unconfigured.
var Defaults = Configuration{
	MaxResults:   30,
	OutputFolder: "downloaded_pages",
	Engine:       "google",
	Timeout:      10 * time.Second,
	MinDelay:     time.Second,
	MaxDelay:     3 * time.Second,
	LogFile:      "dorkmail.log",
}

// SetDefaults registers Defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("domain", "")
	v.SetDefault("max_results", Defaults.MaxResults)
	v.SetDefault("output_folder", Defaults.OutputFolder)
	v.SetDefault("proxy_file", "")
	v.SetDefault("engine", Defaults.Engine)
	v.SetDefault("timeout", Defaults.Timeout)
	v.SetDefault("min_delay", Defaults.MinDelay)
	v.SetDefault("max_delay", Defaults.MaxDelay)
	v.SetDefault("no_pin", false)
	v.SetDefault("pin", "")
	v.SetDefault("pretty", false)
	v.SetDefault("keep_history", false)
	v.SetDefault("log_file", Defaults.LogFile)
	v.SetDefault("debug", false)
}

// NewViper returns a viper instance with defaults and DORKMAIL_* environment
// overrides.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// ReadConfigFile reads path, or ./dorkmail.yaml when path is empty. A missing
// default file is not an error.
func ReadConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("dorkmail")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Load decodes v into a validated Configuration.
func Load(v *viper.Viper) (*Configuration, error) {
	cfg := &Configuration{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration and normalizes the domain and pin.
func (c *Configuration) Validate() error {
	c.Domain = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(c.Domain), "."))
	if c.Domain == "" {
		return ErrMissingDomain
	}
	if strings.ContainsAny(c.Domain, "/:@ ") {
		return fmt.Errorf("domain %q must be a bare host name", c.Domain)
	}
	if c.MaxResults < 1 {
		return fmt.Errorf("max results must be positive, got %d", c.MaxResults)
	}
	if c.OutputFolder == "" {
		return errors.New("output folder is required")
	}
	if _, err := common.NewSearchEngine(c.Engine); err != nil {
		return err
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.MinDelay < 0 || c.MaxDelay < c.MinDelay {
		return fmt.Errorf("invalid delay range [%s, %s]", c.MinDelay, c.MaxDelay)
	}

	if c.Pin != "" {
		if c.NoPin {
			return errors.New("a pin cannot be combined with pinning disabled")
		}
		pin, err := pinning.NormalizeFingerprint(c.Pin)
		if err != nil {
			return err
		}
		c.Pin = pin
	}
	return nil
}
