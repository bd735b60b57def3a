// Package config loads the acceptance run settings and the sandbox credentials.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Credential names the shop module and the sandbox buyer are configured with.
const (
	PayPalUsername        = "sOEPayPalUsername"
	PayPalPassword        = "sOEPayPalPassword"
	PayPalSignature       = "sOEPayPalSignature"
	SandboxUsername       = "sOEPayPalSandboxUsername"
	SandboxPassword       = "sOEPayPalSandboxPassword"
	SandboxSignature      = "sOEPayPalSandboxSignature"
	BuyerLogin            = "sBuyerLogin"
	BuyerPassword         = "sBuyerPassword"
	BuyerFirstName        = "sBuyerFirstName"
	BuyerUSLogin          = "sBuyerUSLogin"
	ShopLogin             = "sShopLogin"
	ShopPassword          = "sShopPassword"
	DefaultTestLogName    = "oepaypal_acceptance_log.txt"
	DefaultPaymentLogName = "oepaypal.log"
)

var ErrUndefined = errors.New("undefined variable")

// UndefinedError names a credential that is set neither in the environment
// nor in the config file.
type UndefinedError struct {
	Name string
}

func (e *UndefinedError) Error() string {
	return "Undefined variable: " + e.Name
}

func (e *UndefinedError) Is(target error) bool {
	return target == ErrUndefined
}

type BrowserConfig struct {
	Headless    bool          `yaml:"headless"`
	DevtoolsURL string        `yaml:"devtools_url"`
	UserDataDir string        `yaml:"user_data_dir"`
	Timeout     time.Duration `yaml:"timeout"`
}

type Config struct {
	ShopURL     string            `yaml:"shop_url"`
	LogDir      string            `yaml:"log_dir"`
	PaymentLog  string            `yaml:"payment_log"`
	RulesFile   string            `yaml:"rules_file"`
	Browser     BrowserConfig     `yaml:"browser"`
	Credentials map[string]string `yaml:"credentials"`
}

func DefaultConfig() *Config {
	return &Config{
		ShopURL:    "http://localhost",
		LogDir:     "log",
		PaymentLog: DefaultPaymentLogName,
		Browser: BrowserConfig{
			Headless:    true,
			UserDataDir: ".playwright_data",
			Timeout:     60 * time.Second,
		},
		Credentials: map[string]string{},
	}
}

// Load reads path over the defaults and applies environment overrides.
// A missing file is not an error: everything can come from the environment.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if cfg.Credentials == nil {
		cfg.Credentials = map[string]string{}
	}
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("PAYPAL_TRIAGE_SHOP_URL"); v != "" {
		c.ShopURL = v
	}
	if v := os.Getenv("PAYPAL_TRIAGE_LOG_DIR"); v != "" {
		c.LogDir = v
	}
	if v := os.Getenv("PAYPAL_TRIAGE_RULES"); v != "" {
		c.RulesFile = v
	}
	if v := os.Getenv("PAYPAL_TRIAGE_DEVTOOLS_URL"); v != "" {
		c.Browser.DevtoolsURL = v
	}
	if v := os.Getenv("PAYPAL_TRIAGE_HEADLESS"); v != "" {
		headless, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("PAYPAL_TRIAGE_HEADLESS: %w", err)
		}
		c.Browser.Headless = headless
	}
	return nil
}

// Credential looks name up in the environment first, then in the config file.
func (c *Config) Credential(name string) (string, error) {
	if v := os.Getenv(name); v != "" {
		return v, nil
	}
	if v := c.Credentials[name]; v != "" {
		return v, nil
	}
	return "", &UndefinedError{Name: name}
}

// MustCredentials resolves several names at once, reporting every missing one.
func (c *Config) MustCredentials(names ...string) (map[string]string, error) {
	out := make(map[string]string, len(names))
	var errs []error
	for _, name := range names {
		v, err := c.Credential(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out[name] = v
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}
