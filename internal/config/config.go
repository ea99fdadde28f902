// Package config loads the clinvoice TOML configuration: contract terms,
// issuer/client details passed through to templates, generator profiles,
// and the sequence index location.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"

	"github.com/xolan/clinvoice/internal/invoice"
)

const (
	// AppName is the application name used for the user config directory.
	AppName = "clinvoice"
	// ConfigFile is the configuration file name.
	ConfigFile = "clinvoice.toml"
	// DefaultIndexFile is the sequence index file name, relative to the
	// timesheet directory unless overridden.
	DefaultIndexFile = "clinvoice.index"
)

// ErrNotFound indicates no configuration file exists in any searched
// location.
var ErrNotFound = errors.New("no configuration file found")

// rawConfig mirrors the TOML document.
type rawConfig struct {
	IndexFile string                `toml:"index_file"`
	Contract  rawContract           `toml:"contract"`
	Issuer    map[string]string     `toml:"issuer"`
	Client    map[string]string     `toml:"client"`
	Generator map[string]*Generator `toml:"generator"`
}

type rawContract struct {
	HourlyRate         float64       `toml:"hourly_rate"`
	PaymentDays        int           `toml:"payment_days"`
	CapHoursPerDay     *float64      `toml:"cap_hours_per_day"`
	CapHoursPerInvoice *float64      `toml:"cap_hours_per_invoice"`
	Discounts          []rawDiscount `toml:"discounts"`
	Notes              []string      `toml:"notes"`
	Tax                *rawTax       `toml:"tax"`
}

type rawDiscount struct {
	Text string  `toml:"text"`
	Cost float64 `toml:"cost"`
}

type rawTax struct {
	Name    string  `toml:"name"`
	Percent float64 `toml:"percent"`
}

// Generator is one output profile: a template, an escaping mode for text
// values, and an optional external build command run on the rendered file.
type Generator struct {
	Template     string   `toml:"template"`
	Escape       string   `toml:"escape"` // latex, markdown, or none
	BuildCommand []string `toml:"build_command"`
}

// Config is the loaded and validated application configuration.
type Config struct {
	Path      string
	IndexFile string
	Contract  invoice.Contract
	Issuer    map[string]string
	Client    map[string]string
	Generator map[string]*Generator
}

// Load reads and validates the configuration at the given path.
func Load(path string) (*Config, error) {
	var raw rawConfig
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	contract := invoice.Contract{
		HourlyRate:  decimal.NewFromFloat(raw.Contract.HourlyRate),
		PaymentDays: raw.Contract.PaymentDays,
	}
	if raw.Contract.CapHoursPerDay != nil {
		capDay := decimal.NewFromFloat(*raw.Contract.CapHoursPerDay)
		if !capDay.IsPositive() {
			return nil, fmt.Errorf("%w: cap_hours_per_day must be positive, got %s", invoice.ErrContract, capDay)
		}
		contract.CapHoursPerDay = capDay
	}
	if raw.Contract.CapHoursPerInvoice != nil {
		capInvoice := decimal.NewFromFloat(*raw.Contract.CapHoursPerInvoice)
		if !capInvoice.IsPositive() {
			return nil, fmt.Errorf("%w: cap_hours_per_invoice must be positive, got %s", invoice.ErrContract, capInvoice)
		}
		contract.CapHoursPerInvoice = capInvoice
	}
	for _, d := range raw.Contract.Discounts {
		contract.Discounts = append(contract.Discounts, invoice.Discount{
			Text: d.Text,
			Cost: decimal.NewFromFloat(d.Cost),
		})
	}
	contract.Notes = raw.Contract.Notes
	if raw.Contract.Tax != nil {
		contract.Tax = &invoice.Tax{
			Name:    raw.Contract.Tax.Name,
			Percent: decimal.NewFromFloat(raw.Contract.Tax.Percent),
		}
	}
	if err := contract.Validate(); err != nil {
		return nil, err
	}

	cfg := &Config{
		Path:      path,
		IndexFile: raw.IndexFile,
		Contract:  contract,
		Issuer:    raw.Issuer,
		Client:    raw.Client,
		Generator: raw.Generator,
	}
	for name, gen := range cfg.Generator {
		if gen.Template == "" {
			return nil, fmt.Errorf("generator %q: template is required", name)
		}
		switch gen.Escape {
		case "", "none", "latex", "markdown":
		default:
			return nil, fmt.Errorf("generator %q: unknown escape mode %q", name, gen.Escape)
		}
	}
	return cfg, nil
}

// Find locates the configuration file. Search order: the explicit path if
// given, then the timesheet directory, the working directory, and the user
// config directory.
func Find(explicit, directory string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file %s: %w", explicit, err)
		}
		return explicit, nil
	}

	candidates := []string{}
	if directory != "" {
		candidates = append(candidates, filepath.Join(directory, ConfigFile))
	}
	candidates = append(candidates, ConfigFile)
	if configDir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(configDir, AppName, ConfigFile))
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w (searched %d locations)", ErrNotFound, len(candidates))
}

// IndexPath resolves the sequence index location: the configured
// index_file if set, otherwise DefaultIndexFile inside the timesheet
// directory.
func (c *Config) IndexPath(directory string) string {
	if c.IndexFile != "" {
		return c.IndexFile
	}
	return filepath.Join(directory, DefaultIndexFile)
}

// Passthrough flattens the issuer and client tables into
// underscore-separated keys for the template context
// (e.g. issuer_name, client_address).
func (c *Config) Passthrough() map[string]string {
	flat := make(map[string]string, len(c.Issuer)+len(c.Client))
	for key, value := range c.Issuer {
		flat["issuer_"+key] = value
	}
	for key, value := range c.Client {
		flat["client_"+key] = value
	}
	return flat
}
