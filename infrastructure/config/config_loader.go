package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/carlosrabelo/voicevlan/domain/entities"
	"github.com/carlosrabelo/voicevlan/infrastructure/logging"
	"github.com/carlosrabelo/voicevlan/infrastructure/storage"
	"github.com/carlosrabelo/voicevlan/infrastructure/template"
)

// FileName is the configuration file looked up on the search path
const FileName = "config.yaml"

// Config defines the global configuration. Switch entries inherit every
// empty field from the global values.
type Config struct {
	Platform       string                  `yaml:"platform"`
	Transport      string                  `yaml:"transport"`
	Username       string                  `yaml:"username"`
	Password       string                  `yaml:"password"`
	EnablePassword string                  `yaml:"enable_password"`
	Template       string                  `yaml:"template"`
	OutputDir      string                  `yaml:"output_dir"`
	OldVoiceVlan   string                  `yaml:"old_voice_vlan"`
	NewVoiceVlan   string                  `yaml:"new_voice_vlan"`
	MatchMode      entities.MatchMode      `yaml:"match_mode"`
	Timeout        time.Duration           `yaml:"timeout"`
	Workers        int                     `yaml:"workers"`
	Identity       string                  `yaml:"identity"`
	SnmpCommunity  string                  `yaml:"snmp_community"`
	Switches       []entities.SwitchConfig `yaml:"switches"`

	// Path is the file the configuration was read from, empty when none was found
	Path      string `yaml:"-"`
	Verbosity int    `yaml:"-"`
}

// Overrides holds values given on the command line. Non-zero fields replace
// both the global and the per-switch file values.
type Overrides struct {
	Transport    string
	OldVoiceVlan string
	NewVoiceVlan string
	MatchMode    string
	Template     string
	OutputDir    string
	Timeout      time.Duration
	Workers      int
}

// SearchPaths lists where Load looks for a configuration when no path is given
func SearchPaths() []string {
	paths := []string{FileName}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "voicevlan", FileName))
	}
	return append(paths, filepath.Join("/etc", "voicevlan", FileName))
}

// Load reads and validates the configuration at path. With an empty path the
// search path is tried in order; finding nothing yields the defaults.
func Load(path string) (*Config, error) {
	if path != "" {
		return loadFile(path)
	}
	for _, candidate := range SearchPaths() {
		cfg, err := loadFile(candidate)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return cfg, err
	}
	logging.Logger.Debug("No configuration file found, using defaults")
	cfg := &Config{}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read YAML file %s: %w", path, err)
	}
	cfg, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Path = path
	logging.Logger.Debugf("Loaded configuration from %s", path)
	return cfg, nil
}

// Parse decodes a YAML document, rejecting unknown keys, and validates it
func Parse(r io.Reader) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyOverrides replaces file values with command line values and
// revalidates the result
func (c *Config) ApplyOverrides(o Overrides) error {
	if o.Transport != "" {
		c.Transport = o.Transport
	}
	if o.OldVoiceVlan != "" {
		c.OldVoiceVlan = o.OldVoiceVlan
	}
	if o.NewVoiceVlan != "" {
		c.NewVoiceVlan = o.NewVoiceVlan
	}
	if o.MatchMode != "" {
		c.MatchMode = entities.MatchMode(o.MatchMode)
	}
	if o.Template != "" {
		c.Template = o.Template
	}
	if o.OutputDir != "" {
		c.OutputDir = o.OutputDir
	}
	if o.Timeout != 0 {
		c.Timeout = o.Timeout
	}
	if o.Workers != 0 {
		c.Workers = o.Workers
	}
	for i := range c.Switches {
		sw := &c.Switches[i]
		if o.Transport != "" {
			sw.Transport = ""
		}
		if o.OldVoiceVlan != "" {
			sw.OldVoiceVlan = ""
		}
		if o.NewVoiceVlan != "" {
			sw.NewVoiceVlan = ""
		}
		if o.MatchMode != "" {
			sw.MatchMode = ""
		}
		if o.Timeout != 0 {
			sw.Timeout = 0
		}
	}
	return c.Normalize()
}

// Normalize fills defaults and validates the global and per-switch values.
// It is safe to call more than once.
func (c *Config) Normalize() error {
	var err error
	if c.Platform, err = normalizePlatform(c.Platform); err != nil {
		return err
	}
	if c.Transport, err = normalizeTransport(c.Transport); err != nil {
		return err
	}
	if c.MatchMode, err = entities.ParseMatchMode(string(c.MatchMode)); err != nil {
		return err
	}
	if c.Identity, err = normalizeIdentity(c.Identity); err != nil {
		return err
	}
	if c.EnablePassword == "" {
		c.EnablePassword = c.Password
	}
	if c.Template == "" {
		c.Template = template.DefaultPath
	}
	if c.OutputDir == "" {
		c.OutputDir = storage.DefaultDir
	}
	if c.Workers == 0 {
		c.Workers = 1
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.Identity == "snmp" && c.SnmpCommunity == "" {
		return fmt.Errorf("identity snmp requires snmp_community")
	}
	if err := validateVlans(c.OldVoiceVlan, c.NewVoiceVlan, "global"); err != nil {
		return err
	}

	seen := make(map[string]int, len(c.Switches))
	for i, sw := range c.Switches {
		sw.Target = strings.TrimSpace(sw.Target)
		if sw.Target == "" {
			return fmt.Errorf("target is required for switch %d", i)
		}
		if prev, dup := seen[sw.Target]; dup {
			return fmt.Errorf("switch %d repeats target %s of switch %d", i, sw.Target, prev)
		}
		seen[sw.Target] = i
		if sw.Platform != "" {
			if sw.Platform, err = normalizePlatform(sw.Platform); err != nil {
				return fmt.Errorf("invalid platform for switch %s: %w", sw.Target, err)
			}
		}
		c.Switches[i] = sw

		merged, err := c.inherit(sw)
		if err != nil {
			return fmt.Errorf("switch %s: %w", sw.Target, err)
		}
		logging.WithDevice(merged.Target).Debugf("Resolved switch settings: platform=%s transport=%s old=%s new=%s match=%s",
			merged.Platform, merged.Transport, merged.OldVoiceVlan, merged.NewVoiceVlan, merged.MatchMode)
	}
	return nil
}

// Targets returns the configured switch targets in file order
func (c *Config) Targets() []string {
	targets := make([]string, 0, len(c.Switches))
	for _, sw := range c.Switches {
		targets = append(targets, sw.Target)
	}
	return targets
}

// SwitchFor returns the effective settings for target: its switch entry
// when one exists, merged over the global values
func (c *Config) SwitchFor(target string) entities.SwitchConfig {
	sw := entities.SwitchConfig{Target: target}
	for _, candidate := range c.Switches {
		if candidate.Target == target {
			sw = candidate
			break
		}
	}
	// entries and globals were validated by Normalize
	merged, _ := c.inherit(sw)
	return merged
}

func (c *Config) inherit(sw entities.SwitchConfig) (entities.SwitchConfig, error) {
	var err error
	if sw.Platform == "" {
		sw.Platform = c.Platform
	}
	if sw.Transport == "" {
		sw.Transport = c.Transport
	} else if sw.Transport, err = normalizeTransport(sw.Transport); err != nil {
		return sw, err
	}
	if sw.Username == "" {
		sw.Username = c.Username
	}
	if sw.Password == "" {
		sw.Password = c.Password
	}
	if sw.EnablePassword == "" {
		sw.EnablePassword = c.EnablePassword
	}
	if sw.EnablePassword == "" {
		sw.EnablePassword = sw.Password
	}
	if sw.OldVoiceVlan == "" {
		sw.OldVoiceVlan = c.OldVoiceVlan
	}
	if sw.NewVoiceVlan == "" {
		sw.NewVoiceVlan = c.NewVoiceVlan
	}
	if sw.MatchMode == "" {
		sw.MatchMode = c.MatchMode
	} else if sw.MatchMode, err = entities.ParseMatchMode(string(sw.MatchMode)); err != nil {
		return sw, err
	}
	if sw.Timeout == 0 {
		sw.Timeout = c.Timeout
	}
	if sw.Timeout < 0 {
		return sw, fmt.Errorf("timeout must be positive, got %s", sw.Timeout)
	}
	if sw.Identity == "" {
		sw.Identity = c.Identity
	} else if sw.Identity, err = normalizeIdentity(sw.Identity); err != nil {
		return sw, err
	}
	if sw.SnmpCommunity == "" {
		sw.SnmpCommunity = c.SnmpCommunity
	}
	if strings.EqualFold(sw.Identity, "snmp") && sw.SnmpCommunity == "" {
		return sw, fmt.Errorf("identity snmp requires snmp_community")
	}
	if err := validateVlans(sw.OldVoiceVlan, sw.NewVoiceVlan, "switch "+sw.Target); err != nil {
		return sw, err
	}
	sw.VerbosityLevel = c.Verbosity
	return sw, nil
}

func validateVlans(oldVlan, newVlan, context string) error {
	if oldVlan != "" {
		if err := entities.ValidateVlanID(oldVlan, context+" old_voice_vlan"); err != nil {
			return err
		}
	}
	if newVlan != "" {
		if err := entities.ValidateVlanID(newVlan, context+" new_voice_vlan"); err != nil {
			return err
		}
	}
	if oldVlan != "" && oldVlan == newVlan {
		return fmt.Errorf("%s old_voice_vlan and new_voice_vlan are both %s", context, oldVlan)
	}
	return nil
}

func normalizePlatform(platform string) (string, error) {
	platform = strings.ToLower(strings.TrimSpace(platform))
	switch platform {
	case "":
		return "ios", nil
	case "ios", "auto":
		return platform, nil
	default:
		return platform, fmt.Errorf("platform %s is invalid, must be 'ios' or 'auto'", platform)
	}
}

func normalizeTransport(transport string) (string, error) {
	transport = strings.ToLower(strings.TrimSpace(transport))
	switch transport {
	case "":
		return "ssh", nil
	case "ssh", "telnet":
		return transport, nil
	default:
		return transport, fmt.Errorf("transport %s is invalid, must be 'telnet' or 'ssh'", transport)
	}
}

func normalizeIdentity(identity string) (string, error) {
	identity = strings.ToLower(strings.TrimSpace(identity))
	switch identity {
	case "":
		return "prompt", nil
	case "prompt", "snmp":
		return identity, nil
	default:
		return identity, fmt.Errorf("identity %s is invalid, must be 'prompt' or 'snmp'", identity)
	}
}
