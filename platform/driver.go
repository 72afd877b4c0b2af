package platform

import (
	"fmt"
	"iter"
	"strings"

	"github.com/carlosrabelo/voicevlan/domain/entities"
	"github.com/carlosrabelo/voicevlan/domain/ports"
	"github.com/carlosrabelo/voicevlan/platform/ios"
)

// AutoDetect is the platform name that asks for detection instead of a fixed driver.
const AutoDetect = "auto"

// SwitchDriver defines the behaviour required to support a switching platform.
type SwitchDriver interface {
	Name() string
	Detect(repo ports.SwitchRepository) (bool, error)

	// GetAuthenticationSequence returns the login sequence for this platform
	GetAuthenticationSequence(username, password, enablePassword string) []entities.AuthPrompt

	GetInterfaceStatus(repo ports.SwitchRepository, cfg entities.SwitchConfig) (iter.Seq[entities.InterfaceStatusRow], error)
	GetInterfaceConfig(repo ports.SwitchRepository, cfg entities.SwitchConfig, iface string) (string, error)

	IsEligible(iface string) bool
	MatchesVoiceVlan(configText, vlan string, mode entities.MatchMode) bool
}

var registry = []SwitchDriver{
	ios.New(),
}

// Get returns a driver by normalized platform name.
func Get(name string) (SwitchDriver, error) {
	normalized := normalizeName(name)
	for _, driver := range registry {
		if driver.Name() == normalized {
			return driver, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", entities.ErrUnsupportedPlatform, name)
}

// Available returns all registered drivers.
func Available() []SwitchDriver {
	out := make([]SwitchDriver, len(registry))
	copy(out, registry)
	return out
}

// Names lists the accepted platform names, including auto.
func Names() []string {
	names := make([]string, 0, len(registry)+1)
	for _, driver := range registry {
		names = append(names, driver.Name())
	}
	return append(names, AutoDetect)
}

// Detect tries all registered drivers until one matches.
func Detect(repo ports.SwitchRepository) (SwitchDriver, error) {
	var lastErr error
	for _, driver := range registry {
		matched, err := driver.Detect(repo)
		if err != nil {
			lastErr = err
			continue
		}
		if matched {
			return driver, nil
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, fmt.Errorf("%w: unable to detect switch platform", entities.ErrUnsupportedPlatform)
}

// Resolve returns the driver named by the switch configuration, running
// detection when the platform is auto.
func Resolve(cfg entities.SwitchConfig, repo ports.SwitchRepository) (SwitchDriver, error) {
	if cfg.PlatformID() == AutoDetect {
		return Detect(repo)
	}
	return Get(cfg.PlatformID())
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
