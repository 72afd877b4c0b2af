package entities

import (
	"strings"
	"time"
)

// SwitchConfig defines the connection and migration settings for a single switch
type SwitchConfig struct {
	Target         string        `yaml:"target"`
	Platform       string        `yaml:"platform"`
	Transport      string        `yaml:"transport"`
	Username       string        `yaml:"username"`
	Password       string        `yaml:"password"`
	EnablePassword string        `yaml:"enable_password"`
	OldVoiceVlan   string        `yaml:"old_voice_vlan"`
	NewVoiceVlan   string        `yaml:"new_voice_vlan"`
	MatchMode      MatchMode     `yaml:"match_mode"`
	Timeout        time.Duration `yaml:"timeout"`
	Identity       string        `yaml:"identity"`
	SnmpCommunity  string        `yaml:"snmp_community"`
	VerbosityLevel int           `yaml:"-"`
}

// IsDebugEnabled returns true if debug logs are enabled
func (sc SwitchConfig) IsDebugEnabled() bool {
	return sc.VerbosityLevel == 1 || sc.VerbosityLevel == 3
}

// IsRawOutputEnabled returns true if raw switch output is enabled
func (sc SwitchConfig) IsRawOutputEnabled() bool {
	return sc.VerbosityLevel == 2 || sc.VerbosityLevel == 3
}

// PlatformID returns the normalized platform name, defaulting to ios
func (sc SwitchConfig) PlatformID() string {
	platform := strings.ToLower(strings.TrimSpace(sc.Platform))
	if platform == "" {
		return "ios"
	}
	return platform
}

// UsesSNMPIdentity reports whether the output file name comes from sysName
func (sc SwitchConfig) UsesSNMPIdentity() bool {
	return strings.EqualFold(sc.Identity, "snmp") && sc.SnmpCommunity != ""
}
