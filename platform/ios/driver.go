package ios

import (
	"fmt"
	"iter"
	"strings"

	"github.com/carlosrabelo/voicevlan/domain/entities"
	"github.com/carlosrabelo/voicevlan/domain/ports"
	"github.com/carlosrabelo/voicevlan/infrastructure/logging"
)

const (
	driverName = "ios"

	interfaceStatusCmd = "show interfaces status"
	interfaceConfigCmd = "show running-config interface %s"
	versionCmd         = "show version"
)

// Driver implements the SwitchDriver behaviour for Cisco IOS switches.
type Driver struct{}

// New creates a new IOS driver instance.
func New() *Driver {
	return &Driver{}
}

// Name returns the canonical platform identifier.
func (d *Driver) Name() string {
	return driverName
}

// Detect inspects the device to determine whether it is running IOS.
func (d *Driver) Detect(repo ports.SwitchRepository) (bool, error) {
	if !repo.IsConnected() {
		if err := repo.Connect(); err != nil {
			return false, err
		}
	}
	output, err := repo.ExecuteCommand(versionCmd)
	if err != nil {
		return false, err
	}
	return strings.Contains(strings.ToLower(output), "cisco ios"), nil
}

// GetAuthenticationSequence returns the telnet login dialogue of an IOS switch:
// credentials, enable, then paging disabled so tables arrive in one piece.
func (d *Driver) GetAuthenticationSequence(username, password, enablePassword string) []entities.AuthPrompt {
	return []entities.AuthPrompt{
		{WaitFor: "Username:", SendCmd: username + "\n"},
		{WaitFor: "Password:", SendCmd: password + "\n"},
		{WaitFor: ">", SendCmd: "enable\n"},
		{WaitFor: "Password:", SendCmd: enablePassword + "\n"},
		{WaitFor: "#", SendCmd: "terminal length 0\n"},
		{WaitFor: "#", SendCmd: ""},
	}
}

// GetInterfaceStatus retrieves the interface status table.
func (d *Driver) GetInterfaceStatus(repo ports.SwitchRepository, cfg entities.SwitchConfig) (iter.Seq[entities.InterfaceStatusRow], error) {
	output, err := repo.ExecuteCommand(interfaceStatusCmd)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve interface status: %w", err)
	}
	if cfg.IsRawOutputEnabled() {
		logging.WithDevice(cfg.Target).Tracef("Raw output of '%s':\n%s", interfaceStatusCmd, output)
	}
	if isIOSCommandError(output) {
		return nil, fmt.Errorf("command '%s' unsupported by switch: %w", interfaceStatusCmd, entities.ErrUnsupportedPlatform)
	}
	return ParseInterfaceStatus(output), nil
}

// GetInterfaceConfig retrieves the running configuration of one interface.
// A rejected command yields empty text, which never matches.
func (d *Driver) GetInterfaceConfig(repo ports.SwitchRepository, cfg entities.SwitchConfig, iface string) (string, error) {
	cmd := fmt.Sprintf(interfaceConfigCmd, iface)
	output, err := repo.ExecuteCommand(cmd)
	if err != nil {
		return "", fmt.Errorf("failed to retrieve configuration of %s: %w", iface, err)
	}
	if cfg.IsRawOutputEnabled() {
		logging.WithDevice(cfg.Target).Tracef("Raw output of '%s':\n%s", cmd, output)
	}
	if isIOSCommandError(output) {
		logging.WithDevice(cfg.Target).Warnf("Switch rejected '%s'", cmd)
		return "", nil
	}
	return output, nil
}

// IsEligible applies the IOS interface exclusion rules.
func (d *Driver) IsEligible(iface string) bool {
	return IsEligible(iface)
}

// MatchesVoiceVlan checks an interface configuration for the voice VLAN statement.
func (d *Driver) MatchesVoiceVlan(configText, vlan string, mode entities.MatchMode) bool {
	return MatchesVoiceVlan(configText, vlan, mode)
}
