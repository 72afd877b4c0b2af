package entities

import (
	"fmt"
	"strconv"
	"strings"
)

// MatchMode selects how a voice VLAN statement is compared with the old VLAN id
type MatchMode string

const (
	// MatchSubstring succeeds when "switchport voice vlan <id>" occurs anywhere,
	// so "10" also matches "switchport voice vlan 100".
	MatchSubstring MatchMode = "substring"
	// MatchExact additionally requires the id to end at whitespace or end of text.
	MatchExact MatchMode = "exact"
)

// ParseMatchMode normalizes a match mode name; empty means substring
func ParseMatchMode(value string) (MatchMode, error) {
	switch MatchMode(strings.ToLower(strings.TrimSpace(value))) {
	case "", MatchSubstring:
		return MatchSubstring, nil
	case MatchExact:
		return MatchExact, nil
	default:
		return "", fmt.Errorf("match mode %s is invalid, must be 'substring' or 'exact'", value)
	}
}

// ValidateVlanID checks that vlan is a plain decimal number between 1 and
// 4094. Signs and leading zeros are rejected since the id is matched and
// rendered verbatim.
func ValidateVlanID(vlan, context string) error {
	vlanNum, err := strconv.Atoi(vlan)
	if err != nil {
		return fmt.Errorf("invalid VLAN number in %s: %q must be a number", context, vlan)
	}
	if strconv.Itoa(vlanNum) != vlan {
		return fmt.Errorf("invalid VLAN number in %s: %q must be written as %d", context, vlan, vlanNum)
	}
	if vlanNum < 1 || vlanNum > 4094 {
		return fmt.Errorf("invalid VLAN number in %s: %s must be between 1 and 4094", context, vlan)
	}
	return nil
}
