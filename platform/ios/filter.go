package ios

import "strings"

// Access-point and SVI interfaces never carry an access port voice VLAN.
var excludedPrefixes = []string{"Ap", "Vlan"}

// excludedModuleMarker matches module 1 positions such as Gi1/1/1 uplinks.
// It is a plain substring test, so any identifier containing "/1/" is dropped.
const excludedModuleMarker = "/1/"

// IsEligible reports whether an interface may take part in a voice VLAN migration
func IsEligible(iface string) bool {
	for _, prefix := range excludedPrefixes {
		if strings.HasPrefix(iface, prefix) {
			return false
		}
	}
	return !strings.Contains(iface, excludedModuleMarker)
}
