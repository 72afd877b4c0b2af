package ios

import (
	"strings"

	"github.com/carlosrabelo/voicevlan/domain/entities"
)

const voiceVlanStatement = "switchport voice vlan "

// MatchesVoiceVlan reports whether configText assigns vlan as voice VLAN.
//
// With entities.MatchSubstring the statement is searched literally, which
// means old VLAN "10" also matches "switchport voice vlan 100". With
// entities.MatchExact the VLAN id must be followed by whitespace or the end of
// the text.
func MatchesVoiceVlan(configText, vlan string, mode entities.MatchMode) bool {
	needle := voiceVlanStatement + vlan
	if mode != entities.MatchExact {
		return strings.Contains(configText, needle)
	}
	offset := 0
	for {
		idx := strings.Index(configText[offset:], needle)
		if idx < 0 {
			return false
		}
		end := offset + idx + len(needle)
		if end == len(configText) || isSpace(configText[end]) {
			return true
		}
		offset += idx + 1
	}
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}
