package ios

import (
	"iter"
	"regexp"
	"strings"

	"github.com/carlosrabelo/voicevlan/domain/entities"
)

var (
	// letters immediately followed by digits and '/' separators, anchored at column 0
	interfaceLineRegex = regexp.MustCompile(`^[A-Za-z]+[0-9/]+`)
	commandErrHints    = []string{
		"invalid input",
		"unknown command",
		"incomplete command",
		"ambiguous command",
		"unrecognized command",
		"invalid command",
		"syntax error",
		"cannot find command",
	}
)

// ParseInterfaceStatus yields one row per interface line of a
// "show interfaces status" report, in report order. Headers, separators,
// blank lines and footers are skipped. The sequence can be ranged over any
// number of times.
func ParseInterfaceStatus(output string) iter.Seq[entities.InterfaceStatusRow] {
	return func(yield func(entities.InterfaceStatusRow) bool) {
		for line := range strings.Lines(output) {
			if !interfaceLineRegex.MatchString(line) {
				continue
			}
			fields := strings.Fields(line)
			if !yield(entities.InterfaceStatusRow{Interface: fields[0]}) {
				return
			}
		}
	}
}

func isIOSCommandError(output string) bool {
	lower := strings.ToLower(output)
	for _, keyword := range commandErrHints {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
