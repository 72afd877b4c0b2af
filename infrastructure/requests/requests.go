// Package requests produces the stream of switches to migrate, whether they
// come from the configuration file, the command line or an operator at a
// terminal.
package requests

import (
	"bufio"
	"cmp"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/carlosrabelo/voicevlan/domain/entities"
	"github.com/carlosrabelo/voicevlan/infrastructure/config"
)

// EndSentinel ends the interactive loop when entered as host
const EndSentinel = "e"

const (
	promptHost    = "Enter host IP (or 'e' to end): "
	promptOldVlan = "Enter existing voice vlan"
	promptNewVlan = "Enter new voice vlan"
)

// FromConfig yields one request per configured switch. VLANs are left empty
// so each switch uses its own configured values.
func FromConfig(cfg *config.Config) iter.Seq[entities.MigrationRequest] {
	return FromTargets(cfg.Targets(), "", "")
}

// FromTargets yields one request per distinct non-blank target, in order
func FromTargets(targets []string, oldVlan, newVlan string) iter.Seq[entities.MigrationRequest] {
	return func(yield func(entities.MigrationRequest) bool) {
		seen := make(map[string]struct{}, len(targets))
		for _, target := range targets {
			target = strings.TrimSpace(target)
			if target == "" {
				continue
			}
			if _, dup := seen[target]; dup {
				continue
			}
			seen[target] = struct{}{}
			if !yield(entities.MigrationRequest{Target: target, OldVoiceVlan: oldVlan, NewVoiceVlan: newVlan}) {
				return
			}
		}
	}
}

// Interactive prompts for a host and its VLANs until the operator enters the
// end sentinel or input runs out. Each request is yielded before the next
// host is asked for. Blank VLAN answers take the given defaults.
func Interactive(in io.Reader, out io.Writer, defaultOld, defaultNew string) iter.Seq[entities.MigrationRequest] {
	return func(yield func(entities.MigrationRequest) bool) {
		scanner := bufio.NewScanner(in)
		ask := func(prompt string) (string, bool) {
			fmt.Fprint(out, prompt)
			if !scanner.Scan() {
				return "", false
			}
			return strings.TrimSpace(scanner.Text()), true
		}
		defer fmt.Fprintln(out, "Bye!")

		for {
			host, ok := ask("\n" + promptHost)
			if !ok || strings.EqualFold(host, EndSentinel) {
				return
			}
			if host == "" {
				continue
			}
			oldVlan, ok := ask(withDefault(promptOldVlan, defaultOld))
			if !ok {
				return
			}
			newVlan, ok := ask(withDefault(promptNewVlan, defaultNew))
			if !ok {
				return
			}
			fmt.Fprintf(out, "Connecting to %s...\n", host)
			req := entities.MigrationRequest{
				Target:       host,
				OldVoiceVlan: cmp.Or(oldVlan, defaultOld),
				NewVoiceVlan: cmp.Or(newVlan, defaultNew),
			}
			if !yield(req) {
				return
			}
		}
	}
}

func withDefault(prompt, value string) string {
	if value == "" {
		return prompt + ": "
	}
	return fmt.Sprintf("%s [%s]: ", prompt, value)
}

