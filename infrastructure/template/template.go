// Package template renders per-interface configuration stanzas from a text
// template carrying the {{{intf}}} and {{{vlan}}} placeholders.
package template

import (
	"fmt"
	"os"
	"strings"

	"github.com/carlosrabelo/voicevlan/domain/entities"
)

const (
	// InterfacePlaceholder is replaced by the interface identifier.
	InterfacePlaceholder = "{{{intf}}}"
	// VlanPlaceholder is replaced by the new voice VLAN id.
	VlanPlaceholder = "{{{vlan}}}"

	// DefaultPath is where the template is looked up when none is configured.
	DefaultPath = "templates/intf_config.txt"
)

// Template is a validated stanza template
type Template struct {
	text string
}

// ValidationError lists every problem found in a template
type ValidationError struct {
	Source string
	Errors []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("template %s: %s", e.Source, e.Errors[0])
	}
	return fmt.Sprintf("template %s:\n  - %s", e.Source, strings.Join(e.Errors, "\n  - "))
}

func (e *ValidationError) Unwrap() error {
	return entities.ErrTemplate
}

// Load reads and validates the template at path
func Load(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w: %w", path, entities.ErrTemplate, err)
	}
	return parse(path, string(data))
}

// Parse validates template text held in memory
func Parse(text string) (*Template, error) {
	return parse("<inline>", text)
}

func parse(source, text string) (*Template, error) {
	if err := Validate(source, text); err != nil {
		return nil, err
	}
	return &Template{text: text}, nil
}

// Validate checks that text is non-blank and carries both placeholders
func Validate(source, text string) error {
	var problems []string
	if strings.TrimSpace(text) == "" {
		problems = append(problems, "template is empty")
	}
	for _, placeholder := range []string{InterfacePlaceholder, VlanPlaceholder} {
		if !strings.Contains(text, placeholder) {
			problems = append(problems, fmt.Sprintf("missing placeholder %s", placeholder))
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Source: source, Errors: problems}
	}
	return nil
}

// Text returns the raw template text
func (t *Template) Text() string {
	return t.text
}

// RenderStanza renders the template for a single interface
func (t *Template) RenderStanza(iface, newVlan string) string {
	return strings.NewReplacer(InterfacePlaceholder, iface, VlanPlaceholder, newVlan).Replace(t.text)
}

// Render produces one stanza per interface, in order, joined by a newline.
// An empty interface list renders to the empty string.
func (t *Template) Render(ifaces []string, newVlan string) string {
	stanzas := make([]string, 0, len(ifaces))
	for _, iface := range ifaces {
		stanzas = append(stanzas, t.RenderStanza(iface, newVlan))
	}
	return strings.Join(stanzas, "\n")
}
