package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/carlosrabelo/voicevlan/infrastructure/template"
)

func newValidateTemplateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate-template [path]",
		Short: "Check that a template carries the interface and VLAN placeholders",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := template.DefaultPath
			if len(args) == 1 {
				path = args[0]
			} else if cfg, err := loadConfig(opts); err == nil {
				path = cfg.Template
			}

			tmpl, err := template.Load(path)
			if err != nil {
				return err
			}
			sample := tmpl.RenderStanza("GigabitEthernet1/0/1", "100")
			fmt.Fprintf(cmd.OutOrStdout(), "Template %s is valid. Sample stanza:\n%s\n", path, strings.TrimRight(sample, "\n"))
			return nil
		},
	}
}
