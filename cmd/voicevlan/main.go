// voicevlan moves Cisco IOS access ports from one voice VLAN to another.
//
// For every switch it lists the interface status table, reads the running
// configuration of each eligible interface and renders a configuration file
// for the interfaces still carrying the old voice VLAN.
//
// Usage:
//
//	voicevlan                               Prompt for switches interactively
//	voicevlan --target 10.0.0.1 --old-vlan 150 --new-vlan 200
//	voicevlan --config sites.yaml           Migrate every configured switch
//	voicevlan validate-template [path]      Check a stanza template
//	voicevlan version                       Print version information
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

type options struct {
	configPath  string
	targets     []string
	oldVlan     string
	newVlan     string
	template    string
	outputDir   string
	transport   string
	matchMode   string
	username    string
	workers     int
	timeout     time.Duration
	interactive bool
	verbosity   int
	logFormat   string
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:               "voicevlan",
		Short:             "Generate voice VLAN migration configs for Cisco IOS switches",
		SilenceUsage:      true,
		SilenceErrors:     true,
		CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
		Args:              cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(opts)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd, opts)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "YAML configuration file (default: search ./, ~/.config/voicevlan/, /etc/voicevlan/)")
	pf.IntVarP(&opts.verbosity, "verbose", "v", 0, "Verbosity level: 0=none, 1=debug logs, 2=raw switch output, 3=debug+raw output")
	pf.StringVar(&opts.logFormat, "log-format", "text", "Log format: text or json")

	f := cmd.Flags()
	f.StringArrayVarP(&opts.targets, "target", "t", nil, "Switch address, repeatable (default: switches from the configuration)")
	f.StringVar(&opts.oldVlan, "old-vlan", "", "Voice VLAN currently configured")
	f.StringVar(&opts.newVlan, "new-vlan", "", "Voice VLAN to migrate to")
	f.StringVar(&opts.template, "template", "", "Stanza template file (default templates/intf_config.txt)")
	f.StringVar(&opts.outputDir, "output-dir", "", "Directory receiving the generated files (default configs)")
	f.StringVar(&opts.transport, "transport", "", "Device transport: ssh or telnet")
	f.StringVar(&opts.matchMode, "match-mode", "", "Voice VLAN match: substring or exact")
	f.StringVarP(&opts.username, "username", "u", "", "Login username")
	f.IntVar(&opts.workers, "workers", 0, "Switches processed concurrently")
	f.DurationVar(&opts.timeout, "timeout", 0, "Per-command device timeout (default 2m)")
	f.BoolVarP(&opts.interactive, "interactive", "i", false, "Prompt for switches and VLANs")

	cmd.AddCommand(
		newValidateTemplateCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "voicevlan %s (built %s)\n", version, buildTime)
		},
	}
}
