package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/carlosrabelo/voicevlan/application/services"
	"github.com/carlosrabelo/voicevlan/domain/entities"
	"github.com/carlosrabelo/voicevlan/infrastructure/config"
	"github.com/carlosrabelo/voicevlan/infrastructure/logging"
	"github.com/carlosrabelo/voicevlan/infrastructure/requests"
	"github.com/carlosrabelo/voicevlan/infrastructure/storage"
	"github.com/carlosrabelo/voicevlan/infrastructure/template"
	"github.com/carlosrabelo/voicevlan/infrastructure/transport"
)

var errAllFailed = errors.New("no switch could be migrated")

func setupLogging(opts *options) error {
	if err := logging.SetVerbosity(opts.verbosity); err != nil {
		return err
	}
	return logging.SetFormat(opts.logFormat)
}

func loadConfig(opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	cfg.Verbosity = opts.verbosity
	err = cfg.ApplyOverrides(config.Overrides{
		Transport:    opts.transport,
		OldVoiceVlan: opts.oldVlan,
		NewVoiceVlan: opts.newVlan,
		MatchMode:    opts.matchMode,
		Template:     opts.template,
		OutputDir:    opts.outputDir,
		Timeout:      opts.timeout,
		Workers:      opts.workers,
	})
	if err != nil {
		return nil, err
	}
	if opts.username != "" {
		cfg.Username = opts.username
	}
	return cfg, nil
}

func runMigrate(cmd *cobra.Command, opts *options) error {
	out := cmd.OutOrStdout()
	runID := uuid.NewString()
	logging.WithRun(runID)
	logging.Logger.Debugf("voicevlan %s starting run %s", version, runID)

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	tmpl, err := template.Load(cfg.Template)
	if err != nil {
		return err
	}

	in := bufio.NewReader(cmd.InOrStdin())
	interactive := opts.interactive || (len(opts.targets) == 0 && len(cfg.Switches) == 0)
	if err := promptCredentials(cfg, in, out, cmd.InOrStdin()); err != nil {
		return err
	}

	var reqs iter.Seq[entities.MigrationRequest]
	switch {
	case interactive:
		reqs = requests.Interactive(in, out, cfg.OldVoiceVlan, cfg.NewVoiceVlan)
	case len(opts.targets) > 0:
		reqs = requests.FromTargets(opts.targets, "", "")
	default:
		reqs = requests.FromConfig(cfg)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer transport.CloseAll()

	app := services.NewMigrationApplicationService(cfg, tmpl, storage.NewFileStore(cfg.OutputDir),
		services.WithObserver(logging.NewObserver()))
	summary := app.Run(ctx, reqs)

	printSummary(out, summary)
	if summary.AllFailed() {
		return errAllFailed
	}
	return nil
}

func printSummary(out io.Writer, summary services.RunSummary) {
	if len(summary.Results) == 0 {
		fmt.Fprintln(out, "No switches processed")
		return
	}
	fmt.Fprintln(out)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TARGET\tIDENTITY\tOUTCOME\tINTERFACES\tRESULT")
	for _, r := range summary.Results {
		detail := r.OutputPath
		switch {
		case r.Err != nil:
			detail = r.Err.Error()
		case r.Outcome == entities.OutcomeNoCandidates:
			detail = "No valid interfaces found."
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", r.Target, r.Identity, r.Outcome, len(r.Candidates), detail)
	}
	w.Flush()
	fmt.Fprintf(out, "%d migrated, %d without candidates, %d failed\n",
		summary.Count(entities.OutcomeMigrated), summary.Count(entities.OutcomeNoCandidates), summary.Failed())
}
