package services

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/carlosrabelo/voicevlan/domain/entities"
	"github.com/carlosrabelo/voicevlan/domain/ports"
	"github.com/carlosrabelo/voicevlan/domain/services"
	"github.com/carlosrabelo/voicevlan/infrastructure/config"
	"github.com/carlosrabelo/voicevlan/infrastructure/logging"
	"github.com/carlosrabelo/voicevlan/infrastructure/snmp"
	"github.com/carlosrabelo/voicevlan/infrastructure/transport"
	"github.com/carlosrabelo/voicevlan/platform"
)

// RepositoryFactory opens the device link for one switch. The returned
// release func frees whatever the link holds once the switch is done.
type RepositoryFactory func(cfg entities.SwitchConfig, driver platform.SwitchDriver) (ports.SwitchRepository, func())

// IdentityFactory builds the out-of-band identity lookup for one switch
type IdentityFactory func(cfg entities.SwitchConfig) ports.IdentityResolver

// MigrationApplicationService runs migrations for a stream of requests
type MigrationApplicationService struct {
	config      *config.Config
	renderer    ports.ConfigRenderer
	store       ports.ConfigStore
	observer    ports.MigrationObserver
	newRepo     RepositoryFactory
	newIdentity IdentityFactory
}

// Option customizes a MigrationApplicationService
type Option func(*MigrationApplicationService)

// WithObserver reports per-interface progress to observer
func WithObserver(observer ports.MigrationObserver) Option {
	return func(s *MigrationApplicationService) {
		s.observer = observer
	}
}

// WithRepositoryFactory replaces the telnet/SSH device link
func WithRepositoryFactory(factory RepositoryFactory) Option {
	return func(s *MigrationApplicationService) {
		s.newRepo = factory
	}
}

// WithIdentityFactory replaces the SNMP sysName lookup
func WithIdentityFactory(factory IdentityFactory) Option {
	return func(s *MigrationApplicationService) {
		s.newIdentity = factory
	}
}

// NewMigrationApplicationService creates a new instance of the migration
// application service
func NewMigrationApplicationService(cfg *config.Config, renderer ports.ConfigRenderer, store ports.ConfigStore, opts ...Option) *MigrationApplicationService {
	s := &MigrationApplicationService{
		config:      cfg,
		renderer:    renderer,
		store:       store,
		observer:    ports.NopObserver{},
		newRepo:     transportRepository,
		newIdentity: snmpIdentity,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunSummary collects the per-device results of a run in request order
type RunSummary struct {
	Results []entities.MigrationResult
}

// Count returns how many results ended with outcome
func (s RunSummary) Count(outcome entities.Outcome) int {
	n := 0
	for _, r := range s.Results {
		if r.Outcome == outcome {
			n++
		}
	}
	return n
}

// Failed returns the number of devices that did not complete
func (s RunSummary) Failed() int {
	n := 0
	for _, r := range s.Results {
		if !r.Succeeded() {
			n++
		}
	}
	return n
}

// AllFailed is true when at least one device ran and none succeeded
func (s RunSummary) AllFailed() bool {
	return len(s.Results) > 0 && s.Failed() == len(s.Results)
}

// Run migrates every requested switch. Devices are isolated from each other:
// a failure is recorded in its result and the run moves on. With more than
// one worker, switches are processed concurrently; otherwise each request is
// completed before the next one is pulled.
func (s *MigrationApplicationService) Run(ctx context.Context, requests iter.Seq[entities.MigrationRequest]) RunSummary {
	workers := s.config.Workers
	var (
		mu      sync.Mutex
		results []entities.MigrationResult
		g       errgroup.Group
	)
	g.SetLimit(max(workers, 1))

	for req := range requests {
		if ctx.Err() != nil {
			logging.Logger.Warn("Run canceled, ignoring remaining switches")
			break
		}
		mu.Lock()
		idx := len(results)
		results = append(results, entities.MigrationResult{Target: req.Target})
		mu.Unlock()

		migrate := func() error {
			result := s.migrateOne(ctx, req)
			mu.Lock()
			results[idx] = result
			mu.Unlock()
			return nil
		}
		if workers <= 1 {
			_ = migrate()
			continue
		}
		g.Go(migrate)
	}
	_ = g.Wait()
	return RunSummary{Results: results}
}

func (s *MigrationApplicationService) migrateOne(ctx context.Context, req entities.MigrationRequest) (result entities.MigrationResult) {
	req.Target = strings.TrimSpace(req.Target)
	log := logging.WithDevice(req.Target)
	defer func() {
		if r := recover(); r != nil {
			result = entities.MigrationResult{
				Target:  req.Target,
				Outcome: entities.OutcomeFailed,
				Err:     fmt.Errorf("panic while migrating %s: %v", req.Target, r),
			}
		}
		logResult(result)
	}()

	if req.Target == "" {
		return entities.MigrationResult{
			Outcome: entities.OutcomeFailed,
			Err:     fmt.Errorf("%w: empty target", entities.ErrInvalidRequest),
		}
	}

	swCfg := s.config.SwitchFor(req.Target)
	var driver platform.SwitchDriver
	if swCfg.PlatformID() != platform.AutoDetect {
		var err error
		if driver, err = platform.Get(swCfg.PlatformID()); err != nil {
			return entities.MigrationResult{Target: req.Target, Outcome: entities.OutcomeFailed, Err: err}
		}
	}

	log.Infof("Processing switch (transport=%s)", swCfg.Transport)
	repo, release := s.newRepo(swCfg, driver)
	defer release()

	svc := services.NewMigrationService(repo, swCfg, driver, s.renderer, s.store).WithObserver(s.observer)
	if swCfg.UsesSNMPIdentity() && s.newIdentity != nil {
		svc.WithIdentityResolver(s.newIdentity(swCfg))
	}
	return svc.Migrate(ctx, req)
}

func logResult(result entities.MigrationResult) {
	entry := logging.WithDevice(result.Target).WithField("outcome", result.Outcome)
	if result.Duration > 0 {
		entry = entry.WithField("elapsed", result.Duration.Round(time.Millisecond))
	}
	switch result.Outcome {
	case entities.OutcomeMigrated:
		entry.Infof("Migrated %d interface(s), configuration in %s", len(result.Candidates), result.OutputPath)
	case entities.OutcomeNoCandidates:
		entry.Info("No interfaces to migrate")
	default:
		entry.Errorf("Switch skipped: %v", result.Err)
	}
}

func transportRepository(cfg entities.SwitchConfig, driver platform.SwitchDriver) (ports.SwitchRepository, func()) {
	client := transport.Get(cfg)
	if driver != nil {
		if configurable, ok := client.(transport.AuthConfigurable); ok {
			configurable.SetAuthSequence(driver.GetAuthenticationSequence(cfg.Username, cfg.Password, cfg.EnablePassword))
		}
	}
	return transport.NewSwitchAdapter(client), func() { transport.Release(cfg) }
}

func snmpIdentity(cfg entities.SwitchConfig) ports.IdentityResolver {
	return snmp.NewSysNameResolver(cfg.SnmpCommunity)
}
