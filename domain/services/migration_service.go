package services

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/carlosrabelo/voicevlan/domain/entities"
	"github.com/carlosrabelo/voicevlan/domain/ports"
	"github.com/carlosrabelo/voicevlan/infrastructure/logging"
	"github.com/carlosrabelo/voicevlan/platform"
)

// MigrationServiceImpl implements the voice VLAN migration of one switch
type MigrationServiceImpl struct {
	switchRepo ports.SwitchRepository
	config     entities.SwitchConfig
	driver     platform.SwitchDriver
	renderer   ports.ConfigRenderer
	store      ports.ConfigStore
	identity   ports.IdentityResolver
	observer   ports.MigrationObserver
	log        *logrus.Entry
}

// NewMigrationService creates a new instance of the migration service. A nil
// driver is resolved from the configured platform once connected.
func NewMigrationService(switchRepo ports.SwitchRepository, config entities.SwitchConfig, driver platform.SwitchDriver, renderer ports.ConfigRenderer, store ports.ConfigStore) *MigrationServiceImpl {
	return &MigrationServiceImpl{
		switchRepo: switchRepo,
		config:     config,
		driver:     driver,
		renderer:   renderer,
		store:      store,
		observer:   ports.NopObserver{},
		log:        logging.WithDevice(config.Target),
	}
}

// WithObserver sets the progress observer
func (m *MigrationServiceImpl) WithObserver(observer ports.MigrationObserver) *MigrationServiceImpl {
	if observer != nil {
		m.observer = observer
	}
	return m
}

// WithIdentityResolver names output files from an out-of-band lookup
// instead of the device prompt
func (m *MigrationServiceImpl) WithIdentityResolver(resolver ports.IdentityResolver) *MigrationServiceImpl {
	m.identity = resolver
	return m
}

// Migrate inspects the switch and writes the configuration that moves every
// eligible interface from the old to the new voice VLAN. Failures are
// reported in the result, never returned.
func (m *MigrationServiceImpl) Migrate(ctx context.Context, req entities.MigrationRequest) entities.MigrationResult {
	start := time.Now()
	result := entities.MigrationResult{Target: req.Target}
	finish := func(outcome entities.Outcome, err error) entities.MigrationResult {
		result.Outcome = outcome
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}

	oldVlan := firstNonEmpty(req.OldVoiceVlan, m.config.OldVoiceVlan)
	newVlan := firstNonEmpty(req.NewVoiceVlan, m.config.NewVoiceVlan)
	if err := validateRequest(req.Target, oldVlan, newVlan); err != nil {
		return finish(entities.OutcomeFailed, err)
	}
	if err := ctx.Err(); err != nil {
		return finish(entities.OutcomeFailed, err)
	}

	if !m.switchRepo.IsConnected() {
		m.log.Debug("Connecting")
		if err := m.switchRepo.Connect(); err != nil {
			return finish(entities.OutcomeConnectionFailed, fmt.Errorf("%w: %s: %w", entities.ErrConnection, req.Target, err))
		}
	}
	defer m.switchRepo.Disconnect()

	driver := m.driver
	if driver == nil {
		var err error
		if driver, err = platform.Resolve(m.config, m.switchRepo); err != nil {
			return finish(entities.OutcomeFailed, err)
		}
		m.log.Debugf("Using %s driver", driver.Name())
	}

	result.Identity = m.resolveIdentity(ctx, req.Target)

	rows, err := driver.GetInterfaceStatus(m.switchRepo, m.config)
	if err != nil {
		return finish(entities.OutcomeFailed, err)
	}

	candidates, err := CollectCandidates(ctx, req.Target, rows,
		driver.IsEligible,
		func(iface string) (string, error) {
			return driver.GetInterfaceConfig(m.switchRepo, m.config, iface)
		},
		func(configText string) bool {
			return driver.MatchesVoiceVlan(configText, oldVlan, m.config.MatchMode)
		},
		m.observer,
	)
	result.Candidates = candidates
	if err != nil {
		return finish(entities.OutcomeFailed, err)
	}
	if candidates.IsEmpty() {
		m.log.Infof("No interface carries voice VLAN %s, nothing to write", oldVlan)
		return finish(entities.OutcomeNoCandidates, nil)
	}

	result.Config = m.renderer.Render(candidates, newVlan)
	path, err := m.store.Save(result.Identity, result.Config)
	if err != nil {
		return finish(entities.OutcomePersistenceFailed, err)
	}
	result.OutputPath = path
	m.log.Infof("Wrote %d interface(s) moving voice VLAN %s to %s into %s", len(candidates), oldVlan, newVlan, path)
	return finish(entities.OutcomeMigrated, nil)
}

// CollectCandidates walks the status rows in order and keeps every eligible
// interface whose configuration matches. Fetch errors abort the walk.
func CollectCandidates(
	ctx context.Context,
	target string,
	rows iter.Seq[entities.InterfaceStatusRow],
	eligible func(iface string) bool,
	fetch func(iface string) (string, error),
	match func(configText string) bool,
	observer ports.MigrationObserver,
) (entities.MigrationCandidateSet, error) {
	var candidates entities.MigrationCandidateSet
	for row := range rows {
		if err := ctx.Err(); err != nil {
			return candidates, err
		}
		if !eligible(row.Interface) {
			observer.InterfaceSkipped(target, row.Interface)
			continue
		}
		configText, err := fetch(row.Interface)
		if err != nil {
			return candidates, err
		}
		matched := match(configText)
		observer.InterfaceInspected(target, row.Interface, matched)
		if matched {
			candidates = append(candidates, row.Interface)
		}
	}
	return candidates, nil
}

func (m *MigrationServiceImpl) resolveIdentity(ctx context.Context, target string) string {
	identity := m.switchRepo.Prompt()
	if m.identity != nil {
		name, err := m.identity.ResolveIdentity(ctx, target)
		switch {
		case err != nil:
			m.log.Warnf("SNMP identity lookup failed, using prompt: %v", err)
		case name != "":
			identity = name
		}
	}
	if identity == "" {
		m.log.Warn("Device identity unknown, naming output after the target")
		identity = target
	}
	return identity
}

func validateRequest(target, oldVlan, newVlan string) error {
	if strings.TrimSpace(target) == "" {
		return fmt.Errorf("%w: empty target", entities.ErrInvalidRequest)
	}
	if err := entities.ValidateVlanID(oldVlan, "existing voice vlan"); err != nil {
		return fmt.Errorf("%w: %w", entities.ErrInvalidRequest, err)
	}
	if err := entities.ValidateVlanID(newVlan, "new voice vlan"); err != nil {
		return fmt.Errorf("%w: %w", entities.ErrInvalidRequest, err)
	}
	if oldVlan == newVlan {
		return fmt.Errorf("%w: existing and new voice vlan are both %s", entities.ErrInvalidRequest, oldVlan)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
