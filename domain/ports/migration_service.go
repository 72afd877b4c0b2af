package ports

import (
	"context"

	"github.com/carlosrabelo/voicevlan/domain/entities"
)

// MigrationService migrates the voice VLAN of a single switch
type MigrationService interface {
	Migrate(ctx context.Context, req entities.MigrationRequest) entities.MigrationResult
}

// MigrationObserver receives progress while a switch is being inspected.
// Implementations must not block.
type MigrationObserver interface {
	InterfaceSkipped(target, iface string)
	InterfaceInspected(target, iface string, matched bool)
}

// NopObserver ignores every event
type NopObserver struct{}

func (NopObserver) InterfaceSkipped(string, string) {}
func (NopObserver) InterfaceInspected(string, string, bool) {}
