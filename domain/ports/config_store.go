package ports

// ConfigStore persists rendered configuration for a device
type ConfigStore interface {
	// Save stores content under a name derived from identity and returns the
	// location written. An existing artifact with the same name is replaced.
	Save(identity, content string) (string, error)
}
