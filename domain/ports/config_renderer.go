package ports

// ConfigRenderer turns a candidate list into the configuration to apply
type ConfigRenderer interface {
	Render(ifaces []string, newVlan string) string
}
