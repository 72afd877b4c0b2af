package ports

// SwitchRepository defines the port for network switch interaction
type SwitchRepository interface {
	Connect() error
	Disconnect()
	ExecuteCommand(cmd string) (string, error)
	IsConnected() bool
	// Prompt returns the device prompt seen after login with the trailing
	// '#' or '>' removed, e.g. "SW-ACCESS-01".
	Prompt() string
}
