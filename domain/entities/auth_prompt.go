package entities

// AuthPrompt pairs a prompt expected from the switch with the input sent back
type AuthPrompt struct {
	WaitFor string // prompt to wait for
	SendCmd string // input to send (empty means just wait)
}
