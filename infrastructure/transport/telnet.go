package transport

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ziutek/telnet"

	"github.com/carlosrabelo/voicevlan/domain/entities"
	"github.com/carlosrabelo/voicevlan/infrastructure/logging"
)

// TelnetClient manages a Telnet connection to a switch
type TelnetClient struct {
	conn         *telnet.Conn
	config       entities.SwitchConfig
	authSequence []entities.AuthPrompt
	prompt       string
	log          *logrus.Entry
}

// NewTelnetClient creates a new Telnet client with the given configuration
func NewTelnetClient(cfg entities.SwitchConfig) *TelnetClient {
	return &TelnetClient{config: cfg, log: logging.WithDevice(cfg.Target)}
}

// SetAuthSequence configures the authentication sequence for this client
func (tc *TelnetClient) SetAuthSequence(prompts []entities.AuthPrompt) {
	tc.authSequence = prompts
}

// Connect establishes a Telnet connection to the switch
func (tc *TelnetClient) Connect() error {
	if tc.conn != nil {
		return nil
	}
	timeout := timeoutFor(tc.config)
	conn, err := telnet.DialTimeout("tcp", address(tc.config.Target, "23"), timeout)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", tc.config.Target, err)
	}
	tc.conn = conn
	tc.log.Debug("Connected via telnet")

	prompts := tc.authSequence
	if len(prompts) == 0 {
		prompts = []entities.AuthPrompt{
			{WaitFor: PromptUsername, SendCmd: tc.config.Username + "\n"},
			{WaitFor: PromptPassword, SendCmd: tc.config.Password + "\n"},
			{WaitFor: PromptEnable, SendCmd: "enable\n"},
			{WaitFor: PromptPassword, SendCmd: tc.config.EnablePassword + "\n"},
			{WaitFor: PromptPrivileged, SendCmd: TerminalLengthCmd},
			{WaitFor: PromptPrivileged, SendCmd: ""},
		}
	}

	var output string
	for _, p := range prompts {
		output, err = tc.readUntil(p.WaitFor, timeout)
		if err != nil {
			tc.Disconnect()
			return fmt.Errorf("failed to wait for %s: %w, output: %s", p.WaitFor, err, output)
		}
		if p.SendCmd != "" {
			if err := tc.send(p.SendCmd); err != nil {
				tc.Disconnect()
				return fmt.Errorf("failed to answer %s: %w", p.WaitFor, err)
			}
			tc.log.Debugf("Answered prompt %s", p.WaitFor)
		}
	}
	tc.prompt = promptLine(output)
	return nil
}

func (tc *TelnetClient) send(data string) error {
	if err := tc.conn.SetWriteDeadline(time.Now().Add(timeoutFor(tc.config))); err != nil {
		return err
	}
	_, err := tc.conn.Write([]byte(data))
	return err
}

// readUntil reads from the Telnet connection until the specified pattern is found
func (tc *TelnetClient) readUntil(pattern string, timeout time.Duration) (string, error) {
	buffer := make([]byte, BufferSize)
	var output strings.Builder
	output.Grow(BufferSize)
	deadline := time.Now().Add(timeout)
	if err := tc.conn.SetReadDeadline(deadline); err != nil {
		return "", err
	}
	for time.Now().Before(deadline) {
		n, err := tc.conn.Read(buffer)
		if n > 0 {
			output.Write(buffer[:n])
			if tc.config.IsRawOutputEnabled() {
				tc.log.Tracef("Read: %s", string(buffer[:n]))
			}
			if strings.Contains(output.String(), pattern) {
				return output.String(), nil
			}
		}
		if err != nil {
			return output.String(), fmt.Errorf("read error: %w", err)
		}
	}
	return output.String(), fmt.Errorf("timeout waiting for %s", pattern)
}

// Disconnect closes the Telnet connection
func (tc *TelnetClient) Disconnect() {
	if tc.conn != nil {
		tc.conn.Close()
		tc.log.Debug("Disconnected")
		tc.conn = nil
	}
}

// IsConnected reports whether a session is open
func (tc *TelnetClient) IsConnected() bool {
	return tc.conn != nil
}

// Prompt returns the device name shown in the privileged prompt
func (tc *TelnetClient) Prompt() string {
	return promptIdentity(tc.prompt)
}

// ExecuteCommand sends a command to the switch and returns its output
func (tc *TelnetClient) ExecuteCommand(cmd string) (string, error) {
	if tc.conn == nil {
		return "", fmt.Errorf("error executing %s: not connected", cmd)
	}
	tc.log.Debugf("Executing: %s", cmd)
	if err := tc.send(cmd + "\n"); err != nil {
		return "", fmt.Errorf("failed to send command %s: %w", cmd, err)
	}
	marker := tc.prompt
	if marker == "" {
		marker = PromptPrivileged
	}
	output, err := tc.readUntil(marker, timeoutFor(tc.config))
	if err != nil {
		return "", fmt.Errorf("error executing %s: %w", cmd, err)
	}
	output = commandBody(output)
	if tc.config.IsRawOutputEnabled() {
		tc.log.Tracef("Switch output for '%s':\n%s", cmd, output)
	}
	return output, nil
}
