package transport

import (
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"

	"github.com/carlosrabelo/voicevlan/domain/entities"
	"github.com/carlosrabelo/voicevlan/infrastructure/logging"
)

// SSHClient manages an interactive SSH shell with a switch
type SSHClient struct {
	config  entities.SwitchConfig
	client  *ssh.Client
	session *ssh.Session
	stdin   io.WriteCloser
	chunks  chan []byte
	done    chan struct{}
	readErr error
	netConn net.Conn
	prompt  string
	log     *logrus.Entry
}

// NewSSHClient creates a new SSH client with the given configuration
func NewSSHClient(cfg entities.SwitchConfig) *SSHClient {
	return &SSHClient{config: cfg, log: logging.WithDevice(cfg.Target)}
}

// Connect opens the session, enters privileged mode and disables paging
func (sc *SSHClient) Connect() error {
	if sc.IsConnected() {
		return nil
	}
	timeout := timeoutFor(sc.config)
	addr := address(sc.config.Target, "22")
	sshConfig := &ssh.ClientConfig{
		User: sc.config.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(sc.config.Password),
			ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = sc.config.Password
				}
				return answers, nil
			}),
		},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         timeout,
	}

	dialer := &net.Dialer{Timeout: timeout}
	rawConn, err := dialer.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s via SSH: %w", sc.config.Target, err)
	}

	clientConn, chans, reqs, err := ssh.NewClientConn(rawConn, addr, sshConfig)
	if err != nil {
		rawConn.Close()
		return fmt.Errorf("failed to establish SSH client connection to %s: %w", sc.config.Target, err)
	}
	client := ssh.NewClient(clientConn, chans, reqs)
	sc.client = client
	sc.netConn = rawConn

	session, err := client.NewSession()
	if err != nil {
		sc.Disconnect()
		return fmt.Errorf("failed to create SSH session for %s: %w", sc.config.Target, err)
	}
	sc.session = session

	modes := ssh.TerminalModes{
		ssh.ECHO:          0,
		ssh.TTY_OP_ISPEED: 9600,
		ssh.TTY_OP_OSPEED: 9600,
	}
	if err := session.RequestPty("vt100", 80, 40, modes); err != nil {
		sc.Disconnect()
		return fmt.Errorf("failed to request PTY for %s: %w", sc.config.Target, err)
	}
	stdin, err := session.StdinPipe()
	if err != nil {
		sc.Disconnect()
		return fmt.Errorf("failed to get stdin pipe for %s: %w", sc.config.Target, err)
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		sc.Disconnect()
		return fmt.Errorf("failed to get stdout pipe for %s: %w", sc.config.Target, err)
	}
	if err := session.Shell(); err != nil {
		sc.Disconnect()
		return fmt.Errorf("failed to start shell for %s: %w", sc.config.Target, err)
	}
	sc.stdin = stdin
	sc.chunks = make(chan []byte, 16)
	sc.done = make(chan struct{})
	go sc.pump(stdout, sc.chunks, sc.done)
	sc.log.Debug("Connected via SSH")

	if err := sc.enable(timeout); err != nil {
		sc.Disconnect()
		return err
	}
	return nil
}

func (sc *SSHClient) enable(timeout time.Duration) error {
	initial, err := sc.readUntilFunc(atPrompt, "user or privileged prompt", timeout)
	if err != nil {
		return err
	}

	if !strings.HasSuffix(promptLine(initial), PromptPrivileged) {
		sc.log.Debug("Elevating to privileged mode")
		if err := sc.send("enable\n"); err != nil {
			return fmt.Errorf("failed to send enable command to %s: %w", sc.config.Target, err)
		}
		if _, err := sc.readUntil(PromptPassword, timeout); err != nil {
			return err
		}
		if err := sc.send(sc.config.EnablePassword + "\n"); err != nil {
			return fmt.Errorf("failed to send enable password to %s: %w", sc.config.Target, err)
		}
		if _, err := sc.readUntil(PromptPrivileged, timeout); err != nil {
			return err
		}
	} else {
		sc.log.Debug("Already in privileged mode")
	}

	if err := sc.send(TerminalLengthCmd); err != nil {
		return fmt.Errorf("failed to send terminal length command to %s: %w", sc.config.Target, err)
	}
	output, err := sc.readUntil(PromptPrivileged, timeout)
	if err != nil {
		return err
	}
	sc.prompt = promptLine(output)
	return nil
}

// Disconnect closes the session and the underlying connection
func (sc *SSHClient) Disconnect() {
	if sc.session != nil {
		sc.session.Close()
		sc.session = nil
	}
	if sc.client != nil {
		sc.client.Close()
		sc.client = nil
	}
	if sc.netConn != nil {
		sc.netConn.Close()
		sc.netConn = nil
	}
	if sc.done != nil {
		close(sc.done)
		sc.done = nil
	}
	sc.stdin = nil
	sc.log.Debug("Disconnected")
}

// IsConnected reports whether a shell session is open
func (sc *SSHClient) IsConnected() bool {
	return sc.session != nil && sc.client != nil
}

// Prompt returns the device name shown in the privileged prompt
func (sc *SSHClient) Prompt() string {
	return promptIdentity(sc.prompt)
}

// ExecuteCommand sends a command to the switch and returns its output
func (sc *SSHClient) ExecuteCommand(cmd string) (string, error) {
	if !sc.IsConnected() {
		return "", fmt.Errorf("error executing %s: not connected", cmd)
	}
	sc.log.Debugf("Executing: %s", cmd)
	if err := sc.send(cmd + "\n"); err != nil {
		return "", fmt.Errorf("failed to send command %s: %w", cmd, err)
	}

	marker := sc.prompt
	if marker == "" {
		marker = PromptPrivileged
	}
	output, err := sc.readUntil(marker, timeoutFor(sc.config))
	if err != nil {
		return "", fmt.Errorf("error executing %s: %w", cmd, err)
	}
	output = commandBody(output)
	if sc.config.IsRawOutputEnabled() {
		sc.log.Tracef("Switch output for '%s':\n%s", cmd, output)
	}
	return output, nil
}

func (sc *SSHClient) send(data string) error {
	_, err := sc.stdin.Write([]byte(data))
	return err
}

func (sc *SSHClient) readUntil(pattern string, timeout time.Duration) (string, error) {
	return sc.readUntilAny([]string{pattern}, timeout)
}

func (sc *SSHClient) readUntilAny(patterns []string, timeout time.Duration) (string, error) {
	return sc.readUntilFunc(func(text string) bool {
		for _, pattern := range patterns {
			if strings.Contains(text, pattern) {
				return true
			}
		}
		return false
	}, "prompts "+strings.Join(patterns, ", "), timeout)
}

// readUntilFunc accumulates shell output until match accepts it
func (sc *SSHClient) readUntilFunc(match func(string) bool, what string, timeout time.Duration) (string, error) {
	var output strings.Builder
	output.Grow(BufferSize)
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case chunk, ok := <-sc.chunks:
			if !ok {
				return output.String(), fmt.Errorf("read error: %w", sc.readErr)
			}
			output.Write(chunk)
			if sc.config.IsRawOutputEnabled() {
				sc.log.Tracef("Read: %s", string(chunk))
			}
			if text := output.String(); match(text) {
				return text, nil
			}
		case <-timer.C:
			return output.String(), fmt.Errorf("timeout waiting for %s", what)
		}
	}
}

// pump copies shell output into chunks until the session ends or done closes
func (sc *SSHClient) pump(r io.Reader, chunks chan<- []byte, done <-chan struct{}) {
	defer close(chunks)
	buffer := make([]byte, BufferSize)
	for {
		n, err := r.Read(buffer)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buffer[:n])
			select {
			case chunks <- chunk:
			case <-done:
				return
			}
		}
		if err != nil {
			sc.readErr = err
			return
		}
	}
}
