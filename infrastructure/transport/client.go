package transport

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/carlosrabelo/voicevlan/domain/entities"
)

const (
	DefaultTimeout    = 120 * time.Second
	BufferSize        = 4096
	PromptUsername    = "Username:"
	PromptPassword    = "Password:"
	PromptEnable      = ">"
	PromptPrivileged  = "#"
	TerminalLengthCmd = "terminal length 0\n"
)

var (
	clientCache   = make(map[string]Client)
	clientCacheMu sync.Mutex
)

func cacheKey(cfg entities.SwitchConfig) string {
	keyData := struct {
		Transport      string
		Target         string
		Username       string
		Password       string
		EnablePassword string
		Timeout        time.Duration
	}{
		Transport:      cfg.Transport,
		Target:         cfg.Target,
		Username:       cfg.Username,
		Password:       cfg.Password,
		EnablePassword: cfg.EnablePassword,
		Timeout:        cfg.Timeout,
	}
	bytes, _ := json.Marshal(keyData)
	hash := sha256.Sum256(bytes)
	return hex.EncodeToString(hash[:])
}

// Get returns a cached client for the provided configuration or creates a new one
func Get(cfg entities.SwitchConfig) Client {
	clientCacheMu.Lock()
	defer clientCacheMu.Unlock()
	key := cacheKey(cfg)
	if client, exists := clientCache[key]; exists {
		return client
	}
	client := newClient(cfg)
	clientCache[key] = client
	return client
}

// Release disconnects and forgets the cached client for cfg
func Release(cfg entities.SwitchConfig) {
	clientCacheMu.Lock()
	defer clientCacheMu.Unlock()
	key := cacheKey(cfg)
	if client, exists := clientCache[key]; exists {
		client.Disconnect()
		delete(clientCache, key)
	}
}

// CloseAll releases every cached client session
func CloseAll() {
	clientCacheMu.Lock()
	defer clientCacheMu.Unlock()
	for key, client := range clientCache {
		client.Disconnect()
		delete(clientCache, key)
	}
}

func newClient(cfg entities.SwitchConfig) Client {
	if cfg.Transport == "telnet" {
		return NewTelnetClient(cfg)
	}
	return NewSSHClient(cfg)
}

func timeoutFor(cfg entities.SwitchConfig) time.Duration {
	if cfg.Timeout > 0 {
		return cfg.Timeout
	}
	return DefaultTimeout
}

// address appends defaultPort unless target already names a port
func address(target, defaultPort string) string {
	if _, _, err := net.SplitHostPort(target); err == nil {
		return target
	}
	return net.JoinHostPort(target, defaultPort)
}

// promptLine returns the last non-empty line of output, i.e. the prompt the
// device printed once it was ready, such as "SW1#".
func promptLine(output string) string {
	lines := strings.Split(strings.ReplaceAll(output, "\r", ""), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

// atPrompt reports whether output ends in an unterminated user or
// privileged prompt line. Banner lines may carry '#' or '>' but end in a
// newline.
func atPrompt(output string) bool {
	output = strings.TrimRight(strings.ReplaceAll(output, "\r", ""), " \t")
	line := strings.TrimSpace(output[strings.LastIndex(output, "\n")+1:])
	return strings.HasSuffix(line, PromptPrivileged) || strings.HasSuffix(line, PromptEnable)
}

// promptIdentity strips the mode marker from a prompt line
func promptIdentity(prompt string) string {
	return strings.TrimSpace(strings.Trim(prompt, PromptPrivileged+PromptEnable))
}

// commandBody drops the echoed command and the trailing prompt from output
func commandBody(output string) string {
	lines := strings.Split(output, "\n")
	if len(lines) > 1 {
		return strings.Join(lines[1:len(lines)-1], "\n")
	}
	return ""
}
