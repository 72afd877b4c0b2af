package transport

import (
	"bufio"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carlosrabelo/voicevlan/domain/entities"
)

// serveFakeSwitch accepts one telnet session on loopback and plays an IOS
// login followed by canned command output.
func serveFakeSwitch(t *testing.T, hostname string, responses map[string]string) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		reader := bufio.NewReader(conn)
		readLine := func() (string, bool) {
			line, err := reader.ReadString('\n')
			return strings.TrimSpace(line), err == nil
		}
		script := []string{"Password: ", "\r\n" + hostname + ">", "Password: ", "\r\n" + hostname + "#"}
		io.WriteString(conn, "\r\nUser Access Verification\r\n\r\nUsername: ")
		for _, reply := range script {
			if _, ok := readLine(); !ok {
				return
			}
			io.WriteString(conn, reply)
		}
		for {
			cmd, ok := readLine()
			if !ok {
				return
			}
			io.WriteString(conn, cmd+"\r\n"+responses[cmd]+"\r\n"+hostname+"#")
		}
	}()
	return ln.Addr().String()
}

func TestTelnetClient_Session(t *testing.T) {
	status := "Port      Name   Status       Vlan\r\nGi1/0/1          connected    10\r\nGi1/0/2          connected    10"
	addr := serveFakeSwitch(t, "SW-LAB-01", map[string]string{"show interfaces status": status})

	cfg := entities.SwitchConfig{
		Target:         addr,
		Username:       "admin",
		Password:       "secret",
		EnablePassword: "secret",
		Timeout:        5 * time.Second,
	}
	client := NewTelnetClient(cfg)
	require.NoError(t, client.Connect())
	t.Cleanup(client.Disconnect)

	assert.True(t, client.IsConnected())
	assert.Equal(t, "SW-LAB-01", client.Prompt())

	out, err := client.ExecuteCommand("show interfaces status")
	require.NoError(t, err)
	assert.Contains(t, out, "Gi1/0/1")
	assert.Contains(t, out, "Gi1/0/2")
	assert.NotContains(t, out, "SW-LAB-01#")

	client.Disconnect()
	assert.False(t, client.IsConnected())
}

func TestTelnetClient_ConnectRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	client := NewTelnetClient(entities.SwitchConfig{Target: addr, Timeout: time.Second})
	assert.Error(t, client.Connect())
	assert.False(t, client.IsConnected())
}

func TestTelnetClient_LoginTimeout(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		// never prints a prompt
		time.Sleep(2 * time.Second)
	}()

	client := NewTelnetClient(entities.SwitchConfig{Target: ln.Addr().String(), Timeout: 300 * time.Millisecond})
	err = client.Connect()
	assert.Error(t, err)
	assert.False(t, client.IsConnected())
}
