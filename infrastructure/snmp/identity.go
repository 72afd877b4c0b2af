package snmp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gosnmp/gosnmp"
)

const (
	sysNameOID     = ".1.3.6.1.2.1.1.5.0"
	defaultPort    = 161
	defaultTimeout = 5 * time.Second
)

type getter interface {
	Get(oids []string) (*gosnmp.SnmpPacket, error)
	Close() error
}

type session struct {
	*gosnmp.GoSNMP
}

func (s session) Close() error {
	if s.Conn == nil {
		return nil
	}
	return s.Conn.Close()
}

// SysNameResolver reads a device name from SNMPv2c sysName.0
type SysNameResolver struct {
	Community string
	Port      uint16
	Timeout   time.Duration
	Retries   int

	dial func(ctx context.Context, params *gosnmp.GoSNMP) (getter, error)
}

// NewSysNameResolver creates a resolver using the given community
func NewSysNameResolver(community string) *SysNameResolver {
	return &SysNameResolver{
		Community: community,
		Port:      defaultPort,
		Timeout:   defaultTimeout,
		Retries:   1,
		dial:      dialUDP,
	}
}

func dialUDP(ctx context.Context, params *gosnmp.GoSNMP) (getter, error) {
	params.Context = ctx
	if err := params.Connect(); err != nil {
		return nil, err
	}
	return session{params}, nil
}

// ResolveIdentity returns the sysName of target, truncated at the first dot
// the way IOS prompts show the hostname.
func (r *SysNameResolver) ResolveIdentity(ctx context.Context, target string) (string, error) {
	params := &gosnmp.GoSNMP{
		Target:    target,
		Port:      r.Port,
		Community: r.Community,
		Version:   gosnmp.Version2c,
		Timeout:   r.Timeout,
		Retries:   r.Retries,
		Transport: "udp",
	}
	client, err := r.dial(ctx, params)
	if err != nil {
		return "", fmt.Errorf("snmp connect to %s: %w", target, err)
	}
	defer client.Close()

	packet, err := client.Get([]string{sysNameOID})
	if err != nil {
		return "", fmt.Errorf("snmp get sysName from %s: %w", target, err)
	}
	name, err := sysNameFromPacket(packet)
	if err != nil {
		return "", fmt.Errorf("snmp sysName from %s: %w", target, err)
	}
	return name, nil
}

func sysNameFromPacket(packet *gosnmp.SnmpPacket) (string, error) {
	if packet == nil || len(packet.Variables) == 0 {
		return "", fmt.Errorf("empty response")
	}
	variable := packet.Variables[0]
	if variable.Type != gosnmp.OctetString {
		return "", fmt.Errorf("unexpected type %v", variable.Type)
	}
	raw, ok := variable.Value.([]byte)
	if !ok {
		return "", fmt.Errorf("unexpected value %T", variable.Value)
	}
	name := strings.TrimSpace(string(raw))
	if idx := strings.IndexByte(name, '.'); idx > 0 {
		name = name[:idx]
	}
	if name == "" {
		return "", fmt.Errorf("sysName is empty")
	}
	return name, nil
}
