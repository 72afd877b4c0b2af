package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carlosrabelo/voicevlan/domain/entities"
	"github.com/carlosrabelo/voicevlan/infrastructure/storage"
	"github.com/carlosrabelo/voicevlan/infrastructure/template"
	"github.com/carlosrabelo/voicevlan/platform/ios"
)

const (
	statusCmd   = "show interfaces status"
	stanzaText  = "interface {{{intf}}}\n switchport voice vlan {{{vlan}}}"
	statusTable = `
Port      Name               Status       Vlan       Duplex  Speed Type
Gi1/0/1   Desk 101           connected    10         a-full  a-1000 10/100/1000BaseTX
Gi1/0/2   Desk 102           connected    10         a-full  a-1000 10/100/1000BaseTX
Gi1/0/3   Printer            connected    20         a-full  a-100 10/100/1000BaseTX
Gi1/1/1                      notconnect   1            auto   auto Not Present
Ap1/0/1                      connected    1            auto   auto Unknown
Vlan10                       connected    routed       auto   auto
`
)

type mockSwitchRepo struct {
	connected      bool
	connectErr     error
	connectCalled  bool
	disconnectSeen bool
	prompt         string
	executed       []string
	responses      map[string]string
	execErrors     map[string]error
}

func (m *mockSwitchRepo) Connect() error {
	m.connectCalled = true
	if m.connectErr != nil {
		return m.connectErr
	}
	m.connected = true
	return nil
}

func (m *mockSwitchRepo) Disconnect() {
	m.disconnectSeen = true
	m.connected = false
}

func (m *mockSwitchRepo) ExecuteCommand(cmd string) (string, error) {
	m.executed = append(m.executed, cmd)
	if err, ok := m.execErrors[cmd]; ok {
		return "", err
	}
	return m.responses[cmd], nil
}

func (m *mockSwitchRepo) IsConnected() bool {
	return m.connected
}

func (m *mockSwitchRepo) Prompt() string {
	return m.prompt
}

type mockStore struct {
	saved map[string]string
	err   error
}

func (m *mockStore) Save(identity, content string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if m.saved == nil {
		m.saved = make(map[string]string)
	}
	m.saved[identity] = content
	return identity + ".txt", nil
}

type mockIdentity struct {
	name string
	err  error
}

func (m mockIdentity) ResolveIdentity(context.Context, string) (string, error) {
	return m.name, m.err
}

type recordingObserver struct {
	skipped   []string
	inspected map[string]bool
}

func (r *recordingObserver) InterfaceSkipped(_, iface string) {
	r.skipped = append(r.skipped, iface)
}

func (r *recordingObserver) InterfaceInspected(_, iface string, matched bool) {
	if r.inspected == nil {
		r.inspected = make(map[string]bool)
	}
	r.inspected[iface] = matched
}

func interfaceCmd(iface string) string {
	return "show running-config interface " + iface
}

func newRepo() *mockSwitchRepo {
	return &mockSwitchRepo{
		prompt: "SW-ACCESS-01",
		responses: map[string]string{
			statusCmd:               statusTable,
			interfaceCmd("Gi1/0/1"): "interface GigabitEthernet1/0/1\n switchport access vlan 10\n switchport voice vlan 150\n spanning-tree portfast\n",
			interfaceCmd("Gi1/0/2"): "interface GigabitEthernet1/0/2\n switchport access vlan 10\n switchport voice vlan 1500\n",
			interfaceCmd("Gi1/0/3"): "interface GigabitEthernet1/0/3\n switchport access vlan 20\n",
		},
	}
}

func mustTemplate(t *testing.T) *template.Template {
	t.Helper()
	tmpl, err := template.Parse(stanzaText)
	require.NoError(t, err)
	return tmpl
}

func switchConfig(mode entities.MatchMode) entities.SwitchConfig {
	return entities.SwitchConfig{Target: "10.0.0.1", OldVoiceVlan: "150", NewVoiceVlan: "200", MatchMode: mode}
}

func TestMigrate_WritesRenderedConfig(t *testing.T) {
	repo := newRepo()
	store := &mockStore{}
	obs := &recordingObserver{}
	svc := NewMigrationService(repo, switchConfig(entities.MatchSubstring), ios.New(), mustTemplate(t), store).WithObserver(obs)

	result := svc.Migrate(context.Background(), entities.MigrationRequest{Target: "10.0.0.1"})

	require.NoError(t, result.Err)
	assert.Equal(t, entities.OutcomeMigrated, result.Outcome)
	assert.Equal(t, "SW-ACCESS-01", result.Identity)
	assert.Equal(t, entities.MigrationCandidateSet{"Gi1/0/1", "Gi1/0/2"}, result.Candidates)
	assert.Equal(t, "interface Gi1/0/1\n switchport voice vlan 200\ninterface Gi1/0/2\n switchport voice vlan 200", result.Config)
	assert.Equal(t, result.Config, store.saved["SW-ACCESS-01"])
	assert.Equal(t, "SW-ACCESS-01.txt", result.OutputPath)
	assert.True(t, repo.connectCalled)
	assert.True(t, repo.disconnectSeen)

	assert.Equal(t, []string{"Gi1/1/1", "Ap1/0/1", "Vlan10"}, obs.skipped)
	assert.Equal(t, map[string]bool{"Gi1/0/1": true, "Gi1/0/2": true, "Gi1/0/3": false}, obs.inspected)
	for _, excluded := range []string{"Gi1/1/1", "Ap1/0/1", "Vlan10"} {
		assert.NotContains(t, repo.executed, interfaceCmd(excluded))
	}
}

func TestMigrate_ExactModeRejectsLongerVlan(t *testing.T) {
	store := &mockStore{}
	svc := NewMigrationService(newRepo(), switchConfig(entities.MatchExact), ios.New(), mustTemplate(t), store)

	result := svc.Migrate(context.Background(), entities.MigrationRequest{Target: "10.0.0.1"})

	require.NoError(t, result.Err)
	assert.Equal(t, entities.MigrationCandidateSet{"Gi1/0/1"}, result.Candidates)
}

func TestMigrate_RequestVlansOverrideConfig(t *testing.T) {
	repo := newRepo()
	repo.responses[interfaceCmd("Gi1/0/3")] = "interface GigabitEthernet1/0/3\n switchport voice vlan 151\n"
	store := &mockStore{}
	svc := NewMigrationService(repo, switchConfig(entities.MatchSubstring), ios.New(), mustTemplate(t), store)

	result := svc.Migrate(context.Background(), entities.MigrationRequest{Target: "10.0.0.1", OldVoiceVlan: "151", NewVoiceVlan: "300"})

	require.NoError(t, result.Err)
	assert.Equal(t, entities.MigrationCandidateSet{"Gi1/0/3"}, result.Candidates)
	assert.Equal(t, "interface Gi1/0/3\n switchport voice vlan 300", result.Config)
}

func TestMigrate_NoCandidatesWritesNothing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	repo := &mockSwitchRepo{
		prompt: "SW-EDGE",
		responses: map[string]string{
			statusCmd: "Port  Name  Status\nVlan10      connected\nAp1/0/1     connected\nGi1/1/4     connected\n",
		},
	}
	svc := NewMigrationService(repo, switchConfig(entities.MatchSubstring), ios.New(), mustTemplate(t), storage.NewFileStore(dir))

	result := svc.Migrate(context.Background(), entities.MigrationRequest{Target: "10.0.0.1"})

	require.NoError(t, result.Err)
	assert.Equal(t, entities.OutcomeNoCandidates, result.Outcome)
	assert.True(t, result.Succeeded())
	assert.True(t, result.Candidates.IsEmpty())
	assert.Empty(t, result.OutputPath)
	assert.Equal(t, []string{statusCmd}, repo.executed)
	_, err := os.Stat(dir)
	assert.True(t, errors.Is(err, os.ErrNotExist), "no output may be created")
}

func TestMigrate_IsIdempotent(t *testing.T) {
	dir := t.TempDir()
	store := storage.NewFileStore(dir)
	tmpl := mustTemplate(t)

	first := NewMigrationService(newRepo(), switchConfig(entities.MatchSubstring), ios.New(), tmpl, store).
		Migrate(context.Background(), entities.MigrationRequest{Target: "10.0.0.1"})
	require.NoError(t, first.Err)
	firstBytes, err := os.ReadFile(first.OutputPath)
	require.NoError(t, err)

	second := NewMigrationService(newRepo(), switchConfig(entities.MatchSubstring), ios.New(), tmpl, store).
		Migrate(context.Background(), entities.MigrationRequest{Target: "10.0.0.1"})
	require.NoError(t, second.Err)
	secondBytes, err := os.ReadFile(second.OutputPath)
	require.NoError(t, err)

	assert.Equal(t, first.OutputPath, second.OutputPath)
	assert.Equal(t, filepath.Join(dir, "SW-ACCESS-01_new_voice_vlan.txt"), first.OutputPath)
	assert.Equal(t, firstBytes, secondBytes)
}

func TestMigrate_ConnectionFailure(t *testing.T) {
	repo := &mockSwitchRepo{connectErr: errors.New("connection refused")}
	store := &mockStore{}
	svc := NewMigrationService(repo, switchConfig(entities.MatchSubstring), ios.New(), mustTemplate(t), store)

	result := svc.Migrate(context.Background(), entities.MigrationRequest{Target: "10.0.0.1"})

	assert.Equal(t, entities.OutcomeConnectionFailed, result.Outcome)
	assert.ErrorIs(t, result.Err, entities.ErrConnection)
	assert.ErrorContains(t, result.Err, "connection refused")
	assert.Empty(t, repo.executed)
	assert.Empty(t, store.saved)
}

func TestMigrate_PersistenceFailure(t *testing.T) {
	store := &mockStore{err: errors.New("disk full")}
	svc := NewMigrationService(newRepo(), switchConfig(entities.MatchSubstring), ios.New(), mustTemplate(t), store)

	result := svc.Migrate(context.Background(), entities.MigrationRequest{Target: "10.0.0.1"})

	assert.Equal(t, entities.OutcomePersistenceFailed, result.Outcome)
	assert.ErrorContains(t, result.Err, "disk full")
	assert.Len(t, result.Candidates, 2)
}

func TestMigrate_CommandFailure(t *testing.T) {
	repo := newRepo()
	repo.execErrors = map[string]error{interfaceCmd("Gi1/0/2"): errors.New("timeout waiting for #")}
	svc := NewMigrationService(repo, switchConfig(entities.MatchSubstring), ios.New(), mustTemplate(t), &mockStore{})

	result := svc.Migrate(context.Background(), entities.MigrationRequest{Target: "10.0.0.1"})

	assert.Equal(t, entities.OutcomeFailed, result.Outcome)
	assert.ErrorContains(t, result.Err, "timeout waiting for #")
	assert.True(t, repo.disconnectSeen)
}

func TestMigrate_InvalidRequest(t *testing.T) {
	tests := []struct {
		name string
		cfg  entities.SwitchConfig
		req  entities.MigrationRequest
	}{
		{name: "empty target", req: entities.MigrationRequest{OldVoiceVlan: "10", NewVoiceVlan: "20"}},
		{name: "missing vlans", req: entities.MigrationRequest{Target: "10.0.0.1"}},
		{name: "vlan out of range", req: entities.MigrationRequest{Target: "10.0.0.1", OldVoiceVlan: "4095", NewVoiceVlan: "20"}},
		{name: "same vlans", req: entities.MigrationRequest{Target: "10.0.0.1", OldVoiceVlan: "20", NewVoiceVlan: "20"}},
		{name: "signed old vlan", req: entities.MigrationRequest{Target: "10.0.0.1", OldVoiceVlan: "+150", NewVoiceVlan: "200"}},
		{name: "zero padded old vlan", req: entities.MigrationRequest{Target: "10.0.0.1", OldVoiceVlan: "0150", NewVoiceVlan: "200"}},
		{name: "signed new vlan", req: entities.MigrationRequest{Target: "10.0.0.1", OldVoiceVlan: "150", NewVoiceVlan: "+200"}},
		{name: "zero padded alias of old vlan", req: entities.MigrationRequest{Target: "10.0.0.1", OldVoiceVlan: "150", NewVoiceVlan: "0150"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newRepo()
			svc := NewMigrationService(repo, tt.cfg, ios.New(), mustTemplate(t), &mockStore{})

			result := svc.Migrate(context.Background(), tt.req)

			assert.Equal(t, entities.OutcomeFailed, result.Outcome)
			assert.ErrorIs(t, result.Err, entities.ErrInvalidRequest)
			assert.False(t, repo.connectCalled)
		})
	}
}

func TestMigrate_ResolvesDriverWhenUnset(t *testing.T) {
	repo := newRepo()
	repo.responses["show version"] = "Cisco IOS Software, C2960X Software"
	cfg := switchConfig(entities.MatchSubstring)
	cfg.Platform = "auto"
	store := &mockStore{}

	result := NewMigrationService(repo, cfg, nil, mustTemplate(t), store).
		Migrate(context.Background(), entities.MigrationRequest{Target: "10.0.0.1"})

	require.NoError(t, result.Err)
	assert.Equal(t, entities.OutcomeMigrated, result.Outcome)
	assert.Equal(t, "show version", repo.executed[0])
}

func TestMigrate_UnsupportedPlatform(t *testing.T) {
	repo := newRepo()
	repo.responses["show version"] = "Datacom DmOS 5.6"
	cfg := switchConfig(entities.MatchSubstring)
	cfg.Platform = "auto"

	result := NewMigrationService(repo, cfg, nil, mustTemplate(t), &mockStore{}).
		Migrate(context.Background(), entities.MigrationRequest{Target: "10.0.0.1"})

	assert.Equal(t, entities.OutcomeFailed, result.Outcome)
	assert.ErrorIs(t, result.Err, entities.ErrUnsupportedPlatform)
}

func TestMigrate_Identity(t *testing.T) {
	tests := []struct {
		name     string
		prompt   string
		resolver *mockIdentity
		expected string
	}{
		{name: "prompt", prompt: "SW1", expected: "SW1"},
		{name: "snmp overrides prompt", prompt: "SW1", resolver: &mockIdentity{name: "core-sw1"}, expected: "core-sw1"},
		{name: "snmp failure falls back", prompt: "SW1", resolver: &mockIdentity{err: errors.New("no response")}, expected: "SW1"},
		{name: "target when nothing known", expected: "10.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newRepo()
			repo.prompt = tt.prompt
			store := &mockStore{}
			svc := NewMigrationService(repo, switchConfig(entities.MatchSubstring), ios.New(), mustTemplate(t), store)
			if tt.resolver != nil {
				svc.WithIdentityResolver(*tt.resolver)
			}

			result := svc.Migrate(context.Background(), entities.MigrationRequest{Target: "10.0.0.1"})

			require.NoError(t, result.Err)
			assert.Equal(t, tt.expected, result.Identity)
			assert.Contains(t, store.saved, tt.expected)
		})
	}
}

func TestMigrate_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	repo := newRepo()

	result := NewMigrationService(repo, switchConfig(entities.MatchSubstring), ios.New(), mustTemplate(t), &mockStore{}).
		Migrate(ctx, entities.MigrationRequest{Target: "10.0.0.1"})

	assert.Equal(t, entities.OutcomeFailed, result.Outcome)
	assert.ErrorIs(t, result.Err, context.Canceled)
	assert.False(t, repo.connectCalled)
}

func TestCollectCandidates(t *testing.T) {
	configs := map[string]string{
		"GigabitEthernet1/0/1": "switchport voice vlan 150",
		"GigabitEthernet1/0/2": "switchport voice vlan 151",
	}
	rows := ios.ParseInterfaceStatus("GigabitEthernet1/0/1 connected\nVlan10 connected\nGigabitEthernet1/0/2 connected\n")
	var fetched []string

	candidates, err := CollectCandidates(context.Background(), "sw", rows,
		ios.IsEligible,
		func(iface string) (string, error) {
			fetched = append(fetched, iface)
			return configs[iface], nil
		},
		func(text string) bool { return ios.MatchesVoiceVlan(text, "150", entities.MatchSubstring) },
		&recordingObserver{},
	)

	require.NoError(t, err)
	assert.Equal(t, entities.MigrationCandidateSet{"GigabitEthernet1/0/1"}, candidates)
	assert.Equal(t, []string{"GigabitEthernet1/0/1", "GigabitEthernet1/0/2"}, fetched)
	assert.False(t, slices.Contains(fetched, "Vlan10"))
}

func TestCollectCandidates_FetchError(t *testing.T) {
	rows := ios.ParseInterfaceStatus("Gi1/0/1 connected\nGi1/0/2 connected\n")
	candidates, err := CollectCandidates(context.Background(), "sw", rows,
		ios.IsEligible,
		func(iface string) (string, error) {
			if iface == "Gi1/0/2" {
				return "", errors.New("session closed")
			}
			return "switchport voice vlan 150", nil
		},
		func(text string) bool { return ios.MatchesVoiceVlan(text, "150", entities.MatchSubstring) },
		&recordingObserver{},
	)

	assert.EqualError(t, err, "session closed")
	assert.Equal(t, entities.MigrationCandidateSet{"Gi1/0/1"}, candidates)
}
