package discord

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/louisbranch/roleplay-registry/internal/services/registry/roster"
)

type fakeSession struct {
	mu        sync.Mutex
	roles     []*discordgo.Role
	members   map[string]*discordgo.Member
	listErr   error
	createErr error
	addErr    error
	created   []string
	granted   []string
	guilds    []string
}

func (f *fakeSession) GuildRoles(guildID string, _ ...discordgo.RequestOption) ([]*discordgo.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.guilds = append(f.guilds, guildID)
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]*discordgo.Role(nil), f.roles...), nil
}

func (f *fakeSession) GuildRoleCreate(guildID string, data *discordgo.RoleParams, _ ...discordgo.RequestOption) (*discordgo.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	role := &discordgo.Role{ID: "role-" + data.Name, Name: data.Name}
	f.roles = append(f.roles, role)
	f.created = append(f.created, data.Name)
	return role, nil
}

func (f *fakeSession) GuildMemberRoleAdd(guildID, userID, roleID string, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return f.addErr
	}
	f.granted = append(f.granted, userID+":"+roleID)
	return nil
}

func (f *fakeSession) GuildMember(guildID, userID string, _ ...discordgo.RequestOption) (*discordgo.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	member, ok := f.members[userID]
	if !ok {
		return nil, errors.New("HTTP 404 Not Found")
	}
	return member, nil
}

func newTestDirectory(t *testing.T, session *fakeSession) *Directory {
	t.Helper()
	dir, err := NewDirectory(session, "G1")
	if err != nil {
		t.Fatalf("new directory: %v", err)
	}
	return dir
}

func TestEnsureGroupReusesExistingRole(t *testing.T) {
	session := &fakeSession{roles: []*discordgo.Role{{ID: "R7", Name: "gun shop"}}}
	dir := newTestDirectory(t, session)

	group, err := dir.EnsureGroup(context.Background(), "Gun Shop")
	if err != nil {
		t.Fatalf("ensure group: %v", err)
	}
	if group != (roster.Group{ID: "R7", Name: "gun shop"}) {
		t.Fatalf("group = %+v, want existing role", group)
	}
	if len(session.created) != 0 {
		t.Fatalf("created = %v, want none", session.created)
	}
	if session.guilds[0] != "G1" {
		t.Fatalf("guild = %q, want G1", session.guilds[0])
	}
}

func TestEnsureGroupCreatesOnce(t *testing.T) {
	session := &fakeSession{}
	dir := newTestDirectory(t, session)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := dir.EnsureGroup(context.Background(), "Ballas"); err != nil {
				t.Errorf("ensure group: %v", err)
			}
		}()
	}
	wg.Wait()
	if len(session.created) != 1 {
		t.Fatalf("created = %v, want one role", session.created)
	}
}

func TestEnsureGroupErrors(t *testing.T) {
	dir := newTestDirectory(t, &fakeSession{listErr: errors.New("503")})
	if _, err := dir.EnsureGroup(context.Background(), "Ballas"); err == nil {
		t.Fatal("expected list failure")
	}
	dir = newTestDirectory(t, &fakeSession{createErr: errors.New("403")})
	if _, err := dir.EnsureGroup(context.Background(), "Ballas"); err == nil {
		t.Fatal("expected create failure")
	}
	if _, err := dir.EnsureGroup(context.Background(), " "); err == nil {
		t.Fatal("expected blank name failure")
	}
}

func TestAddMember(t *testing.T) {
	session := &fakeSession{}
	dir := newTestDirectory(t, session)
	if err := dir.AddMember(context.Background(), roster.Group{ID: "R1"}, "U1"); err != nil {
		t.Fatalf("add member: %v", err)
	}
	if len(session.granted) != 1 || session.granted[0] != "U1:R1" {
		t.Fatalf("granted = %v, want [U1:R1]", session.granted)
	}
	if err := dir.AddMember(context.Background(), roster.Group{}, "U1"); err == nil {
		t.Fatal("expected missing role failure")
	}
	session.addErr = errors.New("403")
	if err := dir.AddMember(context.Background(), roster.Group{ID: "R1"}, "U1"); err == nil {
		t.Fatal("expected session failure")
	}
}

func TestResolveUser(t *testing.T) {
	session := &fakeSession{members: map[string]*discordgo.Member{
		"U1": {User: &discordgo.User{ID: "U1"}},
		"U2": {},
	}}
	dir := newTestDirectory(t, session)
	if err := dir.ResolveUser(context.Background(), "U1"); err != nil {
		t.Fatalf("resolve U1: %v", err)
	}
	for _, ref := range []string{"U2", "U3", ""} {
		if err := dir.ResolveUser(context.Background(), ref); err == nil {
			t.Fatalf("expected resolve %q to fail", ref)
		}
	}
}

func TestNewDirectoryValidation(t *testing.T) {
	if _, err := NewDirectory(nil, "G1"); err == nil {
		t.Fatal("expected nil session error")
	}
	if _, err := NewDirectory(&fakeSession{}, " "); err == nil {
		t.Fatal("expected blank guild error")
	}
}

func TestSynchronizerWithDirectory(t *testing.T) {
	session := &fakeSession{members: map[string]*discordgo.Member{"U1": {User: &discordgo.User{ID: "U1"}}}}
	dir := newTestDirectory(t, session)
	report := roster.NewSynchronizer(dir, dir, roster.DefaultSyncPolicy).Grant(context.Background(), "Gun Shop", "U1")
	if !report.OK() || !report.MemberAdded {
		t.Fatalf("report = %+v", report)
	}
	if len(session.granted) != 1 || session.granted[0] != "U1:role-Gun Shop" {
		t.Fatalf("granted = %v", session.granted)
	}
}
