// Package discord backs the roster with guild roles.
package discord

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/louisbranch/roleplay-registry/internal/services/registry/roster"
)

// Session is the subset of *discordgo.Session the directory calls.
type Session interface {
	GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error)
	GuildRoleCreate(guildID string, data *discordgo.RoleParams, options ...discordgo.RequestOption) (*discordgo.Role, error)
	GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	GuildMember(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error)
}

// Directory maps registry groups to roles in one guild.
type Directory struct {
	session Session
	guildID string

	// ensureMu keeps two approvals of the same name from creating two roles.
	ensureMu sync.Mutex
}

// NewDirectory returns a directory for guildID.
func NewDirectory(session Session, guildID string) (*Directory, error) {
	if session == nil {
		return nil, fmt.Errorf("discord session is required")
	}
	guildID = strings.TrimSpace(guildID)
	if guildID == "" {
		return nil, fmt.Errorf("guild id is required")
	}
	return &Directory{session: session, guildID: guildID}, nil
}

// EnsureGroup returns the role named name, creating it when missing. Names
// match case-insensitively.
func (d *Directory) EnsureGroup(ctx context.Context, name string) (roster.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return roster.Group{}, fmt.Errorf("role name is required")
	}

	d.ensureMu.Lock()
	defer d.ensureMu.Unlock()

	roles, err := d.session.GuildRoles(d.guildID, discordgo.WithContext(ctx))
	if err != nil {
		return roster.Group{}, fmt.Errorf("list roles: %w", err)
	}
	for _, role := range roles {
		if role != nil && strings.EqualFold(role.Name, name) {
			return roster.Group{ID: role.ID, Name: role.Name}, nil
		}
	}

	mentionable := true
	role, err := d.session.GuildRoleCreate(d.guildID, &discordgo.RoleParams{
		Name:        name,
		Mentionable: &mentionable,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return roster.Group{}, fmt.Errorf("create role %q: %w", name, err)
	}
	if role == nil {
		return roster.Group{}, fmt.Errorf("create role %q: empty response", name)
	}
	return roster.Group{ID: role.ID, Name: role.Name}, nil
}

// AddMember grants group's role to the user.
func (d *Directory) AddMember(ctx context.Context, group roster.Group, userRef string) error {
	if strings.TrimSpace(group.ID) == "" {
		return fmt.Errorf("role id is required")
	}
	userRef = strings.TrimSpace(userRef)
	if userRef == "" {
		return fmt.Errorf("user id is required")
	}
	if err := d.session.GuildMemberRoleAdd(d.guildID, userRef, group.ID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("add role %s to %s: %w", group.ID, userRef, err)
	}
	return nil
}

// ResolveUser confirms the user is a member of the guild.
func (d *Directory) ResolveUser(ctx context.Context, userRef string) error {
	userRef = strings.TrimSpace(userRef)
	if userRef == "" {
		return fmt.Errorf("user id is required")
	}
	member, err := d.session.GuildMember(d.guildID, userRef, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("fetch member %s: %w", userRef, err)
	}
	if member == nil || member.User == nil {
		return fmt.Errorf("member %s not found", userRef)
	}
	return nil
}

var (
	_ roster.Directory        = (*Directory)(nil)
	_ roster.IdentityResolver = (*Directory)(nil)
)
