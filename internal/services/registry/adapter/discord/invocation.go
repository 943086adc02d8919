package discord

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	apperrors "github.com/louisbranch/roleplay-registry/internal/platform/errors"
	platformid "github.com/louisbranch/roleplay-registry/internal/platform/id"
)

// Invocation is one slash command, detached from the gateway payload.
type Invocation struct {
	// CorrelationID tags every log line written for this invocation.
	CorrelationID string
	InteractionID string
	Command       string
	UserID        string
	Roles         []string
	Locale        string
	Options       map[string]any
}

// FromInteraction extracts an Invocation from an application command
// interaction. Other interaction types report false.
func FromInteraction(i *discordgo.Interaction) (Invocation, bool) {
	if i == nil || i.Type != discordgo.InteractionApplicationCommand {
		return Invocation{}, false
	}
	data, ok := i.Data.(discordgo.ApplicationCommandInteractionData)
	if !ok {
		return Invocation{}, false
	}
	correlationID, err := platformid.NewID()
	if err != nil {
		correlationID = i.ID
	}
	inv := Invocation{
		CorrelationID: correlationID,
		InteractionID: i.ID,
		Command:       data.Name,
		Locale:        string(i.Locale),
		Options:       make(map[string]any, len(data.Options)),
	}
	switch {
	case i.Member != nil && i.Member.User != nil:
		inv.UserID = i.Member.User.ID
		inv.Roles = i.Member.Roles
	case i.User != nil:
		inv.UserID = i.User.ID
	}
	for _, opt := range data.Options {
		if opt == nil {
			continue
		}
		inv.Options[opt.Name] = opt.Value
	}
	return inv, true
}

func invalidOption(name string) error {
	return apperrors.WithMetadata(
		apperrors.CodeValidationFailed,
		fmt.Sprintf("option %q missing or malformed", name),
		map[string]string{"Field": name},
	)
}

// optionalString returns the trimmed option value, or nil when absent.
func (inv Invocation) optionalString(name string) (*string, error) {
	raw, ok := inv.Options[name]
	if !ok || raw == nil {
		return nil, nil
	}
	s, ok := raw.(string)
	if !ok {
		return nil, invalidOption(name)
	}
	s = strings.TrimSpace(s)
	return &s, nil
}

// requireString returns the option value. Blank values pass through to the
// domain validators.
func (inv Invocation) requireString(name string) (string, error) {
	s, err := inv.optionalString(name)
	if err != nil {
		return "", err
	}
	if s == nil {
		return "", invalidOption(name)
	}
	return *s, nil
}

// requireInt accepts the gateway's float64 encoding as well as native
// integers and numeric strings.
func (inv Invocation) requireInt(name string) (int, error) {
	raw, ok := inv.Options[name]
	if !ok || raw == nil {
		return 0, invalidOption(name)
	}
	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) || v > math.MaxInt32 || v < math.MinInt32 {
			return 0, invalidOption(name)
		}
		return int(v), nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, invalidOption(name)
		}
		return n, nil
	default:
		return 0, invalidOption(name)
	}
}
