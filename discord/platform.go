package discord

import (
	"context"
	"errors"
	"fmt"

	roleverify "github.com/MrEthical07/roleverify"
	"github.com/bwmarrin/discordgo"
)

// ErrNoGuild is returned when a role grant has no guild in its context.
var ErrNoGuild = errors.New("discord: guild id missing from context")

// Session is the subset of *discordgo.Session the adapter calls.
type Session interface {
	GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error)
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	ApplicationCommandCreate(appID, guildID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error)
}

// Platform grants roles and delivers codes over Discord. It implements
// roleverify.Platform.
type Platform struct {
	api Session
}

func NewPlatform(api Session) *Platform {
	return &Platform{api: api}
}

// RequestRoleGrant adds roleID to userID in the guild carried by ctx.
func (p *Platform) RequestRoleGrant(ctx context.Context, userID, roleID string) error {
	guildID := roleverify.GuildIDFromContext(ctx)
	if guildID == "" {
		return ErrNoGuild
	}
	return p.api.GuildMemberRoleAdd(guildID, userID, roleID, discordgo.WithContext(ctx))
}

// DeliverPrivateCode sends code to userID in a direct message.
func (p *Platform) DeliverPrivateCode(ctx context.Context, userID, code string) error {
	return p.SendDirect(ctx, userID, fmt.Sprintf(msgCodeDM, code))
}

// SendDirect opens (or reuses) the DM channel with userID and posts text.
func (p *Platform) SendDirect(ctx context.Context, userID, text string) error {
	ch, err := p.api.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("open dm channel: %w", err)
	}
	if _, err := p.api.ChannelMessageSend(ch.ID, text, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send dm: %w", err)
	}
	return nil
}

// RoleExists reports whether roleID is one of guildID's roles.
func (p *Platform) RoleExists(ctx context.Context, guildID, roleID string) (bool, error) {
	roles, err := p.api.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return false, err
	}
	for _, r := range roles {
		if r != nil && r.ID == roleID {
			return true, nil
		}
	}
	return false, nil
}
