package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

const commandSendVerify = "sendverify"

var manageRoles int64 = discordgo.PermissionManageRoles

// Commands returns the slash commands the bot registers.
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:                     commandSendVerify,
			Description:              "Send a verification panel.",
			DefaultMemberPermissions: &manageRoles,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:         discordgo.ApplicationCommandOptionChannel,
					Name:         "channel",
					Description:  "Channel to post the panel in",
					Required:     true,
					ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
				},
				{
					Type:        discordgo.ApplicationCommandOptionRole,
					Name:        "role",
					Description: "Role granted on verification",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "type",
					Description: "Verification type",
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "button", Value: "button"},
						{Name: "captcha", Value: "captcha"},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "title",
					Description: "Panel title",
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "description",
					Description: "Panel description",
				},
			},
		},
	}
}

// RegisterCommands creates Commands for appID, in guildID when set and
// globally otherwise.
func RegisterCommands(api Session, appID, guildID string) error {
	for _, cmd := range Commands() {
		if _, err := api.ApplicationCommandCreate(appID, guildID, cmd); err != nil {
			return fmt.Errorf("register /%s: %w", cmd.Name, err)
		}
	}
	return nil
}
