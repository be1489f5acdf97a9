package discord

import (
	roleverify "github.com/MrEthical07/roleverify"
	"github.com/bwmarrin/discordgo"
)

const (
	DefaultPanelTitle       = "Verification"
	DefaultPanelDescription = "Click the button below to verify!"
	panelFooter             = "Verification System"
	panelColor              = 0x3498db
)

// BuildPanel returns the message posted for a verification panel: one embed
// and one row of buttons whose custom IDs carry vc's method and role.
func BuildPanel(title, description string, vc roleverify.VerificationConfig) *discordgo.MessageSend {
	if title == "" {
		title = DefaultPanelTitle
	}
	if description == "" {
		description = DefaultPanelDescription
	}

	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       panelColor,
		Footer:      &discordgo.MessageEmbedFooter{Text: panelFooter},
	}

	return &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: panelButtons(vc)},
		},
	}
}

func panelButtons(vc roleverify.VerificationConfig) []discordgo.MessageComponent {
	if vc.Method == roleverify.MethodChallenge {
		return []discordgo.MessageComponent{
			discordgo.Button{
				Label:    "🧩 Start verification",
				Style:    discordgo.PrimaryButton,
				CustomID: EncodeCustomID(vc.Method, ActionStart, vc.RoleID),
			},
			discordgo.Button{
				Label:    "💬 Submit code",
				Style:    discordgo.SuccessButton,
				CustomID: EncodeCustomID(vc.Method, ActionSubmit, vc.RoleID),
			},
		}
	}
	return []discordgo.MessageComponent{
		discordgo.Button{
			Label:    "✅ Verify",
			Style:    discordgo.SuccessButton,
			CustomID: EncodeCustomID(roleverify.MethodInstant, ActionVerify, vc.RoleID),
		},
	}
}
