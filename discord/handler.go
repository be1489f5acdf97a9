package discord

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	roleverify "github.com/MrEthical07/roleverify"
	"github.com/MrEthical07/roleverify/reply"
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Delivery modes for challenge codes.
const (
	// DeliverEphemeral shows the code in an ephemeral reply to Start; Submit
	// opens the DM wait.
	DeliverEphemeral = "ephemeral"
	// DeliverDM sends the code by DM on Start and waits for the reply at once.
	DeliverDM = "dm"
)

// Handler turns Discord events into Engine operations.
type Handler struct {
	engine   *roleverify.Engine
	api      Session
	platform *Platform
	mailbox  *reply.Mailbox
	delivery string
	logger   *zap.Logger

	wg sync.WaitGroup
}

// NewHandler wires a Handler. mailbox must be the one fed by HandleDirectMessage.
func NewHandler(engine *roleverify.Engine, api Session, mailbox *reply.Mailbox, delivery string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if delivery != DeliverDM {
		delivery = DeliverEphemeral
	}
	return &Handler{
		engine:   engine,
		api:      api,
		platform: NewPlatform(api),
		mailbox:  mailbox,
		delivery: delivery,
		logger:   logger.Named("discord"),
	}
}

// Wait blocks until every reply wait started by the handler has finished.
func (h *Handler) Wait() {
	h.wg.Wait()
}

// HandleInteraction dispatches a slash command or a panel button press. ctx
// bounds any reply wait the interaction starts.
func (h *Handler) HandleInteraction(ctx context.Context, i *discordgo.Interaction) {
	if i == nil {
		return
	}

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		if i.ApplicationCommandData().Name == commandSendVerify {
			h.handleSendVerify(ctx, i)
		}
	case discordgo.InteractionMessageComponent:
		ctrl, err := ParseCustomID(i.MessageComponentData().CustomID)
		if err != nil {
			return
		}
		if i.GuildID == "" || i.Member == nil || i.Member.User == nil {
			h.respond(i, msgGuildOnly)
			return
		}
		ctx = roleverify.WithChannelID(roleverify.WithGuildID(ctx, i.GuildID), i.ChannelID)

		switch ctrl.Action {
		case ActionVerify:
			h.handleInstant(ctx, i, ctrl.RoleID)
		case ActionStart:
			h.handleStart(ctx, i, ctrl.RoleID)
		case ActionSubmit:
			h.handleSubmit(ctx, i, ctrl.RoleID)
		}
	}
}

// HandleDirectMessage hands a DM to the waiting challenge, if any. It reports
// whether a wait consumed the message.
func (h *Handler) HandleDirectMessage(m *discordgo.Message) bool {
	if m == nil || m.Author == nil || m.Author.Bot || m.GuildID != "" {
		return false
	}
	return h.mailbox.Deliver(m.Author.ID, m.Content)
}

func (h *Handler) handleInstant(ctx context.Context, i *discordgo.Interaction, roleID string) {
	if !h.roleAvailable(ctx, i, roleID) {
		return
	}

	userID := i.Member.User.ID
	hasRole := slices.Contains(i.Member.Roles, roleID)
	decision, err := h.engine.Acknowledge(ctx, userID, roleID, hasRole)
	if err != nil && decision.Reason != roleverify.OutcomePlatformUnavailable {
		h.logger.Error("acknowledge failed", zap.String("user_id", userID), zap.Error(err))
	}

	switch decision.Reason {
	case roleverify.OutcomeAlreadyVerified:
		h.respond(i, msgAlreadyVerified)
	case roleverify.OutcomeGranted:
		h.respond(i, msgVerified)
	default:
		h.respond(i, msgPlatformError)
	}
}

func (h *Handler) handleStart(ctx context.Context, i *discordgo.Interaction, roleID string) {
	userID := i.Member.User.ID

	if h.delivery == DeliverDM {
		if !h.roleAvailable(ctx, i, roleID) {
			return
		}
		h.respond(i, msgCheckDMs)
		h.spawn(func() {
			decision, err := h.engine.RunChallenge(ctx, userID, roleID, h.mailbox)
			h.reportChallenge(ctx, userID, decision, err)
		})
		return
	}

	code, err := h.engine.BeginChallenge(ctx, userID)
	if err != nil {
		if errors.Is(err, roleverify.ErrChallengeRateLimited) {
			h.respond(i, msgRateLimited)
			return
		}
		h.logger.Error("begin challenge failed", zap.String("user_id", userID), zap.Error(err))
		h.respond(i, msgPlatformError)
		return
	}
	h.respond(i, fmt.Sprintf(msgEnterCode, len(code), code))
}

func (h *Handler) handleSubmit(ctx context.Context, i *discordgo.Interaction, roleID string) {
	userID := i.Member.User.ID

	if _, ok := h.engine.PendingChallenge(userID); !ok {
		h.respond(i, msgStartFirst)
		return
	}
	if h.delivery == DeliverDM {
		h.respond(i, msgCheckDMs)
		return
	}
	if !h.roleAvailable(ctx, i, roleID) {
		return
	}

	if err := h.platform.SendDirect(ctx, userID, msgDMPrompt); err != nil {
		h.logger.Warn("dm prompt failed", zap.String("user_id", userID), zap.Error(err))
		h.respond(i, msgDMClosed)
		return
	}
	h.respond(i, msgCheckDMs)

	h.spawn(func() {
		decision, err := h.engine.AwaitReply(ctx, userID, roleID, h.mailbox)
		h.reportChallenge(ctx, userID, decision, err)
	})
}

// reportChallenge tells the user, by DM, how their challenge ended.
func (h *Handler) reportChallenge(ctx context.Context, userID string, decision roleverify.GrantDecision, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, roleverify.ErrChallengeSuperseded) {
		return
	}

	var text string
	switch decision.Reason {
	case roleverify.OutcomeGranted:
		text = msgDMVerified
	case roleverify.OutcomeInvalidCode:
		text = msgDMInvalid
	case roleverify.OutcomeExpiredOrNotStarted:
		text = msgDMExpired
	case roleverify.OutcomeTimedOut:
		text = msgDMTimedOut
	case roleverify.OutcomeRateLimited:
		text = msgRateLimited
	default:
		if err != nil {
			h.logger.Warn("challenge failed", zap.String("user_id", userID), zap.Error(err))
		}
		text = msgPlatformError
	}

	if err := h.platform.SendDirect(context.WithoutCancel(ctx), userID, text); err != nil {
		h.logger.Warn("challenge result dm failed", zap.String("user_id", userID), zap.Error(err))
	}
}

func (h *Handler) handleSendVerify(ctx context.Context, i *discordgo.Interaction) {
	opts := commandOptions(i.ApplicationCommandData().Options)

	channelID, roleID := opts["channel"], opts["role"]
	if channelID == "" || roleID == "" {
		h.respond(i, msgMissingCommandArgs)
		return
	}

	kind := opts["type"]
	if kind == "" {
		kind = "button"
	}
	method, err := roleverify.ParseVerificationMethod(kind)
	if err != nil {
		h.respond(i, msgInvalidPanelType)
		return
	}

	vc, err := roleverify.NewVerificationConfig(roleID, method)
	if err != nil {
		h.respond(i, msgMissingCommandArgs)
		return
	}

	panel := BuildPanel(opts["title"], opts["description"], vc)
	if _, err := h.api.ChannelMessageSendComplex(channelID, panel, discordgo.WithContext(ctx)); err != nil {
		h.logger.Warn("panel send failed",
			zap.String("channel_id", channelID),
			zap.String("panel_id", vc.PanelID),
			zap.Error(err),
		)
		h.respond(i, fmt.Sprintf(msgPanelSendFailed, channelID))
		return
	}

	h.logger.Info("panel sent",
		zap.String("guild_id", i.GuildID),
		zap.String("channel_id", channelID),
		zap.String("role_id", roleID),
		zap.String("panel_id", vc.PanelID),
		zap.Stringer("method", vc.Method),
	)
	h.respond(i, fmt.Sprintf(msgPanelSent, panelLabel(kind), channelID))
}

// roleAvailable responds with an error and returns false when the role is
// gone or the guild's roles cannot be read.
func (h *Handler) roleAvailable(ctx context.Context, i *discordgo.Interaction, roleID string) bool {
	ok, err := h.platform.RoleExists(ctx, i.GuildID, roleID)
	if err != nil {
		h.logger.Warn("guild roles lookup failed", zap.String("guild_id", i.GuildID), zap.Error(err))
		h.respond(i, msgPlatformError)
		return false
	}
	if !ok {
		h.respond(i, msgRoleNotFound)
		return false
	}
	return true
}

func (h *Handler) respond(i *discordgo.Interaction, text string) {
	err := h.api.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: text,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		h.logger.Warn("interaction respond failed", zap.String("interaction_id", i.ID), zap.Error(err))
	}
}

func (h *Handler) spawn(fn func()) {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		fn()
	}()
}

func commandOptions(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]string {
	out := make(map[string]string, len(options))
	for _, opt := range options {
		if opt == nil {
			continue
		}
		if v, ok := opt.Value.(string); ok {
			out[opt.Name] = strings.TrimSpace(v)
		}
	}
	return out
}

func panelLabel(kind string) string {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind == "" {
		return ""
	}
	return strings.ToUpper(kind[:1]) + kind[1:]
}
