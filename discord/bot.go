package discord

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Intents the bot identifies with. Direct message content does not need the
// privileged message content intent.
const Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers | discordgo.IntentsDirectMessages

// ErrNoToken is returned by NewSession for an empty bot token.
var ErrNoToken = errors.New("discord: bot token required")

// NewSession creates an unopened gateway session for token.
func NewSession(token string) (*discordgo.Session, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	s.Identify.Intents = Intents
	return s, nil
}

// Bot owns the gateway connection and feeds events to a Handler.
type Bot struct {
	session *discordgo.Session
	handler *Handler
	guildID string
	logger  *zap.Logger

	ready atomic.Bool
}

// NewBot wires handler to session. guildID scopes command registration; empty
// registers global commands.
func NewBot(session *discordgo.Session, handler *Handler, guildID string, logger *zap.Logger) *Bot {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bot{
		session: session,
		handler: handler,
		guildID: guildID,
		logger:  logger.Named("discord"),
	}
}

// Ready reports whether the gateway has sent READY and commands are registered.
func (b *Bot) Ready() bool {
	return b.ready.Load()
}

// Probe returns an error until Ready.
func (b *Bot) Probe(context.Context) error {
	if !b.Ready() {
		return errors.New("discord gateway not ready")
	}
	return nil
}

// Run opens the gateway and serves events until ctx is done, then waits for
// in-flight reply waits and closes the connection.
func (b *Bot) Run(ctx context.Context) error {
	removeReady := b.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		appID := r.User.ID
		if r.Application != nil && r.Application.ID != "" {
			appID = r.Application.ID
		}
		if err := RegisterCommands(s, appID, b.guildID); err != nil {
			b.logger.Error("command registration failed", zap.Error(err))
			return
		}
		b.ready.Store(true)
		b.logger.Info("gateway ready",
			zap.String("user", r.User.Username),
			zap.Int("guilds", len(r.Guilds)),
		)
	})
	removeInteraction := b.session.AddHandler(func(_ *discordgo.Session, ic *discordgo.InteractionCreate) {
		b.handler.HandleInteraction(ctx, ic.Interaction)
	})
	removeMessage := b.session.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		b.handler.HandleDirectMessage(m.Message)
	})
	defer func() {
		removeReady()
		removeInteraction()
		removeMessage()
	}()

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("discord open: %w", err)
	}
	b.logger.Info("gateway connected")

	<-ctx.Done()
	b.ready.Store(false)

	b.handler.Wait()
	if err := b.session.Close(); err != nil {
		return fmt.Errorf("discord close: %w", err)
	}
	b.logger.Info("gateway closed")
	return nil
}
