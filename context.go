package roleverify

import "context"

type guildIDContextKey struct{}
type channelIDContextKey struct{}

// WithGuildID attaches the community (guild) the interaction happened in.
// Role grants and audit events read it back.
func WithGuildID(ctx context.Context, guildID string) context.Context {
	return context.WithValue(ctx, guildIDContextKey{}, guildID)
}

// WithChannelID attaches the channel the interaction came from.
func WithChannelID(ctx context.Context, channelID string) context.Context {
	return context.WithValue(ctx, channelIDContextKey{}, channelID)
}

// GuildIDFromContext returns the guild set by WithGuildID, or "".
func GuildIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	guildID, _ := ctx.Value(guildIDContextKey{}).(string)
	return guildID
}

// ChannelIDFromContext returns the channel set by WithChannelID, or "".
func ChannelIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	channelID, _ := ctx.Value(channelIDContextKey{}).(string)
	return channelID
}
