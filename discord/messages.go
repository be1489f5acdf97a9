package discord

// User-facing texts.
const (
	msgRoleNotFound       = "⚠️ Role not found."
	msgAlreadyVerified    = "✅ You are already verified!"
	msgVerified           = "🎉 Verification successful!"
	msgPlatformError      = "⚠️ Could not assign the role. Please contact a moderator."
	msgRateLimited        = "🚫 Too many attempts. Please wait a while and try again."
	msgEnterCode          = "🔒 Enter the following %d characters:\n`%s`"
	msgCodeDM             = "🔒 Your verification code is:\n`%s`\nReply here with it."
	msgStartFirst         = "🕓 Press \"Start verification\" first!"
	msgCheckDMs           = "📩 Check your DMs."
	msgDMClosed           = "⚠️ I could not send you a DM. Please allow direct messages from server members."
	msgDMPrompt           = "💬 Enter the code here!"
	msgDMVerified         = "✅ Verification successful!"
	msgDMInvalid          = "❌ The code is incorrect. Press \"Start verification\" and try again."
	msgDMExpired          = "⌛ Your code has expired. Press \"Start verification\" again."
	msgDMTimedOut         = "⌛ Time is up. Press \"Start verification\" again."
	msgGuildOnly          = "⚠️ This only works inside a server."
	msgInvalidPanelType   = "❌ type must be `button` or `captcha`."
	msgPanelSent          = "✅ %s verification panel sent to <#%s>."
	msgPanelSendFailed    = "⚠️ Could not send the panel to <#%s>."
	msgMissingCommandArgs = "❌ channel and role are required."
)
