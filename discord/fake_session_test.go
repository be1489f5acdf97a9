package discord

import (
	"strings"
	"sync"
	"testing"
	"time"

	roleverify "github.com/MrEthical07/roleverify"
	"github.com/MrEthical07/roleverify/reply"
	"github.com/bwmarrin/discordgo"
)

const (
	testGuild   = "guild-1"
	testChannel = "chan-1"
	testRole    = "role-1"
)

type roleAdd struct {
	GuildID string
	UserID  string
	RoleID  string
}

type fakeSession struct {
	mu        sync.Mutex
	roles     []*discordgo.Role
	roleAdds  []roleAdd
	dms       map[string][]string
	sent      map[string][]*discordgo.MessageSend
	responses []string
	commands  []string

	rolesErr   error
	addErr     error
	dmErr      error
	sendErr    error
	commandErr error
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		roles: []*discordgo.Role{{ID: testRole, Name: "Verified"}},
		dms:   make(map[string][]string),
		sent:  make(map[string][]*discordgo.MessageSend),
	}
}

func (f *fakeSession) GuildMemberRoleAdd(guildID, userID, roleID string, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return f.addErr
	}
	f.roleAdds = append(f.roleAdds, roleAdd{GuildID: guildID, UserID: userID, RoleID: roleID})
	return nil
}

func (f *fakeSession) GuildRoles(string, ...discordgo.RequestOption) ([]*discordgo.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rolesErr != nil {
		return nil, f.rolesErr
	}
	return f.roles, nil
}

func (f *fakeSession) UserChannelCreate(recipientID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dmErr != nil {
		return nil, f.dmErr
	}
	return &discordgo.Channel{ID: "dm:" + recipientID, Type: discordgo.ChannelTypeDM}, nil
}

func (f *fakeSession) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	userID := strings.TrimPrefix(channelID, "dm:")
	f.dms[userID] = append(f.dms[userID], content)
	return &discordgo.Message{ChannelID: channelID, Content: content}, nil
}

func (f *fakeSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sent[channelID] = append(f.sent[channelID], data)
	return &discordgo.Message{ChannelID: channelID}, nil
}

func (f *fakeSession) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, resp.Data.Content)
	return nil
}

func (f *fakeSession) ApplicationCommandCreate(appID, guildID string, cmd *discordgo.ApplicationCommand, _ ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.commandErr != nil {
		return nil, f.commandErr
	}
	f.commands = append(f.commands, appID+"/"+guildID+"/"+cmd.Name)
	return cmd, nil
}

func (f *fakeSession) lastResponse() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.responses) == 0 {
		return ""
	}
	return f.responses[len(f.responses)-1]
}

func (f *fakeSession) dmsTo(userID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.dms[userID]...)
}

func (f *fakeSession) roleAddCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.roleAdds)
}

type handlerFixture struct {
	api     *fakeSession
	engine  *roleverify.Engine
	mailbox *reply.Mailbox
	handler *Handler
}

func newHandlerFixture(t *testing.T, delivery string, timeout time.Duration) *handlerFixture {
	t.Helper()

	api := newFakeSession()
	cfg := roleverify.DefaultConfig()
	cfg.Metrics.Enabled = true
	if timeout > 0 {
		cfg.Challenge.Timeout = timeout
	}

	engine, err := roleverify.New().
		WithConfig(cfg).
		WithPlatform(NewPlatform(api)).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	mailbox := reply.NewMailbox()
	return &handlerFixture{
		api:     api,
		engine:  engine,
		mailbox: mailbox,
		handler: NewHandler(engine, api, mailbox, delivery, nil),
	}
}

func buttonPress(userID, customID string, roles ...string) *discordgo.Interaction {
	return &discordgo.Interaction{
		ID:        "ix-" + userID,
		Type:      discordgo.InteractionMessageComponent,
		GuildID:   testGuild,
		ChannelID: testChannel,
		Member: &discordgo.Member{
			User:  &discordgo.User{ID: userID},
			Roles: roles,
		},
		Data: discordgo.MessageComponentInteractionData{
			CustomID:      customID,
			ComponentType: discordgo.ButtonComponent,
		},
	}
}

func directMessage(userID, content string) *discordgo.Message {
	return &discordgo.Message{
		ChannelID: "dm:" + userID,
		Content:   content,
		Author:    &discordgo.User{ID: userID},
	}
}

// codeFromResponse extracts the backtick-quoted code from an ephemeral reply.
func codeFromResponse(t *testing.T, text string) string {
	t.Helper()
	start := strings.Index(text, "`")
	end := strings.LastIndex(text, "`")
	if start < 0 || end <= start {
		t.Fatalf("no code in response %q", text)
	}
	return text[start+1 : end]
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(2 * time.Millisecond)
	}
}
