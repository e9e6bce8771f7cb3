package suggestions

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/emberforge/guildbot/src/actions/core"
	sharedconfig "github.com/emberforge/guildbot/src/config"
	shareddiscord "github.com/emberforge/guildbot/src/discord"
	"github.com/emberforge/guildbot/src/suggestions"
)

var _ core.Module = (*Module)(nil)

const restoreTimeout = 2 * time.Minute

// Module is the Discord adapter for the suggestion lifecycle.
type Module struct {
	config     *sharedconfig.SuggestionsConfig
	engine     *suggestions.Engine
	policies   suggestions.Policies
	session    *discordgo.Session
	images     *pendingImages
	refresher  *refresher
	runtimeCtx context.Context
	cancel     context.CancelFunc
}

func NewModule(cfg *sharedconfig.SuggestionsConfig, engine *suggestions.Engine, policies suggestions.Policies) (*Module, error) {
	session, err := discordgo.New("Bot " + cfg.Base.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds

	module := &Module{
		config:   cfg,
		engine:   engine,
		policies: policies,
		session:  session,
		images:   newPendingImages(cfg.PendingImageTTL),
	}
	module.refresher = newRefresher(engine.Snapshot, editRecord(session))

	module.initHandlers()
	return module, nil
}

// Name implements actions.Module.
func (m *Module) Name() string { return "suggestions" }

func (m *Module) initHandlers() {
	m.session.AddHandler(m.onReady)
	m.session.AddHandler(m.onInteractionCreate)
}

func (m *Module) onReady(s *discordgo.Session, r *discordgo.Ready) {
	log.Printf("suggestions: logged in as %s", s.State.User.Username)

	if err := shareddiscord.RegisterSlashCommands(s, m.config.Base.GuildID, shareddiscord.SuggestionCommands...); err != nil {
		log.Printf("suggestions: failed to register slash commands: %v", err)
	} else {
		log.Printf("suggestions: slash commands registered")
	}
}

func (m *Module) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := m.runtimeCtx
	if ctx == nil {
		return
	}

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		switch i.ApplicationCommandData().Name {
		case shareddiscord.CommandSuggest:
			m.handleSuggest(ctx, s, i)
		case shareddiscord.CommandSetChannel, shareddiscord.CommandSetReviewerRole, shareddiscord.CommandSetBlockedRole:
			m.handleSetting(ctx, s, i)
		case shareddiscord.CommandApprove:
			m.handleDecision(ctx, s, i, suggestions.StatusApproved)
		case shareddiscord.CommandReject:
			m.handleDecision(ctx, s, i, suggestions.StatusRejected)
		}
	case discordgo.InteractionModalSubmit:
		prefix, token, ok := shareddiscord.ParseCustomID(i.ModalSubmitData().CustomID)
		if ok && prefix == shareddiscord.SuggestionModalPrefix {
			m.handleModalSubmit(ctx, s, i, token)
		}
	case discordgo.InteractionMessageComponent:
		prefix, id, ok := shareddiscord.ParseCustomID(i.MessageComponentData().CustomID)
		if !ok {
			return
		}
		switch prefix {
		case shareddiscord.UpvotePrefix:
			m.handleVote(ctx, s, i, id, suggestions.Upvote)
		case shareddiscord.DownvotePrefix:
			m.handleVote(ctx, s, i, id, suggestions.Downvote)
		}
	}
}

// Start restores the live-control registry before connecting so that no
// button press can arrive ahead of it.
func (m *Module) Start(ctx context.Context) error {
	runtimeCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.runtimeCtx = runtimeCtx

	restoreCtx, done := context.WithTimeout(runtimeCtx, restoreTimeout)
	n, err := m.engine.Restore(restoreCtx)
	done()
	if err != nil {
		cancel()
		return fmt.Errorf("suggestions: restore open suggestions: %w", err)
	}
	log.Printf("suggestions: reattached %d open suggestions", n)

	if err := m.session.Open(); err != nil {
		cancel()
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}
	return nil
}

func (m *Module) Stop(ctx context.Context) {
	if m.cancel != nil {
		m.cancel()
	}

	if m.session != nil {
		m.session.Close()
	}
}
