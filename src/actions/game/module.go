package game

import (
	"context"
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"
	"github.com/emberforge/guildbot/src/actions/core"
	sharedconfig "github.com/emberforge/guildbot/src/config"
	"github.com/emberforge/guildbot/src/data"
	shareddiscord "github.com/emberforge/guildbot/src/discord"
	"github.com/emberforge/guildbot/src/game"
	"gorm.io/gorm"
)

var _ core.Module = (*Module)(nil)

// Module exposes the game data layer over slash commands.
type Module struct {
	config     *sharedconfig.GameConfig
	db         *gorm.DB
	store      *game.Store
	session    *discordgo.Session
	runtimeCtx context.Context
	cancel     context.CancelFunc
}

// NewModule takes ownership of db, the game's relational store, and closes
// it on Stop.
func NewModule(cfg *sharedconfig.GameConfig, db *gorm.DB) (*Module, error) {
	if err := game.Migrate(db); err != nil {
		return nil, fmt.Errorf("game: migrate: %w", err)
	}

	session, err := discordgo.New("Bot " + cfg.Base.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds

	module := &Module{
		config:  cfg,
		db:      db,
		store:   game.NewStore(db),
		session: session,
	}
	session.AddHandler(module.onReady)
	session.AddHandler(module.onInteractionCreate)
	return module, nil
}

// Name implements actions.Module.
func (m *Module) Name() string { return "game" }

func (m *Module) onReady(s *discordgo.Session, r *discordgo.Ready) {
	if err := shareddiscord.RegisterSlashCommands(s, m.config.Base.GuildID, shareddiscord.GameCommands...); err != nil {
		log.Printf("game: failed to register slash commands: %v", err)
	} else {
		log.Printf("game: slash commands registered")
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
		case shareddiscord.CommandAdminSetGuildRole:
			m.handleSetGuildRole(ctx, s, i)
		case shareddiscord.CommandAdminAddCharacter:
			m.handleAddCharacter(ctx, s, i)
		case shareddiscord.CommandRoll:
			m.handleRoll(s, i)
		case shareddiscord.CommandCharacter:
			m.handleCharacter(ctx, s, i)
		}
	case discordgo.InteractionModalSubmit:
		if i.ModalSubmitData().CustomID == shareddiscord.CharacterModalID {
			m.handleCharacterModal(ctx, s, i)
		}
	}
}

func (m *Module) Start(ctx context.Context) error {
	runtimeCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.runtimeCtx = runtimeCtx

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
	if m.db != nil {
		if err := data.Close(m.db); err != nil {
			log.Printf("game: close store: %v", err)
		}
	}
}
