package actions

import (
	"context"
	"fmt"
	"log"

	gamemodule "github.com/emberforge/guildbot/src/actions/game"
	suggestionsmodule "github.com/emberforge/guildbot/src/actions/suggestions"
	"github.com/emberforge/guildbot/src/api"
	"github.com/emberforge/guildbot/src/cache"
	sharedconfig "github.com/emberforge/guildbot/src/config"
	shareddata "github.com/emberforge/guildbot/src/data"
	"github.com/emberforge/guildbot/src/suggestions"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Stores carries the shared connections every module draws from. Redis is
// optional.
type Stores struct {
	DB    *gorm.DB
	Redis *redis.Client
}

// NewEngine builds the suggestion engine over the shared store, fronting the
// guild policy table with the redis cache when one is configured.
func NewEngine(st Stores) (*suggestions.Engine, suggestions.Policies) {
	var policies suggestions.Policies = suggestions.NewPolicyStore(st.DB)
	if st.Redis != nil {
		policies = cache.NewPolicyCache(policies, st.Redis, 0)
	}
	return suggestions.NewEngine(st.DB, policies, suggestions.NewRegistry()), policies
}

// StartAll wires up enabled action modules and starts the manager.
func StartAll(ctx context.Context, st Stores) (*Manager, error) {
	mgr := NewManager()
	engine, policies := NewEngine(st)

	suggestionsCfg := sharedconfig.LoadSuggestionsConfig(st.DB)
	if suggestionsCfg.Enabled {
		mod, err := suggestionsmodule.NewModule(&suggestionsCfg, engine, policies)
		if err != nil {
			return nil, fmt.Errorf("actions: init suggestions module: %w", err)
		}
		if err := mgr.Add(mod); err != nil {
			return nil, fmt.Errorf("actions: add suggestions module: %w", err)
		}
	} else {
		log.Printf("actions: suggestions module disabled via configuration")
	}

	gameCfg := sharedconfig.LoadGameConfig(st.DB)
	if gameCfg.Enabled {
		gameDB, err := shareddata.ConnectMySQL(gameCfg.MySQLDSN)
		if err != nil {
			return nil, fmt.Errorf("actions: connect game store: %w", err)
		}
		mod, err := gamemodule.NewModule(&gameCfg, gameDB)
		if err != nil {
			_ = shareddata.Close(gameDB)
			return nil, fmt.Errorf("actions: init game module: %w", err)
		}
		if err := mgr.Add(mod); err != nil {
			return nil, fmt.Errorf("actions: add game module: %w", err)
		}
	} else {
		log.Printf("actions: game module disabled via configuration")
	}

	apiCfg := sharedconfig.LoadAPIConfig(st.DB)
	if apiCfg.Enabled {
		if err := mgr.Add(api.NewModule(&apiCfg, engine)); err != nil {
			return nil, fmt.Errorf("actions: add api module: %w", err)
		}
	} else {
		log.Printf("actions: api module disabled via configuration")
	}

	if err := mgr.Start(ctx); err != nil {
		return nil, err
	}

	return mgr, nil
}
