package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/emberforge/guildbot/src/actions"
	sharedconfig "github.com/emberforge/guildbot/src/config"
	shareddata "github.com/emberforge/guildbot/src/data"
	"github.com/emberforge/guildbot/src/suggestions"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("env: %v", err)
	}

	// One pooled handle shared by every module
	db, err := shareddata.ConnectSQLite(sharedconfig.SQLitePath())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer shareddata.Close(db)

	if err := db.AutoMigrate(&shareddata.Setting{}); err != nil {
		log.Fatalf("db: migrate settings: %v", err)
	}
	if err := suggestions.Migrate(db); err != nil {
		log.Fatalf("db: migrate suggestions: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	base := sharedconfig.LoadBase(db)
	if base.Token == "" {
		log.Fatalf("config: DISCORD_BOT_TOKEN is not set")
	}

	var rdb *redis.Client
	if base.RedisURL != "" {
		rdb, err = shareddata.ConnectRedis(ctx, base.RedisURL)
		if err != nil {
			log.Printf("redis: %v (continuing without cache)", err)
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}

	manager, err := actions.StartAll(ctx, actions.Stores{DB: db, Redis: rdb})
	if err != nil {
		log.Fatalf("actions start: %v", err)
	}
	log.Printf("guildbot: running modules %v", manager.Names())

	// Wait for termination
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	manager.Stop(ctx)
}
