package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	sharedconfig "github.com/emberforge/guildbot/src/config"
	shareddata "github.com/emberforge/guildbot/src/data"
	"github.com/emberforge/guildbot/src/suggestions"
	"github.com/joho/godotenv"
)

var (
	dbFlag      = flag.String("db", "", "Path to the suggestions database (default $SUGGESTIONS_DB_PATH or suggestions.db)")
	timeoutFlag = flag.Duration("timeout", 30*time.Second, "Overall timeout")
	limitFlag   = flag.Int("limit", 50, "Maximum rows for list")
	statusFlag  = flag.String("status", "", "pending|approved|rejected filter for list")
)

const usage = `usage: suggestctl [flags] <command>

commands:
  pending            list open suggestion ids with tallies
  show <id>          print the rendered record of a suggestion
  list <guild-id>    list recent suggestions of a guild
`

func main() {
	log.SetFlags(0)
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	_ = godotenv.Load()

	path := *dbFlag
	if path == "" {
		path = sharedconfig.SQLitePath()
	}
	db, err := shareddata.ConnectSQLite(path)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer shareddata.Close(db)
	if err := suggestions.Migrate(db); err != nil {
		log.Fatalf("db: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeoutFlag)
	defer cancel()

	engine := suggestions.NewEngine(db, nil, nil)
	if err := run(ctx, engine, flag.Args(), os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			flag.Usage()
			os.Exit(2)
		}
		log.Fatalf("suggestctl: %v", err)
	}
}

var errUsage = errors.New("usage")

func run(ctx context.Context, engine *suggestions.Engine, args []string, w io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "pending":
		n := 0
		for id, err := range engine.ReattachOpen(ctx) {
			if err != nil {
				return err
			}
			snap, err := engine.Snapshot(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, summaryLine(snap))
			n++
		}
		fmt.Fprintf(w, "%d pending\n", n)
		return nil
	case "show":
		if len(args) != 2 {
			return errUsage
		}
		snap, err := engine.Snapshot(ctx, strings.ToLower(args[1]))
		if err != nil {
			return err
		}
		fmt.Fprint(w, formatRecord(snap.Record))
		return nil
	case "list":
		if len(args) != 2 {
			return errUsage
		}
		snaps, err := engine.List(ctx, args[1], suggestions.Status(*statusFlag), *limitFlag)
		if err != nil {
			return err
		}
		for i := range snaps {
			fmt.Fprintln(w, summaryLine(&snaps[i]))
		}
		return nil
	default:
		return errUsage
	}
}

func summaryLine(s *suggestions.Snapshot) string {
	return fmt.Sprintf("%s  %-8s  +%d/-%d  %s", s.Suggestion.ID, s.Suggestion.Status, s.Tally.Upvotes, s.Tally.Downvotes, s.Suggestion.Title)
}

func formatRecord(rec suggestions.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", rec.Title)
	if rec.AuthorName != "" {
		fmt.Fprintf(&b, "by %s\n", rec.AuthorName)
	}
	fmt.Fprintf(&b, "status: %s  color: #%06X\n", rec.Status, rec.Color)
	for _, f := range rec.Fields {
		fmt.Fprintf(&b, "\n[%s]\n%s\n", f.Name, f.Value)
	}
	if rec.ImageURL != "" {
		fmt.Fprintf(&b, "\nimage: %s\n", rec.ImageURL)
	}
	fmt.Fprintf(&b, "\n%s\n", rec.Footer)
	return b.String()
}
