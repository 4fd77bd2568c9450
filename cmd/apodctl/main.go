package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"

	"github.com/apodboard/backend/internal/config"
	"github.com/apodboard/backend/internal/services"
	"github.com/apodboard/backend/internal/storage"
)

const usage = `usage: apodctl <command> [flags]

commands:
  backfill -from YYYY-MM-DD [-to YYYY-MM-DD]   prefetch pictures into the cache
  promote  -email EMAIL                       grant admin rights
  demote   -email EMAIL                       revoke admin rights
  ban      -email EMAIL                       ban an account
  unban    -email EMAIL                       lift a ban
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runID := uuid.NewString()
	log.SetPrefix("[apodctl " + runID[:8] + "] ")

	if err := run(ctx, cfg, os.Args[1], os.Args[2:]); err != nil {
		log.Fatalf("%s: %v", os.Args[1], err)
	}
}

func run(ctx context.Context, cfg *config.Config, cmd string, args []string) error {
	switch cmd {
	case "backfill", "promote", "demote", "ban", "unban":
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
	}

	switch cmd {
	case "backfill":
		return backfill(ctx, cfg, args)
	case "promote", "demote", "ban", "unban":
		return account(ctx, cfg, cmd, args)
	case "-h", "--help", "help":
		fmt.Print(usage)
		return nil
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func backfill(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("backfill", flag.ExitOnError)
	from := fs.String("from", "", "first date (YYYY-MM-DD)")
	to := fs.String("to", "", "last date (YYYY-MM-DD), defaults to -from")
	fs.Parse(args)

	start, err := time.Parse("2006-01-02", *from)
	if err != nil {
		return fmt.Errorf("invalid -from: %w", err)
	}
	end := start
	if *to != "" {
		if end, err = time.Parse("2006-01-02", *to); err != nil {
			return fmt.Errorf("invalid -to: %w", err)
		}
	}

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	nasa := services.NewNASAClient(cfg.NASAAPIKey, cfg.NASAAPIURL, cfg.NASATimeout)
	added, err := services.NewApodService(store, nasa).Backfill(ctx, start, end)
	log.Printf("backfill %s..%s stored %d new posts", start.Format("2006-01-02"), end.Format("2006-01-02"), added)
	return err
}

func account(ctx context.Context, cfg *config.Config, cmd string, args []string) error {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	email := fs.String("email", "", "account email")
	fs.Parse(args)
	if *email == "" {
		return fmt.Errorf("-email is required")
	}

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	users := services.NewUserService(store, services.NewPasswordHasher(cfg.PasswordSalt))
	actions := map[string]func(context.Context, string) error{
		"promote": users.Promote,
		"demote":  users.Demote,
		"ban":     users.Ban,
		"unban":   users.Unban,
	}
	if err := actions[cmd](ctx, *email); err != nil {
		return err
	}
	log.Printf("%s %s: done", cmd, *email)
	return nil
}
