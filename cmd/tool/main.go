// Command tool runs operator tasks against the account service's configuration:
//
//	tool migrate [up|status]   apply or inspect the users schema
//	tool token -user <id>      mint a session token for manual API calls
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/VaibhavAI05/TasteRail/internal/config"
	"github.com/VaibhavAI05/TasteRail/internal/infrastructure/db/migrations"
	"github.com/VaibhavAI05/TasteRail/internal/infrastructure/security"
	"github.com/VaibhavAI05/TasteRail/internal/logger"
)

func main() {
	logger.Init()
	os.Exit(run(os.Args[1:], os.Stdout, config.Load))
}

func run(args []string, out io.Writer, load func() (*config.Config, error)) int {
	if len(args) == 0 {
		usage(out)
		return 2
	}

	cfg, err := load()
	if err != nil {
		logger.Logger.Error().Err(err).Msg("config load failed")
		return 1
	}

	switch args[0] {
	case "migrate":
		err = migrate(cfg, args[1:])
	case "token":
		err = token(cfg, args[1:], out)
	default:
		usage(out)
		return 2
	}
	if err != nil {
		logger.Logger.Error().Err(err).Str("command", args[0]).Msg("command failed")
		return 1
	}
	return 0
}

func usage(out io.Writer) {
	fmt.Fprintln(out, "usage: tool migrate [up|status] | tool token -user <id> [-ttl 1h]")
}

func migrate(cfg *config.Config, args []string) error {
	if cfg.DBAddr == "" {
		return fmt.Errorf("DB_ADDR is not set")
	}
	db, err := config.NewDB(cfg.DBAddr, false)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	action := "up"
	if len(args) > 0 {
		action = args[0]
	}
	switch action {
	case "up":
		if err := migrations.Up(ctx, db); err != nil {
			return err
		}
		logger.Logger.Info().Msg("migrations applied")
		return nil
	case "status":
		return migrations.Status(ctx, db)
	default:
		return fmt.Errorf("unknown migrate action %q", action)
	}
}

func token(cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	fs.SetOutput(out)
	userID := fs.String("user", "", "account id to embed in the token")
	ttl := fs.Duration("ttl", cfg.SessionTTL, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *userID == "" {
		return fmt.Errorf("-user is required")
	}

	signer := security.NewJWTSigner(cfg.SecretKey, security.DefaultIssuer)
	tok, err := signer.SignSessionToken(*userID, *ttl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, tok)
	return err
}
