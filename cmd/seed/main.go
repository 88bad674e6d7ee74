// Command seed loads the reference fleet and a few demo accounts.  It is
// safe to run repeatedly: airplanes are only inserted into an empty table
// and existing users are left alone.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/iliyamo/airplane-seat-booking/internal/config"
	"github.com/iliyamo/airplane-seat-booking/internal/database"
	"github.com/iliyamo/airplane-seat-booking/internal/logging"
	"github.com/iliyamo/airplane-seat-booking/internal/model"
	"github.com/iliyamo/airplane-seat-booking/internal/repository"
)

var fleet = []model.Airplane{
	{Type: "local", TotalRows: 15, TotalColumns: 4},
	{Type: "regional", TotalRows: 20, TotalColumns: 5},
	{Type: "international", TotalRows: 25, TotalColumns: 6},
}

var demoUsers = []struct{ email, name string }{
	{"alice@example.com", "Alice"},
	{"bob@example.com", "Bob"},
}

func main() {
	password := flag.String("password", "password123", "password for the demo accounts")
	skipUsers := flag.Bool("skip-users", false, "only seed airplanes")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	if err := logging.Init(cfg.Env); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logging.Sync() }()

	if err := seed(cfg, *password, *skipUsers); err != nil {
		logging.L().Errorw("seed failed", "error", err)
		_ = logging.Sync()
		os.Exit(1)
	}
}

func seed(cfg config.Config, password string, skipUsers bool) error {
	log := logging.L()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dsn := cfg.DBDSN
	if dsn == "" {
		dsn = database.MySQLDSN(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	}
	db, err := database.Open(ctx, cfg.DBDriver, dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	airplanes := repository.NewAirplaneRepo(db)
	n, err := airplanes.Count(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		for _, a := range fleet {
			id, err := airplanes.Create(ctx, a)
			if err != nil {
				return fmt.Errorf("create airplane %s: %w", a.Type, err)
			}
			log.Infow("airplane created", "airplane_id", id, "type", a.Type, "rows", a.TotalRows, "columns", a.TotalColumns)
		}
	} else {
		log.Infow("airplanes already present, skipping", "count", n)
	}

	if skipUsers {
		return nil
	}
	users := repository.NewUserRepo(db)
	for _, u := range demoUsers {
		id, err := users.Create(ctx, u.email, u.name, password, cfg.BcryptCost)
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			log.Infow("user exists, skipping", "email", u.email)
		case err != nil:
			return fmt.Errorf("create user %s: %w", u.email, err)
		default:
			log.Infow("user created", "user_id", id, "email", u.email)
		}
	}
	return nil
}
