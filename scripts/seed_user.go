// Creates a user document and prints a development bearer token for it.
// Requires auth.provider=jwt.
//
//	go run scripts/seed_user.go -id u1 -name "Ada Lovelace" -email ada@example.com
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	firebase "firebase.google.com/go/v4"

	fbAdapter "github.com/khoahotran/portgen/adapters/firebase"
	"github.com/khoahotran/portgen/adapters/persistence"
	"github.com/khoahotran/portgen/internal/config"
	"github.com/khoahotran/portgen/pkg/auth"
	"github.com/khoahotran/portgen/pkg/logger"
)

func main() {
	id := flag.String("id", "", "user id")
	name := flag.String("name", "", "display name")
	email := flag.String("email", "", "email")
	flag.Parse()
	if *id == "" {
		log.Fatal("-id is required")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}
	if cfg.Auth.Provider != config.AuthJWT {
		log.Fatalf("seed_user only issues tokens for the jwt provider, got %q", cfg.Auth.Provider)
	}
	appLogger := logger.NewZapLogger(cfg.App.Env, cfg.App.LogLevel)
	ctx := context.Background()

	var app *firebase.App
	if cfg.Store.Backend == config.BackendFirestore {
		if app, err = fbAdapter.NewApp(ctx, cfg, appLogger); err != nil {
			log.Fatalf("cannot init Firebase: %v", err)
		}
	}
	store, closeStore, err := persistence.OpenDocumentStore(ctx, cfg, app, appLogger)
	if err != nil {
		log.Fatalf("cannot open document store: %v", err)
	}
	defer closeStore()

	u, err := persistence.NewUserRepo(store).Ensure(ctx, *id, *name, *email)
	if err != nil {
		log.Fatalf("cannot ensure user: %v", err)
	}

	token, err := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenLifespan).GenerateToken(u.ID, *name, *email)
	if err != nil {
		log.Fatalf("cannot sign token: %v", err)
	}
	fmt.Printf("user '%s' has %d portfolio(s)\n", u.ID, len(u.Portfolios))
	fmt.Println(token)
}
