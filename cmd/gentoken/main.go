// cmd/gentoken/main.go prints a signed access token for local testing.
// Uso: go run ./cmd/gentoken -rol chef -user ana
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"comandas/internal/config"
	"comandas/internal/middleware"

	"github.com/google/uuid"
)

func main() {
	rol := flag.String("rol", middleware.RolAdministrador, "administrador | chef | cajero")
	user := flag.String("user", "admin", "username claim")
	flag.Parse()

	switch *rol {
	case middleware.RolAdministrador, middleware.RolChef, middleware.RolCajero:
	default:
		fmt.Fprintf(os.Stderr, "rol desconocido %q\n", *rol)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if cfg.JWTSecret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET no configurado")
		os.Exit(1)
	}

	ttl := time.Duration(cfg.JWTExpirationHours) * time.Hour
	tok, err := middleware.SignToken(cfg.JWTSecret, uuid.NewString(), *user, *rol, ttl, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "firmando token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(tok)
}
