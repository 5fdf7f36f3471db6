// Command token mints a bearer token for local testing of the tasks API.
//
//	go run ./cmd/token -user 6f1c...  # prints a token for that user
//
// The signing secret defaults to TASKS_AUTH_JWT_SECRET, read from the
// environment or a .env file.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/phrazzld/tasks-api/internal/config"
	"github.com/phrazzld/tasks-api/internal/service/auth"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	fs.SetOutput(stderr)
	user := fs.String("user", "", "user ID to embed (default: a random UUID)")
	secret := fs.String("secret", os.Getenv(config.EnvPrefix+"_AUTH_JWT_SECRET"), "HMAC signing secret")
	lifetime := fs.Int("lifetime", 60, "token lifetime in minutes")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	userID := uuid.New()
	if *user != "" {
		id, err := uuid.Parse(*user)
		if err != nil {
			fmt.Fprintf(stderr, "invalid -user: %v\n", err)
			return 2
		}
		userID = id
	}

	svc, err := auth.NewJWTService(config.AuthConfig{
		JWTSecret:            *secret,
		TokenLifetimeMinutes: *lifetime,
	})
	if err != nil {
		fmt.Fprintf(stderr, "cannot create token service: %v\n", err)
		return 1
	}

	token, err := svc.GenerateToken(context.Background(), userID)
	if err != nil {
		fmt.Fprintf(stderr, "cannot sign token: %v\n", err)
		return 1
	}

	fmt.Fprintf(stderr, "user_id: %s\n", userID)
	fmt.Fprintln(stdout, token)
	return 0
}
