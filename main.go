package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/vitas-brc20/dicer/cmd"
	"github.com/vitas-brc20/dicer/config"
	"github.com/vitas-brc20/dicer/database"
	"github.com/vitas-brc20/dicer/infrastructure"
)

const usage = `usage: dicer [flags] [serve | migrate up|down [steps]|status | issue-token <account>]`

func main() {
	var envFile string
	var tokenTTL time.Duration

	flagSet := pflag.NewFlagSet("dicer", pflag.ContinueOnError)
	flagSet.StringVar(&envFile, "env-file", ".env", "load environment variables from this file when it exists")
	flagSet.DurationVar(&tokenTTL, "token-ttl", 24*time.Hour, "lifetime of tokens minted by issue-token")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			fmt.Fprintln(os.Stderr, usage)
			return
		}
		log.Fatal("Flag error: ", err)
	}
	if help, _ := flagSet.GetBool("help"); help {
		fmt.Fprintln(os.Stderr, usage)
		flagSet.PrintDefaults()
		return
	}

	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.WithError(err).Warn("Failed to load env file")
	}
	configureLogging()

	args := flagSet.Args()
	command := "serve"
	if len(args) > 0 {
		command = args[0]
	}

	switch command {
	case "migrate":
		if err := handleMigrationCommand(args[1:]); err != nil {
			log.Fatal("Migration error: ", err)
		}
	case "issue-token":
		if err := handleIssueToken(args[1:], tokenTTL); err != nil {
			log.Fatal("Token error: ", err)
		}
	case "serve":
		serve()
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
}

func serve() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	if err := cmd.Run(ctx); err != nil {
		log.Fatal("Application error: ", err)
	}
}

// configureLogging reads LOG_LEVEL and ENVIRONMENT directly so migrations log
// the same way without requiring the full server configuration
func configureLogging() {
	level, err := log.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if strings.EqualFold(os.Getenv("ENVIRONMENT"), "production") {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

func handleMigrationCommand(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: dicer migrate [up|down|status] [args...]")
	}

	switch args[0] {
	case "up":
		return database.MigrateUp()
	case "down":
		steps := 1
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid step count %q: %w", args[1], err)
			}
			steps = n
		}
		return database.MigrateDown(steps)
	case "status":
		return database.MigrateStatus()
	default:
		return fmt.Errorf("unknown migration command: %s", args[0])
	}
}

// handleIssueToken prints a signed account token for local testing
func handleIssueToken(args []string, ttl time.Duration) error {
	if len(args) != 1 || args[0] == "" {
		return fmt.Errorf("usage: dicer issue-token <account>")
	}

	cfg := config.Get()
	authorizer := infrastructure.NewTokenAuthorizer(cfg.AdminToken, cfg.JWTSecret)
	token, err := authorizer.IssueAccountToken(args[0], ttl)
	if err != nil {
		return err
	}

	fmt.Println(token)
	return nil
}
