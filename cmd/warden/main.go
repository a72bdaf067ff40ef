package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/warden-io/warden-panel/config"
	"github.com/warden-io/warden-panel/logger"
	"github.com/warden-io/warden-panel/models"
)

type exitError struct {
	code int
}

func (e exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func (e exitError) ExitCode() int {
	return e.code
}

func main() {
	if err := run(); err != nil {
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath, apiURL, accessToken, push, username, password, data string

	flagSet := pflag.NewFlagSet("warden", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", os.Getenv("WARDEN_CONFIG"), "path to a YAML configuration file")
	flagSet.StringVar(&apiURL, "api-url", "", "Warden API base URL")
	flagSet.StringVar(&accessToken, "token", "", "access token")
	flagSet.StringVar(&push, "push", "", "push transport: websocket, nats or none")
	flagSet.StringVarP(&username, "username", "u", "", "sign in with this username before running the command")
	flagSet.StringVarP(&password, "password", "p", "", "password used with --username")
	flagSet.StringVarP(&data, "data", "d", "{}", "command payload as a JSON object")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}

	args := flagSet.Args()
	if len(args) != 1 {
		printHelp(flagSet)
		return fmt.Errorf("expected exactly one command, got %d", len(args))
	}
	command := args[0]

	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return fmt.Errorf("--data must be a JSON object: %w", err)
	}

	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return err
	}
	if apiURL != "" {
		cfg.APIURL = apiURL
	}
	if accessToken != "" {
		cfg.AuthToken = accessToken
	}
	if push != "" {
		cfg.PushTransport = push
	}

	logger.New().WithLevel(cfg.LogLevel).Console(true).FromBuffer(os.Stderr).Install()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	panel, err := newPanel(cfg)
	if err != nil {
		return err
	}
	defer panel.close()

	if username != "" {
		if err := panel.signIn(ctx, username, password); err != nil {
			return err
		}
	}
	panel.startPush(ctx)

	panel.operations.Subscribe(command,
		func(outcome models.OperationOutcome) {
			log.Info().Str("name", outcome.Name).Str("request_id", outcome.RequestID).Msg("operation succeeded")
		},
		func(outcome models.OperationOutcome) {
			log.Warn().Str("name", outcome.Name).Str("code", outcome.Code).Str("message", outcome.Message).Msg("operation rejected")
		},
	)

	outcome, err := panel.operations.Execute(ctx, panel.api.Command(command, payload))
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(outcome); err != nil {
		return err
	}
	if !outcome.Success {
		return exitError{code: 1}
	}
	return nil
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `warden runs a panel command and waits for its outcome.

The outcome is printed as JSON. The exit status is 1 when the command was
rejected or did not complete in time.

Usage:
  warden [flags] <command>

Examples:
  warden sign_up -d '{"username":"admin","password":"correct horse"}'
  warden -u admin -p 'correct horse' create_organization -d '{"name":"acme"}'

Flags:
`)
	flagSet.PrintDefaults()
}
