package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/ironsheep/menuscan-mcp/internal/config"
	"github.com/ironsheep/menuscan-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := realMain(ctx, os.Args, os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

func realMain(
	ctx context.Context,
	args []string,
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
) error {
	exec := args[0]

	if len(args) > 1 {
		switch args[1] {
		case "--version", "-v", "version":
			fmt.Fprintf(stdout, "menuscan-mcp %s\n", Version)
			fmt.Fprintf(stdout, "  Build time: %s\n", BuildTime)
			fmt.Fprintf(stdout, "  Git commit: %s\n", GitCommit)
			return nil
		}
	}

	// stdout is reserved for the MCP protocol.
	log.SetOutput(stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}

	cfg := config.Default()
	fs := config.NewFlagSet(exec, &cfg)
	fs.SetOutput(stderr)

	scanCmd := newScanCommand(exec, &cfg, stdout, stderr)

	rootCmd := &ffcli.Command{
		Name:       exec,
		ShortUsage: fmt.Sprintf("%v [flags] [<subcommand>]", exec),
		ShortHelp:  "MCP server that scans menu and dish photos",
		LongHelp: "Without a subcommand the server speaks MCP (JSON-RPC 2.0) over\n" +
			"stdin/stdout. Every flag can also be set as MENUSCAN_<FLAG>, in a\n" +
			"-config file, or in .env. GEMINI_API_KEY is accepted for the key.",
		FlagSet:     fs,
		Options:     config.ParseOptions(),
		Subcommands: []*ffcli.Command{scanCmd},
		Exec: func(ctx context.Context, _ []string) error {
			if err := cfg.Complete(); err != nil {
				return err
			}
			return serve(ctx, cfg, stdin, stdout)
		},
	}

	return rootCmd.ParseAndRun(ctx, args[1:])
}

func serve(ctx context.Context, cfg config.Config, stdin io.Reader, stdout io.Writer) error {
	logger := log.Default()
	if cfg.Debug() {
		logger.Printf("Menu Scan MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	session, err := newSession(cfg, logger)
	if err != nil {
		return err
	}

	srv := server.New(session, server.Options{
		Config:  cfg,
		Version: Version,
		Logger:  logger,
	})
	if err := srv.Run(ctx, stdin, stdout); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
