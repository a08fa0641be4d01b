// An MCP server implementation for Check Point Infinity Events that lets
// AI agents search security event logs with natural language queries
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/peterbourgon/ff/v3"
	"github.com/rs/zerolog"

	"infinity-mcp/internal/constants"
	"infinity-mcp/internal/models"
)

// Version information
var (
	Version   = "dev"     // Set by goreleaser
	CommitSHA = "unknown" // Set by goreleaser
	BuildTime = "unknown" // Set by goreleaser
)

func main() {
	// stdout belongs to the stdio MCP transport; all logging goes to stderr
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	_ = godotenv.Load()

	cfg, err := setupConfig(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("config error")
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "infinity-events-mcp",
		Version: Version,
	}, nil)

	if err := registerAllTools(server, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("register tools")
	}
	registerPrompts(server)

	if cfg.HTTPMode {
		if err := NewHTTPServer(server, cfg, log).Start(); err != nil {
			log.Fatal().Err(err).Msg("http server")
		}
		return
	}

	if err := server.Run(context.Background(), &mcp.StdioTransport{}); err != nil {
		log.Fatal().Err(err).Msg("stdio server")
	}
}

// setupConfig initializes and parses the configuration
func setupConfig(args []string) (models.Config, error) {
	fs := flag.NewFlagSet("infinity-mcp", flag.ExitOnError)

	var cfg models.Config
	fs.StringVar(&cfg.BaseURL, "base-url", constants.DefaultBaseURL, "Infinity API gateway URL")
	fs.StringVar(&cfg.ClientID, "client-id", "", "Infinity API client ID")
	fs.StringVar(&cfg.AccessKey, "access-key", "", "Infinity API access key")
	fs.BoolVar(&cfg.HTTPMode, "http", false, "serve MCP over HTTP instead of stdio")
	fs.StringVar(&cfg.Host, "host", "", "HTTP listen host")
	fs.StringVar(&cfg.Port, "port", "8080", "HTTP listen port")
	fs.BoolVar(&cfg.Debug, "debug", false, "log outbound API requests")
	fs.Float64Var(&cfg.RequestRateLimit, "rate", 1, "Requests per second limit")
	fs.IntVar(&cfg.RequestRateBurst, "burst", 1, "Request burst capacity")

	var configFile string
	fs.StringVar(&configFile, "config", "", "config file path")

	err := ff.Parse(fs, args,
		ff.WithEnvVarPrefix("INFINITY"),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
	)
	if err != nil {
		return cfg, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
