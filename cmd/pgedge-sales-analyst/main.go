/*-------------------------------------------------------------------------
 *
 * pgEdge Sales Analyst
 *
 * Copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"pgedge-sales-analyst/internal/auth"
	"pgedge-sales-analyst/internal/config"
	"pgedge-sales-analyst/internal/database"
	"pgedge-sales-analyst/internal/llm"
	"pgedge-sales-analyst/internal/logging"
	"pgedge-sales-analyst/internal/schema"
	"pgedge-sales-analyst/internal/web"
)

func main() {
	execPath, err := os.Executable()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to get executable path: %v\n", err)
		os.Exit(1)
	}
	defaultConfigPath := config.GetDefaultConfigPath(execPath)

	// Command line flags
	configFile := flag.String("config", defaultConfigPath, "Path to configuration file")
	httpAddr := flag.String("addr", "", "HTTP server address (e.g. :8080)")
	tlsMode := flag.Bool("tls", false, "Enable TLS/HTTPS")
	certFile := flag.String("cert", "", "Path to TLS certificate file")
	keyFile := flag.String("key", "", "Path to TLS key file")
	chainFile := flag.String("chain", "", "Path to TLS certificate chain file (optional)")

	// Database connection flags
	dbURL := flag.String("db-url", "", "Full postgres:// connection URL (overrides component flags)")
	dbHost := flag.String("db-host", "", "Database host")
	dbPort := flag.Int("db-port", 0, "Database port")
	dbName := flag.String("db-name", "", "Database name")
	dbUser := flag.String("db-user", "", "Database user")
	dbPassword := flag.String("db-password", "", "Database password")
	dbSSLMode := flag.String("db-sslmode", "", "Database SSL mode (disable, require, verify-ca, verify-full)")

	// LLM flags
	llmProvider := flag.String("llm-provider", "", "Completion provider: openai, anthropic, or ollama")
	llmModel := flag.String("llm-model", "", "Model name for the completion provider")

	maxRows := flag.Int("max-rows", 0, "Maximum number of result rows to materialize")

	// Diagnostics
	checkEnv := flag.Bool("check-env", false, "Validate configuration and exit")
	checkDB := flag.Bool("check-db", false, "Validate configuration, test the database connection, and exit")

	flag.Parse()

	// Track which flags were explicitly set
	cliFlags := config.CLIFlags{}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "config":
			cliFlags.ConfigFileSet = true
			cliFlags.ConfigFile = *configFile
		case "addr":
			cliFlags.HTTPAddrSet = true
			cliFlags.HTTPAddr = *httpAddr
		case "tls":
			cliFlags.TLSEnabledSet = true
			cliFlags.TLSEnabled = *tlsMode
		case "cert":
			cliFlags.TLSCertSet = true
			cliFlags.TLSCertFile = *certFile
		case "key":
			cliFlags.TLSKeySet = true
			cliFlags.TLSKeyFile = *keyFile
		case "chain":
			cliFlags.TLSChainSet = true
			cliFlags.TLSChainFile = *chainFile
		case "db-url":
			cliFlags.DBURLSet = true
			cliFlags.DBURL = *dbURL
		case "db-host":
			cliFlags.DBHostSet = true
			cliFlags.DBHost = *dbHost
		case "db-port":
			cliFlags.DBPortSet = true
			cliFlags.DBPort = *dbPort
		case "db-name":
			cliFlags.DBNameSet = true
			cliFlags.DBName = *dbName
		case "db-user":
			cliFlags.DBUserSet = true
			cliFlags.DBUser = *dbUser
		case "db-password":
			cliFlags.DBPassSet = true
			cliFlags.DBPassword = *dbPassword
		case "db-sslmode":
			cliFlags.DBSSLSet = true
			cliFlags.DBSSLMode = *dbSSLMode
		case "llm-provider":
			cliFlags.LLMProviderSet = true
			cliFlags.LLMProvider = *llmProvider
		case "llm-model":
			cliFlags.LLMModelSet = true
			cliFlags.LLMModel = *llmModel
		case "max-rows":
			cliFlags.MaxRowsSet = true
			cliFlags.MaxRows = *maxRows
		}
	})

	// Only attempt to load the config file if it exists, unless the user
	// pointed at it explicitly
	configPathForLoad := *configFile
	if !cliFlags.ConfigFileSet {
		if _, err := os.Stat(configPathForLoad); err != nil {
			configPathForLoad = ""
		}
	}

	cfg, err := config.LoadConfig(configPathForLoad, cliFlags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}

	if *checkEnv {
		printConfigSummary(cfg)
		fmt.Println("Configuration OK")
		return
	}

	// Verify TLS files exist if HTTPS is enabled
	if cfg.HTTP.TLS.Enabled {
		if _, err := os.Stat(cfg.HTTP.TLS.CertFile); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: Certificate file not found: %s\n", cfg.HTTP.TLS.CertFile)
			os.Exit(1)
		}
		if _, err := os.Stat(cfg.HTTP.TLS.KeyFile); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: Key file not found: %s\n", cfg.HTTP.TLS.KeyFile)
			os.Exit(1)
		}
		if cfg.HTTP.TLS.ChainFile != "" {
			if _, err := os.Stat(cfg.HTTP.TLS.ChainFile); err != nil {
				fmt.Fprintf(os.Stderr, "ERROR: Chain file not found: %s\n", cfg.HTTP.TLS.ChainFile)
				os.Exit(1)
			}
		}
	}

	// Connect to the sales database
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	dbClient := database.NewClient(&cfg.Database)
	if err := dbClient.Connect(ctx, &cfg.Database); err != nil {
		cancel()
		fmt.Fprintf(os.Stderr, "ERROR: Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	cancel()
	defer dbClient.Close()

	if *checkDB {
		printConfigSummary(cfg)
		fmt.Println("Database connection OK")
		return
	}

	// Password verifier, reloaded when the hash file changes
	verifier := auth.NewVerifier(cfg.Auth.PasswordHash)
	if cfg.Auth.PasswordHashFile != "" {
		watcher, err := auth.NewFileWatcher(cfg.Auth.PasswordHashFile, func() error {
			hash, err := config.ReadSecretFile(cfg.Auth.PasswordHashFile)
			if err != nil {
				return err
			}
			if hash == "" {
				return fmt.Errorf("password hash file is empty")
			}
			verifier.SetHash(hash)
			return nil
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "WARNING: Failed to watch password hash file: %v\n", err)
			fmt.Fprintf(os.Stderr, "         Password changes will require server restart\n")
		} else {
			watcher.Start()
			defer watcher.Stop()
			logging.Info("Watching password hash file", "path", cfg.Auth.PasswordHashFile)
		}
	}

	catalog := schema.DefaultCatalog()
	translator := llm.NewClient(cfg.LLM)
	executor := database.NewExecutor(dbClient, &cfg.Query)
	sessions := auth.NewSessionManager()

	server := web.NewServer(cfg, verifier, sessions, translator, executor, dbClient, catalog)

	if err := server.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Server failed: %v\n", err)
		os.Exit(1)
	}
}

// printConfigSummary reports the effective configuration without secrets
func printConfigSummary(cfg *config.Config) {
	fmt.Printf("HTTP address:     %s\n", cfg.HTTP.Address)
	fmt.Printf("TLS enabled:      %t\n", cfg.HTTP.TLS.Enabled)
	if cfg.Database.URL != "" {
		fmt.Printf("Database:         (connection URL configured)\n")
	} else {
		fmt.Printf("Database:         %s@%s:%d/%s sslmode=%s\n",
			cfg.Database.User, cfg.Database.Host, cfg.Database.Port,
			cfg.Database.Database, cfg.Database.SSLMode)
	}
	fmt.Printf("LLM provider:     %s (model %s)\n", cfg.LLM.Provider, cfg.LLM.Model)
	fmt.Printf("Query row cap:    %d\n", cfg.Query.MaxRows)
	fmt.Printf("Query timeout:    %ds\n", cfg.Query.TimeoutSeconds)
	fmt.Printf("Password hash:    %s\n", maskHash(cfg.Auth.PasswordHash))
}

func maskHash(hash string) string {
	if len(hash) < 8 {
		return "(not set)"
	}
	return hash[:7] + "..."
}
