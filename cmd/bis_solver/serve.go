package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/bis-solver/internal/config"
	"github.com/jonathan/bis-solver/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Starts an HTTP server exposing the optimizer. The game data and profile config are loaded once at startup; each request runs an independent solve.`,
	RunE:  runServe,
}

var (
	servePort       int
	serveDataPath   string
	serveConfigPath string
)

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	serveCmd.Flags().StringVarP(&serveDataPath, "data", "d", "", "Path to game data JSON file (required)")
	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "c", config.DefaultPath, "Path to profile config file")

	if err := serveCmd.MarkFlagRequired("data"); err != nil {
		panic(fmt.Sprintf("failed to mark data flag as required: %v", err))
	}

	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg := server.Config{
		Port:        servePort,
		DataPath:    serveDataPath,
		ConfigPath:  serveConfigPath,
		DatabaseURL: os.Getenv("DATABASE_URL"),
	}

	srv, err := server.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}
