package main

import (
	"flag"
	"fmt"
	"go-local-duplicates/internal/infrastructure/config"
	"log"
	"os"
	"path/filepath"
	"text/tabwriter"
)

const (
	defaultConfigPath = "./config/dupfind.yaml"
	appName           = "dupfind server"
	appVersion        = "1.0.0"
)

// envOverrides lists the settings most often changed without touching the file
var envOverrides = []struct{ key, about string }{
	{"SERVER_PORT", "server port (default 8080)"},
	{"DATABASE_PATH", "SQLite database path"},
	{"MATCHING_CHUNK_SIZE", "comparison chunk size, e.g. 4MiB"},
	{"MATCHING_WORKERS", "grouping workers"},
	{"DELETION_MOVE_TO_TRASH", "move removed files to the trash"},
	{"LOGGING_FORMAT", "text or json request logs"},
}

func main() {
	configPath := flag.String("config", defaultConfigPath, "configuration file (.json, .yaml, .yml)")
	version := flag.Bool("version", false, "show version information")
	flag.Usage = usage
	flag.Parse()

	if *version {
		fmt.Printf("%s v%s\n", appName, appVersion)
		return
	}

	if err := run(*configPath); err != nil {
		log.Fatalf("❌ %v", err)
	}
}

func run(configPath string) error {
	log.Printf("🚀 %s v%s", appName, appVersion)

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	app, err := config.NewApplication(configPath)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	return app.Run()
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "%s v%s: HTTP API for finding and removing byte-identical local files\n\n", appName, appVersion)
	fmt.Fprintf(out, "Usage: %s [options]\n\n", filepath.Base(os.Args[0]))
	flag.PrintDefaults()

	fmt.Fprintln(out, "\nEnvironment (overrides the file):")
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, e := range envOverrides {
		fmt.Fprintf(tw, "  %s_%s\t%s\n", config.EnvPrefix, e.key, e.about)
	}
	_ = tw.Flush()

	fmt.Fprintln(out, "\nThe route list is served at GET / once the server is running.")
}
