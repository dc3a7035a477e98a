package main

import (
	"context"
	"fmt"
	"go-local-duplicates/internal/domain/entities"
	"go-local-duplicates/internal/infrastructure/config"
	"go-local-duplicates/internal/interfaces/console"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dupfind",
	Short: "Find byte-identical files on the local disk",
	Long: `dupfind walks a directory tree, buckets files by size and compares
same-size files chunk by chunk. Groups of identical files are printed and,
on request, all but one member of each group is moved to the trash or deleted.

Settings come from the config file (--config), then DUPFIND_* environment
variables, then flags.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		if !verbose {
			log.SetOutput(io.Discard)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "configuration file (.yaml, .yml or .json)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "show internal log output")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable coloured output")

	rootCmd.AddCommand(findCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(configCmd)
}

// loadConfig reads --config when given; defaults and environment apply either way
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.LoadConfig(path)
}

func newNotifier(cmd *cobra.Command, cfg *config.Config) *console.Notifier {
	noColor, _ := cmd.Flags().GetBool("no-color")
	return console.NewNotifier(cmd.OutOrStdout(), noColor || cfg.Logging.NoColor)
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// rootArg returns the first argument or the working directory
func rootArg(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return os.Getwd()
}

// applyMatchFlags overrides settings with the flags the user actually set
func applyMatchFlags(cmd *cobra.Command, s *entities.MatchSettings) error {
	flags := cmd.Flags()

	if flags.Changed("recursive") {
		s.Recursive, _ = flags.GetBool("recursive")
	}
	if flags.Changed("contents") {
		s.MatchContents, _ = flags.GetBool("contents")
	}
	if flags.Changed("workers") {
		s.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("include") {
		s.IncludeExt, _ = flags.GetStringSlice("include")
	}
	if flags.Changed("exclude") {
		s.ExcludeExt, _ = flags.GetStringSlice("exclude")
	}
	if flags.Changed("order") {
		raw, _ := flags.GetString("order")
		order, err := entities.ParseMatchOrdering(raw)
		if err != nil {
			return err
		}
		s.Ordering = order
	}
	if flags.Changed("chunk-size") {
		size, err := sizeFlag(cmd, "chunk-size")
		if err != nil {
			return err
		}
		s.ChunkSize = size
	}

	min, max := s.MinSize, s.MaxSize
	if flags.Changed("min-size") {
		size, err := sizeFlag(cmd, "min-size")
		if err != nil {
			return err
		}
		min = size
	}
	if flags.Changed("max-size") {
		size, err := sizeFlag(cmd, "max-size")
		if err != nil {
			return err
		}
		max = size
		if size == 0 {
			// No upper limit, rather than a range swapped to [0, min]
			max = -1
		}
	}
	s.SetSizeRange(min, max)

	return nil
}

func sizeFlag(cmd *cobra.Command, name string) (int64, error) {
	raw, _ := cmd.Flags().GetString(name)
	n, err := humanize.ParseBytes(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid --%s %q: %w", name, raw, err)
	}
	return int64(n), nil
}

// addMatchFlags registers the flags shared by find and scan
func addMatchFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("recursive", "r", true, "descend into subdirectories")
	cmd.Flags().String("min-size", "", "ignore files smaller than this (e.g. 10kb)")
	cmd.Flags().String("max-size", "", "ignore files larger than this (e.g. 2GiB; 0 means no limit)")
	cmd.Flags().StringSlice("include", nil, "only these extensions (e.g. jpg,png)")
	cmd.Flags().StringSlice("exclude", nil, "skip these extensions")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
