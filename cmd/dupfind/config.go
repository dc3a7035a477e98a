package main

import (
	"errors"
	"go-local-duplicates/internal/domain/entities"
	"go-local-duplicates/internal/infrastructure/config"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or change the configuration file",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(cfg)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store new matching defaults in the file named by --config",
	Long: `Store new matching defaults in the file named by --config.

Examples:
  dupfind --config ~/.config/dupfind.yaml config set --order lexicographic --chunk-size 1MiB
  dupfind --config dupfind.json config set --trash=false`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		if path == "" {
			return errors.New("config set needs --config")
		}

		manager, err := config.NewConfigManager(path)
		if err != nil {
			return err
		}

		updated := *manager.GetConfig()
		if err := applyConfigFlags(cmd, &updated); err != nil {
			return err
		}
		if err := manager.UpdateConfig(&updated); err != nil {
			return err
		}

		// Read back what was written, environment overrides included
		if err := manager.ReloadConfig(); err != nil {
			return err
		}
		cfg := manager.GetConfig()
		newNotifier(cmd, cfg).Success("saved %s (order %s, chunk %s, workers %d, trash %v)",
			path, cfg.Matching.Ordering, cfg.Matching.ChunkSize, cfg.Matching.Workers, cfg.Deletion.MoveToTrash)
		return nil
	},
}

func applyConfigFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	if flags.Changed("order") {
		raw, _ := flags.GetString("order")
		order, err := entities.ParseMatchOrdering(raw)
		if err != nil {
			return err
		}
		cfg.Matching.Ordering = order.String()
	}
	if flags.Changed("chunk-size") {
		if _, err := sizeFlag(cmd, "chunk-size"); err != nil {
			return err
		}
		cfg.Matching.ChunkSize, _ = flags.GetString("chunk-size")
	}
	if flags.Changed("workers") {
		cfg.Matching.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("trash") {
		cfg.Deletion.MoveToTrash, _ = flags.GetBool("trash")
	}
	if flags.Changed("database") {
		cfg.Database.Path, _ = flags.GetString("database")
	}
	return nil
}

func init() {
	configSetCmd.Flags().String("order", "", "default member order")
	configSetCmd.Flags().String("chunk-size", "", "default comparison chunk size")
	configSetCmd.Flags().Int("workers", 0, "default number of grouping workers")
	configSetCmd.Flags().Bool("trash", true, "move removed files to the trash")
	configSetCmd.Flags().String("database", "", "SQLite path used by the server")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
