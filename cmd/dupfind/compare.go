package main

import (
	"context"
	"encoding/json"
	"errors"
	"go-local-duplicates/internal/domain/entities"
	infraServices "go-local-duplicates/internal/infrastructure/services"
	"go-local-duplicates/internal/interfaces/presenters"
	"go-local-duplicates/internal/usecases"
	"time"

	"github.com/spf13/cobra"
)

var compareCmd = &cobra.Command{
	Use:   "compare <source> <target>",
	Short: "List target files that already exist in source",
	Long: `Compare every file below target with the same-size files below source.
When every target file is found in source the target directory is reported as
safe to delete.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		settings, err := cfg.MatchSettings(args[0])
		if err != nil {
			return err
		}
		if err := applyMatchFlags(cmd, &settings); err != nil {
			return err
		}
		settings = settings.Normalize()

		uc := usecases.NewFolderComparisonUseCase(nil, nil,
			infraServices.NewLocalScanner(false), infraServices.NewChunkComparator())
		uc.SetConfiguration(settings.ChunkSize, settings.Recursive, settings.MinSize)

		asJSON, _ := cmd.Flags().GetBool("json")
		notifier := newNotifier(cmd, cfg)
		var onProgress func(entities.ProgressSnapshot)
		if !asJSON {
			notifier.Heading("comparing %s against %s", args[1], args[0])
			onProgress = throttled(notifier, time.Second)
		}

		ctx, stop := signalContext(cmd)
		defer stop()

		result, errs, err := uc.Compare(ctx, &usecases.CompareFoldersRequest{
			SourceRoot: args[0],
			TargetRoot: args[1],
		}, onProgress)
		cancelled := errors.Is(err, context.Canceled)
		if err != nil && !cancelled {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(presenters.ToComparisonResultDTO(result))
		}

		notifier.ErrorList(errs, 20)
		if cancelled {
			notifier.Warning("comparison cancelled, partial result")
		}
		notifier.ComparisonFinished(result)
		return nil
	},
}

func init() {
	compareCmd.Flags().BoolP("recursive", "r", true, "descend into subdirectories")
	compareCmd.Flags().String("chunk-size", "", "read size of a content comparison (default 4MiB)")
	compareCmd.Flags().String("min-size", "", "ignore files smaller than this")
	compareCmd.Flags().Bool("json", false, "print the result as JSON")
}
