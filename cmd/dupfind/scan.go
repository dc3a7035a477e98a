package main

import (
	"encoding/json"
	infraServices "go-local-duplicates/internal/infrastructure/services"
	"go-local-duplicates/internal/interfaces/presenters"
	"go-local-duplicates/internal/usecases"

	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan [root]",
	Short: "Print statistics of the files a search would consider",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		root, err := rootArg(args)
		if err != nil {
			return err
		}
		settings, err := cfg.MatchSettings(root)
		if err != nil {
			return err
		}
		if err := applyMatchFlags(cmd, &settings); err != nil {
			return err
		}
		top, _ := cmd.Flags().GetInt("top")

		uc := usecases.NewFileScanningUseCase(infraServices.NewLocalScanner(false), nil)
		uc.SetConfiguration(settings, top, cfg.Processing.MaxStoredErrors)

		ctx, stop := signalContext(cmd)
		defer stop()

		// The flags already live in the use case defaults
		resp, err := uc.ScanFiles(ctx, &usecases.ScanFilesRequest{Root: settings.Root})
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(presenters.ToScanResponseDTO(resp))
		}

		notifier := newNotifier(cmd, cfg)
		notifier.Heading("scan of %s (%s)", settings.Root, resp.Duration)
		notifier.ScanFinished(resp.Statistics, resp.TopExtensions)
		return nil
	},
}

func init() {
	addMatchFlags(scanCmd)
	scanCmd.Flags().Int("top", 10, "number of extensions to list")
	scanCmd.Flags().Bool("json", false, "print the statistics as JSON")
}
