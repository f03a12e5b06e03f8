package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"visaletter-backend/assets"
	"visaletter-backend/config"
	"visaletter-backend/service"
	"visaletter-backend/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var Version = "dev"

// errMissingAssets makes the process exit non-zero after the report was printed
var errMissingAssets = errors.New("policy assets incomplete")

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errMissingAssets) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

type options struct {
	root        string
	storageType string
	strict      bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "assetcheck",
		Short:         "Inspect the policy assets used for cover letter generation",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.root, "root", "r", "", "Asset root (overrides ASSET_ROOT)")
	rootCmd.PersistentFlags().StringVar(&opts.storageType, "storage", "", "Asset storage backend: local, s3 or gcs")
	rootCmd.PersistentFlags().BoolVar(&opts.strict, "strict", false, "Require every named mini-template")

	rootCmd.AddCommand(validateCmd(opts))
	rootCmd.AddCommand(digestCmd(opts))
	rootCmd.AddCommand(rulesCmd())
	rootCmd.AddCommand(previewCmd(opts))

	return rootCmd
}

func validateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load the asset tree and report every missing item",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			bundle, src, err := loadBundle(cmd.Context(), cmd, opts)
			if err != nil {
				var configErr *assets.ConfigurationError
				if errors.As(err, &configErr) {
					fmt.Fprintf(out, "Assets at %s are incomplete. Missing:\n", src)
					for _, m := range configErr.Missing {
						fmt.Fprintf(out, "  - %s\n", m)
					}
					return errMissingAssets
				}
				return err
			}

			fmt.Fprintln(out, "Policy Assets")
			fmt.Fprintln(out, strings.Repeat("=", 40))
			fmt.Fprintf(out, "  Location:    %s\n", bundle.Location)
			fmt.Fprintf(out, "  Strict:      %v\n", bundle.Strict)
			fmt.Fprintf(out, "  Template:    %s\n", bundle.MasterTemplatePath)
			fmt.Fprintf(out, "  Minis:       %d\n", len(bundle.MiniTemplates))
			for _, doc := range bundle.MiniTemplates {
				fmt.Fprintf(out, "    - %s\n", doc.Name)
			}
			fmt.Fprintf(out, "  Samples:     %d\n", len(bundle.Samples))
			fmt.Fprintf(out, "  Fingerprint: %s\n", bundle.Fingerprint)
			fmt.Fprintln(out, "OK")
			return nil
		},
	}
}

func digestCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "digest",
		Short: "Print the style digest built from the samples",
		RunE: func(cmd *cobra.Command, args []string) error {
			bundle, _, err := loadBundle(cmd.Context(), cmd, opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), bundle.StyleDigest)
			return nil
		},
	}
}

func rulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Print the scenario rules in effect, with config overrides applied",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			// Compiling first surfaces bad overrides
			if _, err := service.NewClassifier(cfg.Scenarios); err != nil {
				return err
			}

			rules := service.DefaultScenarioRules()
			for name, expr := range cfg.Scenarios {
				rules[name] = expr
			}
			names := make([]string, 0, len(rules))
			for name := range rules {
				names = append(names, name)
			}
			sort.Strings(names)

			out := cmd.OutOrStdout()
			for _, name := range names {
				marker := ""
				if _, ok := cfg.Scenarios[name]; ok {
					marker = " (override)"
				}
				fmt.Fprintf(out, "%s%s:\n  %s\n", name, marker, strings.Join(strings.Fields(rules[name]), " "))
			}
			return nil
		},
	}
}

func previewCmd(opts *options) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "preview [intake.json]",
		Short: "Compose the prompt for an intake file without calling the model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var fields map[string]any
			if err := json.Unmarshal(data, &fields); err != nil {
				return fmt.Errorf("intake file must be a JSON object: %w", err)
			}

			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			bundle, _, err := loadBundle(cmd.Context(), cmd, opts)
			if err != nil {
				return err
			}
			classifier, err := service.NewClassifier(cfg.Scenarios)
			if err != nil {
				return err
			}

			letterService := service.NewLetterService(
				service.LetterWithAssets(assets.Ready(bundle)),
				service.LetterWithNormalizer(service.NewNormalizer(cfg.Intake.DefaultCompanyName, cfg.Intake.DefaultFunding, classifier.Sponsored)),
				service.LetterWithClassifier(classifier),
				service.LetterWithComposer(service.NewComposer(cfg.Prompt, cfg.Currency)),
			)
			result, err := letterService.PreviewPrompt(cmd.Context(), service.GenerateLetterRequest{Fields: fields})
			if err != nil {
				return err
			}

			return writePreview(cmd.OutOrStdout(), result, asJSON)
		},
	}

	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "Output as JSON")
	return cmd
}

func writePreview(out io.Writer, result *service.PreviewPromptResult, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	fmt.Fprintf(out, "Scenarios: %v\n\n", result.Flags.Active())
	fmt.Fprintln(out, result.Prompt.String())
	return nil
}

func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if opts.root != "" {
		cfg.Assets.Root = opts.root
	}
	if opts.storageType != "" {
		cfg.Assets.StorageType = strings.ToLower(opts.storageType)
	}
	if cmd.Flags().Changed("strict") {
		cfg.Assets.Strict = opts.strict
	}
	return cfg, cfg.Validate()
}

// loadBundle returns the bundle and the storage location it was read from
func loadBundle(ctx context.Context, cmd *cobra.Command, opts *options) (*assets.Bundle, string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, "", err
	}

	src, err := storage.NewStorageFromConfig(ctx, cfg.Assets)
	if err != nil {
		return nil, "", err
	}
	defer storage.Close(src)

	bundle, err := assets.Load(ctx, src, assets.Options{
		Strict: cfg.Assets.Strict,
		Digest: assets.DigestLimits{
			MaxFiles:        cfg.Digest.MaxFiles,
			MaxCharsPerFile: cfg.Digest.MaxCharsPerFile,
			MaxTotalChars:   cfg.Digest.MaxTotalChars,
		},
	})
	return bundle, src.Location(), err
}
