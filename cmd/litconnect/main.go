// Command litconnect searches arXiv, PubMed and Europe PMC from the command line.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/helixir/literature-connectors/internal/config"
	"github.com/helixir/literature-connectors/internal/connectors"
	"github.com/helixir/literature-connectors/internal/domain"
	"github.com/helixir/literature-connectors/internal/observability"
	"github.com/helixir/literature-connectors/internal/output"
	"github.com/helixir/literature-connectors/internal/papersources"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// options holds the persistent flags shared by every subcommand.
type options struct {
	configPath string
	format     string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "litconnect",
		Short: "Search scholarly literature sources",
		Long: `litconnect queries arXiv, PubMed and Europe PMC through rate limited,
retrying connectors and prints canonical paper records.

Configuration is read from config.yaml (or --config) and LITCONN_ environment
variables; API keys come from the environment or a .env file only.`,
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("load .env: %w", err)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&opts.format, "format", "f", string(output.FormatTable), "output format: json, yaml or table")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log connector activity to stderr")

	rootCmd.AddCommand(newSourcesCmd(opts))
	rootCmd.AddCommand(newSearchCmd(opts))
	rootCmd.AddCommand(newGetCmd(opts))

	return rootCmd
}

// setup loads configuration and builds the registry and output format.
func (o *options) setup() (*papersources.Registry, output.Format, error) {
	format, err := output.ParseFormat(o.format)
	if err != nil {
		return nil, "", err
	}

	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, "", fmt.Errorf("load config: %w", err)
	}

	logCfg := cfg.Logging.Observability()
	logCfg.Output = "stderr"
	logCfg.Format = "console"
	logCfg.Level = "warn"
	if o.verbose {
		logCfg.Level = "debug"
	}
	logger := observability.NewLogger(logCfg).With().Str("component", "cli").Logger()

	registry, err := connectors.NewRegistry(cfg.PaperSources, cfg.Search.MaxConcurrentSources, logger, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build paper sources: %w", err)
	}
	return registry, format, nil
}

func newSourcesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List the configured literature sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry, format, err := opts.setup()
			if err != nil {
				return err
			}
			return output.WriteSources(cmd.OutOrStdout(), format, registry.AllSources())
		},
	}
}

func newSearchCmd(opts *options) *cobra.Command {
	var (
		limit  int
		offset int
		from   string
		to     string
	)

	cmd := &cobra.Command{
		Use:   "search <source> <query...>",
		Short: "Search one literature source",
		Long: `Search one literature source and print a page of results.

The query is passed to the source as is, so source specific syntax such as
PubMed field tags or Europe PMC fielded search works.`,
		Example: `  litconnect search pubmed "crispr[tiab] AND 2023[dp]"
  litconnect search arxiv graph neural networks --limit 5 --format json
  litconnect search europepmc malaria --offset 25 --from 2020-01-01`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, format, err := opts.setup()
			if err != nil {
				return err
			}
			source, err := lookup(registry, args[0])
			if err != nil {
				return err
			}

			params := papersources.SearchParams{
				Query:      strings.Join(args[1:], " "),
				MaxResults: limit,
				Offset:     offset,
			}
			if params.DateFrom, err = parseDateFlag("from", from); err != nil {
				return err
			}
			if params.DateTo, err = parseDateFlag("to", to); err != nil {
				return err
			}

			result, err := source.Search(cmd.Context(), params)
			if err != nil {
				return fmt.Errorf("search %s: %w", source.SourceType(), err)
			}
			return output.WriteSearchResult(cmd.OutOrStdout(), format, result, offset)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of results (default: the source's configured page size)")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of results to skip")
	cmd.Flags().StringVar(&from, "from", "", "earliest publication date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "latest publication date (YYYY-MM-DD)")

	return cmd
}

func newGetCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "get <source> <id>",
		Short: "Fetch one record by its source identifier",
		Example: `  litconnect get arxiv 2301.00001
  litconnect get pubmed 38012345
  litconnect get europepmc PMC7654321`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, format, err := opts.setup()
			if err != nil {
				return err
			}
			source, err := lookup(registry, args[0])
			if err != nil {
				return err
			}

			paper, err := source.GetByID(cmd.Context(), args[1])
			if err != nil {
				return fmt.Errorf("get %s %s: %w", source.SourceType(), args[1], err)
			}
			return output.WritePaper(cmd.OutOrStdout(), format, paper)
		},
	}
}

func lookup(registry *papersources.Registry, name string) (papersources.PaperSource, error) {
	st, err := domain.ParseSourceType(name)
	if err != nil {
		return nil, err
	}
	return registry.Lookup(st)
}

func parseDateFlag(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return nil, domain.NewValidationError(name, "must be a date in YYYY-MM-DD format")
	}
	return &t, nil
}
