package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ghindex/internal/config"
	"github.com/custodia-labs/ghindex/internal/connectors/github"
	"github.com/custodia-labs/ghindex/internal/core/domain"
	"github.com/custodia-labs/ghindex/internal/core/services"
	"github.com/custodia-labs/ghindex/internal/index"
	"github.com/custodia-labs/ghindex/internal/seed"
	"github.com/custodia-labs/ghindex/internal/storage"
)

// DefaultCacheDir holds the incremental state between runs.
const DefaultCacheDir = ".github-index-cache"

var (
	repoFlag  string
	outFlag   string
	fullFlag  bool
	maxFlag   int
	cacheFlag string
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Crawl the repository and rebuild the search index",
	Long: `Fetches issues and discussions updated since the last run, merges
them into the cached corpus, and rewrites the metadata collection and
search index in the output directory.

Requires a GitHub token in the GH_TOKEN environment variable.`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVar(&repoFlag, "repo", "", "repository slug (owner/name)")
	buildCmd.Flags().StringVar(&outFlag, "out", "", "output directory")
	buildCmd.Flags().BoolVar(&fullFlag, "full", false, "ignore the cached cutoff and resync everything")
	buildCmd.Flags().IntVar(&maxFlag, "max", 0, "cap fetched items per source (testing)")
	buildCmd.Flags().StringVar(&cacheFlag, "cache", DefaultCacheDir, "incremental cache directory")
	_ = buildCmd.MarkFlagRequired("repo")
	_ = buildCmd.MarkFlagRequired("out")

	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, _ []string) error {
	token := os.Getenv("GH_TOKEN")
	if token == "" {
		return domain.ErrMissingToken
	}

	owner, name, err := github.ParseRepo(repoFlag)
	if err != nil {
		return fmt.Errorf("--repo %q: %w", repoFlag, err)
	}

	cfg, err := config.Load("")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	cacheDir := cacheFlag
	if !cmd.Flags().Changed("cache") && cfg.CacheDir != "" {
		cacheDir = cfg.CacheDir
	}
	seedURL := cfg.SeedURL
	if seedURL == "" {
		seedURL = seed.SnapshotURL(repoFlag)
	}

	if fullFlag && maxFlag > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(),
			"warning: --full with --max %d replaces the corpus with at most %d items per source\n",
			maxFlag, maxFlag)
	}

	ctx := cmd.Context()
	client := github.NewClient(ctx, token)

	pipeline := services.NewPipeline(
		github.NewSource(client, owner, name),
		storage.NewCorpusStore(cacheDir),
		storage.NewStateStore(cacheDir),
		seed.NewFetcher(client.HTTPClient(), seedURL),
		index.Build,
	)

	cmd.Printf("Crawling %s...\n", repoFlag)
	summary, err := pipeline.Run(ctx, services.Options{
		OutDir: outFlag,
		Full:   fullFlag,
		Max:    maxFlag,
	})
	if err != nil {
		return err
	}

	cmd.Printf("Fetched %d issues and %d discussions (prior corpus: %d)\n",
		summary.Issues, summary.Discussions, summary.Prior)
	cmd.Printf("Indexed %d documents\n", summary.Merged)
	cmd.Printf("Wrote %s and %s\n",
		filepath.Join(outFlag, index.MetadataFileName),
		filepath.Join(outFlag, index.IndexFileName))
	return nil
}
