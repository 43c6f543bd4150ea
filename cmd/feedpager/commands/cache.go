package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/feedpager/internal/cli/output"
	"github.com/marmos91/feedpager/internal/cli/prompt"
	"github.com/marmos91/feedpager/pkg/cachestore"
	"github.com/marmos91/feedpager/pkg/config"
)

var (
	cachePrefix string
	cacheOutput string
	cacheForce  bool
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the page cache",
	Long: `Inspect or clear the cache store configured in the cache section.

Only keys under the configured namespace are listed or removed unless
--prefix is given.`,
}

var cacheInspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "List cached pages",
	Long: `List the cached pages with their size and age.

Examples:
  feedpager cache inspect
  feedpager cache inspect -o json`,
	RunE: runCacheInspect,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove cached pages",
	Long: `Remove every cached page under the namespace.

Examples:
  feedpager cache clear
  feedpager cache clear --force`,
	RunE: runCacheClear,
}

func init() {
	cacheCmd.PersistentFlags().StringVar(&cachePrefix, "prefix", "", "Key prefix (default: cache.namespace)")
	cacheInspectCmd.Flags().StringVarP(&cacheOutput, "output", "o", "table", "Output format (table|json|yaml)")
	cacheClearCmd.Flags().BoolVarP(&cacheForce, "force", "f", false, "Skip confirmation")

	cacheCmd.AddCommand(cacheInspectCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

// openCache opens the configured store and resolves the key prefix.
func openCache(ctx context.Context) (cachestore.Store, string, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, "", err
	}

	store, err := config.CreateCacheStore(ctx, cfg.Cache)
	if err != nil {
		return nil, "", err
	}
	if err := store.HealthCheck(ctx); err != nil {
		_ = store.Close()
		return nil, "", fmt.Errorf("cache store unhealthy: %w", err)
	}
	return store, cacheKeyPrefix(cachePrefix, cfg.Cache.Namespace), nil
}

func cacheKeyPrefix(flag, namespace string) string {
	switch {
	case flag != "":
		return flag
	case namespace != "":
		return namespace + "/"
	default:
		return ""
	}
}

func runCacheInspect(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(cacheOutput)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	store, prefix, err := openCache(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	entries, err := store.List(ctx, prefix)
	if err != nil {
		return fmt.Errorf("failed to list cache entries: %w", err)
	}

	printer := output.NewPrinter(cmd.OutOrStdout(), format, true)
	if format != output.FormatTable {
		return printer.Print(entries)
	}
	if len(entries) == 0 {
		printer.Println("No cached pages.")
		return nil
	}
	return printer.Print(output.EntryTable{Entries: entries, Now: time.Now()})
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, prefix, err := openCache(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	label := "Remove all cached pages"
	if prefix != "" {
		label = fmt.Sprintf("Remove cached pages under %q", prefix)
	}
	ok, err := prompt.ConfirmWithForce(label, cacheForce)
	if err != nil {
		if prompt.IsAborted(err) {
			return nil
		}
		return err
	}

	printer := output.NewPrinter(cmd.OutOrStdout(), output.FormatTable, true)
	if !ok {
		printer.Warning("Aborted.")
		return nil
	}

	n, err := store.DeleteByPrefix(ctx, prefix)
	if err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	printer.Success(fmt.Sprintf("Removed %d cached pages.", n))
	return nil
}
