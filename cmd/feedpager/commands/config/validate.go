package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/feedpager/internal/cli/output"
	"github.com/marmos91/feedpager/pkg/config"
	"github.com/marmos91/feedpager/pkg/pager"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the feedpager configuration file.

Checks for syntax errors, missing required fields, and invalid values.

Examples:
  feedpager config validate
  feedpager config validate --config /etc/feedpager/config.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path := configPath(cmd)

	cfg, err := config.MustLoad(path)
	if err != nil {
		return err
	}
	if path == "" {
		path = config.GetDefaultConfigPath()
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file: %s\n", path)
	_, _ = fmt.Fprintln(out, "Validation: OK")

	if warnings := configWarnings(cfg); len(warnings) > 0 {
		_, _ = fmt.Fprintln(out, "\nWarnings:")
		for _, w := range warnings {
			_, _ = fmt.Fprintf(out, "  - %s\n", w)
		}
	}

	_, _ = fmt.Fprintln(out, "\nConfiguration summary:")
	return output.KeyValues(out, [][2]string{
		{"Feed", cfg.Feed.BaseURL + cfg.Feed.Path},
		{"Cache", cfg.Cache.Type},
		{"Strategy", cfg.Session.Strategy.String()},
		{"Page size", fmt.Sprint(cfg.Session.PageSize)},
		{"Log level", cfg.Logging.Level},
	})
}

// configWarnings lists settings that are valid but probably not intended.
func configWarnings(cfg *config.Config) []string {
	var warnings []string

	if cfg.Cache.Type == "memory" && cfg.Session.Strategy != pager.NetOnly {
		warnings = append(warnings, "memory cache does not survive restarts; the first page of each run is never cached")
	}
	if cfg.Session.Strategy == pager.CacheOnly {
		warnings = append(warnings, "cache_only never contacts the network; forward pages are always empty")
	}
	if cfg.Server.Auth.Enabled && cfg.Feed.Token == "" {
		warnings = append(warnings, "server.auth is enabled but feed.token is empty; browse will be rejected")
	}
	if cfg.Loader.FetchTimeout == 0 {
		warnings = append(warnings, "loader.fetch_timeout is 0; fetches are bounded only by feed.timeout")
	}
	return warnings
}
