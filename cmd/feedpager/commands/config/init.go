package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/feedpager/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file",
	Long: `Write a configuration file with default values and a freshly generated
server.auth.secret.

Examples:
  # Create config at the default location
  feedpager config init

  # Create config at a custom path, replacing an existing file
  feedpager config init --config ./feedpager.yaml --force`,
	RunE: runConfigInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configPath(cmd)

	var err error
	if path != "" {
		err = config.InitConfigToPath(path, initForce)
	} else {
		path, err = config.InitConfig(initForce)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file created at: %s\n", path)
	_, _ = fmt.Fprintln(out, "\nNext steps:")
	_, _ = fmt.Fprintln(out, "  1. Start the demo feed: feedpager serve")
	_, _ = fmt.Fprintln(out, "  2. Browse it:          feedpager browse -i")
	return nil
}
