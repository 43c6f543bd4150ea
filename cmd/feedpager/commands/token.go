package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/feedpager/pkg/feedserver"
)

var (
	tokenSubject string
	tokenUserID  int64
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for the demo feed server",
	Long: `Issue a token signed with server.auth.secret.

The token is accepted by 'feedpager serve' when server.auth.enabled is set.
Store it in feed.token or FEEDPAGER_FEED_TOKEN for 'feedpager browse'.`,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "feedpager-cli", "Token subject")
	tokenCmd.Flags().Int64Var(&tokenUserID, "user-id", 0, "User id claim (default: feed.user_id)")
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	tokens, err := feedserver.NewTokenService(cfg.Server.Auth)
	if err != nil {
		return err
	}

	userID := tokenUserID
	if userID == 0 {
		userID = cfg.Feed.UserID
	}

	token, expires, err := tokens.IssueToken(tokenSubject, userID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out, token)
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expires.Format(time.RFC3339))
	return nil
}
