package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/feedpager/internal/cli/output"
	"github.com/marmos91/feedpager/internal/cli/prompt"
	"github.com/marmos91/feedpager/pkg/feed"
	"github.com/marmos91/feedpager/pkg/pager"
)

var (
	browsePages       int
	browseSize        int
	browseStrategy    string
	browseOutput      string
	browseInteractive bool
	browseFeedType    string
	browseBaseURL     string
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Page through the feed",
	Long: `Load feed pages through the cache and network tiers.

The first page follows the session strategy. Later pages always come from
the network and refresh the cache.

Examples:
  # First page, cached copy shown first when available
  feedpager browse

  # Three pages of 10 posts, network only
  feedpager browse --pages 3 --size 10 --strategy net_only

  # Every page until the end of the feed, as JSON
  feedpager browse --pages 0 -o json

  # Interactive browser
  feedpager browse -i`,
	RunE: runBrowse,
}

func init() {
	browseCmd.Flags().IntVarP(&browsePages, "pages", "p", 1, "Number of pages to load (0 for all)")
	browseCmd.Flags().IntVarP(&browseSize, "size", "s", 0, "Page size (default: session.page_size)")
	browseCmd.Flags().StringVar(&browseStrategy, "strategy", "", "Cache strategy of the first page (cache_only|net_only|net_cache|cache_then_net)")
	browseCmd.Flags().StringVarP(&browseOutput, "output", "o", "table", "Output format (table|json|yaml)")
	browseCmd.Flags().BoolVarP(&browseInteractive, "interactive", "i", false, "Browse interactively")
	browseCmd.Flags().StringVar(&browseFeedType, "feed-type", "", "Feed type filter (all|text|image|video)")
	browseCmd.Flags().StringVar(&browseBaseURL, "base-url", "", "Feed API base URL")
}

func runBrowse(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if browseStrategy != "" {
		s, err := pager.ParseStrategy(browseStrategy)
		if err != nil {
			return err
		}
		cfg.Session.Strategy = s
	}
	if browseFeedType != "" {
		cfg.Feed.FeedType = browseFeedType
	}
	if browseBaseURL != "" {
		cfg.Feed.BaseURL = browseBaseURL
	}

	format, err := output.ParseFormat(browseOutput)
	if err != nil {
		return err
	}
	printer := output.NewPrinter(cmd.OutOrStdout(), format, true)

	ctx, cancel := signalContext()
	defer cancel()

	p, err := newPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	b, err := newBrowser(p, printer, browseSize)
	if err != nil {
		return err
	}
	defer b.close()

	if browseInteractive {
		return b.interactive(ctx)
	}
	return b.run(ctx, browsePages)
}

// browser drives one session at a time and prints what it answers.
type browser struct {
	pipeline *pipeline
	printer  *output.Printer
	size     int

	session *pager.Session[feed.Post]
	list    *pager.ListState[feed.Post]
}

func newBrowser(p *pipeline, printer *output.Printer, size int) (*browser, error) {
	b := &browser{pipeline: p, printer: printer, size: size}
	if err := b.reset(); err != nil {
		return nil, err
	}
	return b, nil
}

// reset closes the current session and opens a fresh one.
func (b *browser) reset() error {
	b.close()

	list := pager.NewListState[feed.Post](feed.KeyOf)
	session, err := b.pipeline.newSession(list)
	if err != nil {
		return err
	}
	b.session, b.list = session, list
	return nil
}

func (b *browser) close() {
	if b.session != nil {
		b.session.Close()
	}
}

// first loads the first page of the current session.
func (b *browser) first(ctx context.Context) ([]feed.Post, error) {
	before := b.list.LastError()
	items, err := b.session.LoadInitial(ctx, pager.StartKey, b.size).Wait(ctx)
	if err != nil {
		return nil, err
	}
	b.reportFault(before)

	preview := b.list.Preview()
	if len(preview) == 0 {
		return items, nil
	}
	if len(items) == 0 && b.list.LastError() != before {
		b.printer.Hint(fmt.Sprintf("showing %d cached posts, refresh to retry", len(preview)))
		return b.list.Visible(), nil
	}
	b.printer.Hint(fmt.Sprintf("cache preview: %d posts, replaced by the network answer", len(preview)))
	return items, nil
}

// next loads the page after the last answered post. ok is false when there
// is nothing to load.
func (b *browser) next(ctx context.Context) (items []feed.Post, ok bool, err error) {
	if !b.list.HasMore() {
		return nil, false, nil
	}
	return b.forward(ctx)
}

// retry requests the page that last failed on the network again. Loaded
// posts are kept. ok is false when no page failed.
func (b *browser) retry(ctx context.Context) (items []feed.Post, ok bool, err error) {
	if !b.list.CanRetryForward() {
		return nil, false, nil
	}
	return b.forward(ctx)
}

func (b *browser) forward(ctx context.Context) (items []feed.Post, ok bool, err error) {
	key, ok := b.list.NextKey()
	if !ok {
		return nil, false, nil
	}

	before := b.list.LastError()
	items, err = b.session.LoadForward(ctx, key, b.size).Wait(ctx)
	if err != nil {
		return nil, false, err
	}
	b.reportFault(before)
	return items, true, nil
}

func (b *browser) reportFault(before *pager.PageError) {
	if err := b.list.LastError(); err != nil && err != before {
		b.printer.Warning(fmt.Sprintf("network request failed: %v", err))
	}
}

func (b *browser) print(items []feed.Post) error {
	if len(items) == 0 && b.printer.Format() == output.FormatTable {
		b.printer.Println("(no posts)")
		return nil
	}
	return b.printer.Print(output.PostTable(items))
}

// run loads up to pages pages, or every page when pages is 0.
func (b *browser) run(ctx context.Context, pages int) error {
	items, err := b.first(ctx)
	if err != nil {
		return err
	}
	if err := b.print(items); err != nil {
		return err
	}

	for loaded := 1; pages == 0 || loaded < pages; loaded++ {
		items, ok, err := b.next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if len(items) > 0 || b.printer.Format() != output.FormatTable {
			if err := b.print(items); err != nil {
				return err
			}
		}
	}

	if b.list.CanRetryForward() && b.printer.Format() == output.FormatTable {
		b.printer.Hint("stopped at a failed page")
	} else if !b.list.HasMore() && b.printer.Format() == output.FormatTable {
		b.printer.Hint("end of feed")
	}
	return nil
}

func (b *browser) interactive(ctx context.Context) error {
	items, err := b.first(ctx)
	if err != nil {
		return err
	}
	if err := b.print(items); err != nil {
		return err
	}

	for {
		label := fmt.Sprintf("%d posts loaded", b.list.Len())
		action, err := prompt.SelectAction(label, b.list.HasMore(), b.list.CanRetryForward())
		if err != nil {
			if prompt.IsAborted(err) {
				return nil
			}
			return err
		}

		switch action {
		case prompt.ActionNext:
			items, _, err = b.next(ctx)
		case prompt.ActionRetry:
			items, _, err = b.retry(ctx)
		case prompt.ActionRefresh:
			if err = b.reset(); err == nil {
				items, err = b.first(ctx)
			}
		case prompt.ActionQuit:
			return nil
		}
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if err := b.print(items); err != nil {
			return err
		}
		switch {
		case b.list.CanRetryForward():
			b.printer.Hint("page failed, choose retry to load it again")
		case !b.list.HasMore():
			b.printer.Hint("end of feed")
		}
	}
}
