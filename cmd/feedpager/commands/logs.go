package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/marmos91/feedpager/pkg/config"
)

var (
	logsFollow bool
	logsLines  int
	logsSince  string
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Tail the feedpager log file",
	Long: `Display and optionally follow the log file configured in logging.output.

Examples:
  # Show last 100 lines (default)
  feedpager logs

  # Follow logs in real-time
  feedpager logs -f -n 20

  # Show logs since a specific time
  feedpager logs --since "2026-01-15T10:00:00Z"`,
	RunE: runLogs,
}

func init() {
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Follow log output")
	logsCmd.Flags().IntVarP(&logsLines, "lines", "n", 100, "Number of lines to show")
	logsCmd.Flags().StringVar(&logsSince, "since", "", "Show logs since timestamp (RFC3339 format)")
}

func runLogs(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logFile := cfg.Logging.Output
	switch strings.ToLower(logFile) {
	case "stdout", "stderr":
		return fmt.Errorf("logging.output is %s, not a file\nSet 'logging.output' to a file path to use this command", logFile)
	}

	var since time.Time
	if logsSince != "" {
		since, err = time.Parse(time.RFC3339, logsSince)
		if err != nil {
			return fmt.Errorf("invalid --since format (use RFC3339): %w", err)
		}
	}

	f, err := os.Open(logFile)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("log file not found: %s", logFile)
		}
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = f.Close() }()

	out := cmd.OutOrStdout()
	lines, err := tailLines(f, logsLines, since)
	if err != nil {
		return err
	}
	for _, line := range lines {
		_, _ = fmt.Fprintln(out, line)
	}

	if !logsFollow {
		return nil
	}

	ctx, cancel := signalContext()
	defer cancel()
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Following %s (Ctrl+C to stop)...\n", logFile)
	return followFile(ctx, logFile, f, out)
}

// tailLines returns the last n lines of r, skipping lines stamped before
// since.
func tailLines(r io.Reader, n int, since time.Time) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}

	ring := make([]string, 0, n)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !since.IsZero() {
			if t := lineTime(line); !t.IsZero() && t.Before(since) {
				continue
			}
		}
		if len(ring) == n {
			ring = append(ring[:0], ring[1:]...)
		}
		ring = append(ring, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading log file: %w", err)
	}
	return ring, nil
}

// lineTime extracts the timestamp of a text or JSON log line. It returns
// the zero time when there is none.
func lineTime(line string) time.Time {
	if strings.HasPrefix(line, "{") {
		var rec struct {
			Time time.Time `json:"time"`
		}
		if err := json.Unmarshal([]byte(line), &rec); err == nil {
			return rec.Time
		}
		return time.Time{}
	}

	// [2006-01-02 15:04:05.000] [LEVEL] message
	const layout = "2006-01-02 15:04:05.000"
	if len(line) > len(layout)+1 && line[0] == '[' {
		if t, err := time.ParseInLocation(layout, line[1:len(layout)+1], time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}

// followFile copies lines appended to f until ctx is canceled. f must be
// positioned at the end of the content already shown.
func followFile(ctx context.Context, path string, f *os.File, out io.Writer) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("failed to watch log file: %w", err)
	}

	reader := bufio.NewReader(f)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) {
				continue
			}
			for {
				line, err := reader.ReadString('\n')
				if line != "" {
					_, _ = io.WriteString(out, line)
				}
				if err != nil {
					break
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}
