package output

import (
	"fmt"
	"strconv"
	"time"

	"github.com/marmos91/feedpager/internal/bytesize"
	"github.com/marmos91/feedpager/pkg/cachestore"
	"github.com/marmos91/feedpager/pkg/feed"
)

// PostTable renders feed posts.
type PostTable []feed.Post

// Headers implements TableRenderer.
func (PostTable) Headers() []string {
	return []string{"ID", "Type", "Author", "Created", "Text"}
}

// Rows implements TableRenderer.
func (t PostTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, p := range t {
		rows = append(rows, []string{
			strconv.FormatInt(p.ID, 10),
			p.ItemType.String(),
			strconv.FormatInt(p.AuthorID, 10),
			p.CreatedAt.Local().Format(time.DateTime),
			truncate(p.Text, 48),
		})
	}
	return rows
}

// EntryTable renders cache entries. Now is used for the age column.
type EntryTable struct {
	Entries []cachestore.EntryInfo
	Now     time.Time
}

// Headers implements TableRenderer.
func (EntryTable) Headers() []string {
	return []string{"Key", "Size", "Age"}
}

// Rows implements TableRenderer.
func (t EntryTable) Rows() [][]string {
	now := t.Now
	if now.IsZero() {
		now = time.Now()
	}
	rows := make([][]string, 0, len(t.Entries))
	for _, e := range t.Entries {
		rows = append(rows, []string{
			e.Key,
			FormatBytes(e.Size),
			FormatAge(now.Sub(e.UpdatedAt)),
		})
	}
	return rows
}

// FormatAge renders d as "3d 4h", "2h 5m", "4m 10s" or "12s".
func FormatAge(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

// FormatBytes renders n with a binary unit.
func FormatBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return bytesize.Size(n).String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
