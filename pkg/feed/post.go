package feed

import (
	"strconv"
	"time"

	"github.com/marmos91/feedpager/pkg/pager"
)

// ItemType distinguishes the media attached to a post.
type ItemType int

const (
	ItemText ItemType = iota
	ItemImage
	ItemVideo
)

// String returns the lowercase type name.
func (t ItemType) String() string {
	switch t {
	case ItemText:
		return "text"
	case ItemImage:
		return "image"
	case ItemVideo:
		return "video"
	default:
		return "unknown"
	}
}

// Post is one entry of a feed page.
type Post struct {
	ID        int64     `json:"id"`
	ItemID    int64     `json:"itemId"`
	ItemType  ItemType  `json:"itemType"`
	AuthorID  int64     `json:"authorId"`
	Text      string    `json:"feeds_text"`
	Cover     string    `json:"cover,omitempty"`
	URL       string    `json:"url,omitempty"`
	Width     int       `json:"width,omitempty"`
	Height    int       `json:"height,omitempty"`
	CreatedAt time.Time `json:"createTime"`
}

// KeyOf returns the forward page key for p. Feed cursors are post ids.
func KeyOf(p Post) pager.PageKey {
	return pager.PageKey(strconv.FormatInt(p.ID, 10))
}

// ParseKey converts a page key to a post id. The start key is id 0.
func ParseKey(k pager.PageKey) (int64, error) {
	if k.IsStart() {
		return 0, nil
	}
	return strconv.ParseInt(string(k), 10, 64)
}
