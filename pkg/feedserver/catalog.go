package feedserver

import (
	"fmt"
	"sort"
	"time"

	"github.com/marmos91/feedpager/pkg/feed"
)

// Catalog is an immutable, newest-first list of generated posts.
type Catalog struct {
	posts []feed.Post
}

// NewCatalog generates n posts with ids n..1. Post i was created i minutes
// after epoch.
func NewCatalog(n int, epoch time.Time) *Catalog {
	posts := make([]feed.Post, 0, n)
	for id := int64(n); id >= 1; id-- {
		posts = append(posts, feed.Post{
			ID:        id,
			ItemID:    1000 + id,
			ItemType:  feed.ItemType(id % 3),
			AuthorID:  id%7 + 1,
			Text:      fmt.Sprintf("post #%d", id),
			CreatedAt: epoch.Add(time.Duration(id) * time.Minute).UTC(),
		})
	}
	return &Catalog{posts: posts}
}

// Len returns the number of posts.
func (c *Catalog) Len() int {
	return len(c.posts)
}

// Page returns up to count posts that come after the post with id afterID,
// keeping only those matching feedType. afterID 0 starts at the newest post.
// "all" and "" match every type.
func (c *Catalog) Page(feedType string, afterID int64, count int) []feed.Post {
	start := 0
	if afterID > 0 {
		start = sort.Search(len(c.posts), func(i int) bool {
			return c.posts[i].ID < afterID
		})
	}

	page := make([]feed.Post, 0, count)
	for _, p := range c.posts[start:] {
		if len(page) == count {
			break
		}
		if feedType != "" && feedType != "all" && p.ItemType.String() != feedType {
			continue
		}
		page = append(page, p)
	}
	return page
}
