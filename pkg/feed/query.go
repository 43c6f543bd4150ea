package feed

import "github.com/marmos91/feedpager/pkg/pager"

// DefaultPath is the hot feed endpoint.
const DefaultPath = "/feeds/queryHotFeedsList"

// Query parameter names.
const (
	ParamFeedType  = "feedType"
	ParamUserID    = "userId"
	ParamFeedID    = "feedId"
	ParamPageCount = "pageCount"
)

// QueryOptions selects which feed a builder pages through.
type QueryOptions struct {
	Path     string
	FeedType string
	UserID   int64
}

// NewQueryBuilder returns a pager.QueryBuilder for the feed described by
// opts. The page key is sent as feedId, "0" for the first page.
func NewQueryBuilder(opts QueryOptions) pager.QueryBuilder {
	path := opts.Path
	if path == "" {
		path = DefaultPath
	}
	feedType := opts.FeedType
	if feedType == "" {
		feedType = "all"
	}
	return func(key pager.PageKey, size int) pager.Query {
		return pager.NewQuery(path).
			Add(ParamFeedType, feedType).
			Add(ParamUserID, opts.UserID).
			Add(ParamFeedID, key.String()).
			Add(ParamPageCount, size)
	}
}
