package feed

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/feedpager/pkg/pager"
)

func TestDecodeEnvelope(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantIDs []int64
		wantErr bool
	}{
		{name: "nested page", body: `{"status":200,"data":{"data":[{"id":3},{"id":2}]}}`, wantIDs: []int64{3, 2}},
		{name: "missing data object", body: `{"status":200}`, wantIDs: []int64{}},
		{name: "null inner page", body: `{"data":{"data":null}}`, wantIDs: []int64{}},
		{name: "empty body", body: ``, wantIDs: []int64{}},
		{name: "malformed", body: `{"data":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posts, err := DecodeEnvelope[Post](strings.NewReader(tt.body))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, posts)

			ids := make([]int64, 0, len(posts))
			for _, p := range posts {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestNewEnvelopeWritesEmptyArray(t *testing.T) {
	data, err := json.Marshal(NewEnvelope[Post](nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":200,"message":"ok","data":{"data":[]}}`, string(data))
}

func TestQueryBuilder(t *testing.T) {
	build := NewQueryBuilder(QueryOptions{UserID: 42})

	q := build(pager.StartKey, 10)
	assert.Equal(t, DefaultPath, q.Path)
	assert.Equal(t, []string{ParamFeedType, ParamUserID, ParamFeedID, ParamPageCount}, q.Keys())
	assert.Equal(t, "/feeds/queryHotFeedsList?feedType=all&userId=42&feedId=0&pageCount=10", q.String())

	q = build("1207", 5)
	id, _ := q.Get(ParamFeedID)
	assert.Equal(t, "1207", id)
}

func TestQueryBuilderCustomFeed(t *testing.T) {
	build := NewQueryBuilder(QueryOptions{Path: "/feeds/sofa", FeedType: "video"})
	q := build(pager.StartKey, 20)

	assert.Equal(t, "/feeds/sofa", q.Path)
	v, _ := q.Get(ParamFeedType)
	assert.Equal(t, "video", v)
}

func TestKeys(t *testing.T) {
	key := KeyOf(Post{ID: 88})
	assert.Equal(t, pager.PageKey("88"), key)

	id, err := ParseKey(key)
	require.NoError(t, err)
	assert.Equal(t, int64(88), id)

	id, err = ParseKey(pager.StartKey)
	require.NoError(t, err)
	assert.Zero(t, id)

	_, err = ParseKey("abc")
	assert.Error(t, err)
}

func TestItemTypeString(t *testing.T) {
	assert.Equal(t, "video", ItemVideo.String())
	assert.Equal(t, "unknown", ItemType(9).String())
}
