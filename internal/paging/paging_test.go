package paging

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  Params
	}{
		{"defaults", "", Params{Page: 1, Limit: DefaultLimit}},
		{"explicit", "page=3&limit=20", Params{Page: 3, Limit: 20}},
		{"garbage", "page=x&limit=-4", Params{Page: 1, Limit: DefaultLimit}},
		{"clamped", "limit=1000", Params{Page: 1, Limit: MaxLimit}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			require.NoError(t, err)
			require.Equal(t, tt.want, Parse(q, DefaultLimit))
		})
	}
}

func TestMeta(t *testing.T) {
	p := Params{Page: 2, Limit: 10}
	require.Equal(t, 10, p.Offset())
	require.Equal(t, Meta{Page: 2, Limit: 10, Total: 21, Pages: 3}, p.Meta(21))
	require.Equal(t, 0, p.Meta(0).Pages)
}
