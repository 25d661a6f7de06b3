package parsers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/reviewchat-core/server/internal/agent/model"
)

func TestRouteLabel(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    model.RouteLabel
	}{
		{name: "plain chat", content: "chat", want: model.RouteChat},
		{name: "plain metadata", content: "metadata", want: model.RouteMetadata},
		{name: "plain retrieval", content: "retrieval", want: model.RouteRetrieval},
		{name: "uppercase", content: "RETRIEVAL", want: model.RouteRetrieval},
		{name: "surrounding whitespace", content: "  metadata \n", want: model.RouteMetadata},
		{name: "quoted label", content: `"retrieval"`, want: model.RouteRetrieval},
		{name: "trailing period", content: "metadata.", want: model.RouteMetadata},
		{name: "empty output", content: "", want: model.RouteChat},
		{name: "unknown label", content: "weather", want: model.RouteChat},
		{name: "prose instead of label", content: "I think this is a retrieval request", want: model.RouteChat},
		{name: "oversized output", content: strings.Repeat("retrieval ", 50), want: model.RouteChat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RouteLabel(tt.content))
		})
	}
}

func TestCatalogKey(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "plain key", content: "sonyeon_i_onda", want: "sonyeon_i_onda"},
		{name: "quoted key", content: `"sonyeon_i_onda"`, want: "sonyeon_i_onda"},
		{name: "explicit none", content: "none", want: ""},
		{name: "uppercase none", content: "NONE", want: ""},
		{name: "empty output", content: "   ", want: ""},
		{name: "prose answer", content: "the best match is sonyeon_i_onda", want: ""},
		{name: "oversized output", content: strings.Repeat("k", 200), want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CatalogKey(tt.content))
		})
	}
}
