package nodes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewchat-core/server/internal/agent/model"
)

func TestRouteCondition(t *testing.T) {
	condition := NewRouteCondition()

	tests := []struct {
		route model.RouteLabel
		want  string
	}{
		{model.RouteMetadata, NodeMetadataLookup},
		{model.RouteRetrieval, NodeReviewRAG},
		{model.RouteChat, NodeFinalizer},
		{model.RouteLabel("garbage"), NodeFinalizer},
	}
	for _, tt := range tests {
		got, err := condition(context.Background(), model.RouteDecision{Route: tt.route})
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestFormatRecord(t *testing.T) {
	rec := model.CatalogRecord{
		Key:      "sonyeon_i_onda",
		Title:    "소년이 온다",
		Author:   "한강",
		Summary:  "5.18 광주를 다룬 장편소설.",
		Keywords: []string{"광주", "역사"},
	}
	want := "제목: 소년이 온다\n저자: 한강\n요약: 5.18 광주를 다룬 장편소설.\n키워드: 광주, 역사"
	assert.Equal(t, want, formatRecord(rec))
}

func TestFormatRecordMissingFields(t *testing.T) {
	got := formatRecord(model.CatalogRecord{Key: "mystery_book"})
	assert.Equal(t, "제목: mystery_book\n저자: 정보 없음\n요약: 정보 없음", got)
}

func TestFormatReviewContext(t *testing.T) {
	docs := []model.RetrievedDocument{
		{Text: "문체가 아름답다", Site: model.SiteKyobo, Rating: 9.5, Date: "2024-01-02"},
		{Text: "여운이 오래 남는다", Site: model.SiteYes24, Rating: 10},
	}
	want := "[1] (kyobo, rating=9.5, date=2024-01-02) 문체가 아름답다\n" +
		"[2] (yes24, rating=10.0, date=NA) 여운이 오래 남는다"
	assert.Equal(t, want, formatReviewContext(docs))
}
