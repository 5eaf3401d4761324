package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  TableConfig
		wantErr bool
	}{
		{
			name:   "whole strategy with slug",
			config: TableConfig{Slug: "posts"},
		},
		{
			name:   "collection name without slug",
			config: TableConfig{CollectionName: "article_web_chunk"},
		},
		{
			name: "chunked strategy with chunking config",
			config: TableConfig{
				Slug:     "articles",
				Strategy: StrategyChunked,
				Chunking: &ChunkingConfig{Size: 1000, Overlap: 200},
			},
		},
		{
			name:    "missing slug and collection name",
			config:  TableConfig{},
			wantErr: true,
		},
		{
			name:    "chunked strategy without chunking config",
			config:  TableConfig{Slug: "articles", Strategy: StrategyChunked},
			wantErr: true,
		},
		{
			name: "whole strategy with chunking config",
			config: TableConfig{
				Slug:     "posts",
				Chunking: &ChunkingConfig{Size: 1000},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTableConfig_IndexCollectionName(t *testing.T) {
	slugOnly := TableConfig{Slug: "posts"}
	assert.Equal(t, "posts", slugOnly.IndexCollectionName())

	override := TableConfig{Slug: "articles", CollectionName: "article_web_chunk"}
	assert.Equal(t, "article_web_chunk", override.IndexCollectionName())
}
