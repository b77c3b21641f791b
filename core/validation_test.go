package core

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestValidateRecord(t *testing.T) {
	id := uuid.NewString()

	tests := []struct {
		name       string
		record     *Record
		dimensions int
		wantErr    error
	}{
		{
			name:       "valid record",
			record:     &Record{ID: id, Vector: []float32{0.1, 0.2}, Payload: Payload{Text: "Carthage"}},
			dimensions: 2,
		},
		{
			name:       "dimension check disabled",
			record:     &Record{ID: id, Vector: []float32{0.1, 0.2, 0.3}, Payload: Payload{Text: "Kairouan"}},
			dimensions: 0,
		},
		{
			name:    "nil record",
			record:  nil,
			wantErr: ErrInvalidRecord,
		},
		{
			name:    "empty id",
			record:  &Record{Vector: []float32{0.1}, Payload: Payload{Text: "x"}},
			wantErr: ErrEmptyID,
		},
		{
			name:    "non uuid id",
			record:  &Record{ID: "chunk-1", Vector: []float32{0.1}, Payload: Payload{Text: "x"}},
			wantErr: ErrInvalidRecord,
		},
		{
			name:    "empty vector",
			record:  &Record{ID: id, Payload: Payload{Text: "x"}},
			wantErr: ErrEmptyVector,
		},
		{
			name:       "wrong dimensions",
			record:     &Record{ID: id, Vector: []float32{0.1}, Payload: Payload{Text: "x"}},
			dimensions: 768,
			wantErr:    ErrDimensionMismatch,
		},
		{
			name:    "empty text",
			record:  &Record{ID: id, Vector: []float32{0.1}},
			wantErr: ErrEmptyContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRecord(tt.record, tt.dimensions)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, ErrInvalidRecord)
		})
	}
}

func TestPayloadFromChunk(t *testing.T) {
	c := Chunk{
		SourceDocument: "data/transcripts/dougga.md",
		Index:          3,
		Text:           "The theatre of Dougga",
		Metadata:       Metadata{Source: "archive", Title: "Dougga", Region: "Béja", Date: "1999", Lang: "fr"},
	}

	p := PayloadFromChunk(c)
	assert.Equal(t, Payload{
		Source:     "archive",
		Title:      "Dougga",
		Region:     "Béja",
		Date:       "1999",
		Lang:       "fr",
		ChunkIndex: 3,
		Text:       "The theatre of Dougga",
		File:       "dougga.md",
	}, p)
}

func TestQueryContext_HasAnswer(t *testing.T) {
	var nilQC *QueryContext
	assert.False(t, nilQC.HasAnswer())
	assert.False(t, (&QueryContext{}).HasAnswer())

	answer := ""
	assert.True(t, (&QueryContext{Answer: &answer}).HasAnswer())
}
