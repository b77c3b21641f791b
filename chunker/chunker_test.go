package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/heritage-archive/hrag/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	long := strings.Repeat("x", 700)

	tests := []struct {
		name    string
		text    string
		maxSize int
		overlap int
		want    []string
	}{
		{
			name:    "empty input",
			text:    "",
			maxSize: 600,
			want:    []string{},
		},
		{
			name:    "blank input",
			text:    "  \n\n \t\n\n",
			maxSize: 600,
			want:    []string{},
		},
		{
			name:    "short paragraphs merge",
			text:    "Hello world.\n\nSecond para.",
			maxSize: 600,
			want:    []string{"Hello world.\n\nSecond para."},
		},
		{
			name:    "oversized paragraph stands alone",
			text:    "Hello world.\n\nSecond para.\n\n" + long,
			maxSize: 600,
			want:    []string{"Hello world.\n\nSecond para.", long},
		},
		{
			name:    "oversized paragraph first",
			text:    long + "\n\ntail",
			maxSize: 600,
			want:    []string{long, "tail"},
		},
		{
			name:    "separator counted exactly",
			text:    "aaaa\n\nbbbb\n\ncccc",
			maxSize: 10,
			want:    []string{"aaaa\n\nbbbb", "cccc"},
		},
		{
			name:    "overlap seeds next chunk",
			text:    "aaaa\n\nbb\n\ncccc",
			maxSize: 8,
			overlap: 2,
			want:    []string{"aaaa\n\nbb", "bb\n\ncccc"},
		},
		{
			name:    "overlap skipped when last paragraph too long",
			text:    "aaaa\n\nbbb\n\ncccc",
			maxSize: 9,
			overlap: 2,
			want:    []string{"aaaa\n\nbbb", "cccc"},
		},
		{
			name:    "overlap skipped when seed would not fit",
			text:    "aa\n\nbb\n\ncccccccc",
			maxSize: 8,
			overlap: 2,
			want:    []string{"aa\n\nbb", "cccccccc"},
		},
		{
			name:    "oversized chunk never seeds overlap",
			text:    "aaaaaaaaaaaa\n\nb",
			maxSize: 8,
			overlap: 20,
			want:    []string{"aaaaaaaaaaaa", "b"},
		},
		{
			name:    "crlf and whitespace normalised",
			text:    "  one  \r\n\r\n\r\n\r\ntwo\n",
			maxSize: 600,
			want:    []string{"one\n\ntwo"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Split(tt.text, tt.maxSize, tt.overlap))
		})
	}
}

func TestSplit_CountsRunes(t *testing.T) {
	// 5 Arabic letters are 10 bytes but 5 characters.
	p := "قرطاج"
	chunks := Split(p+"\n\n"+p, 12, 0)
	require.Len(t, chunks, 1)
	assert.Equal(t, 12, utf8.RuneCountInString(chunks[0]))
}

func TestSplit_SizeBound(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 200; i++ {
		b.WriteString(strings.Repeat("w", (i*37)%250+1))
		b.WriteString("\n\n")
	}
	text := b.String()

	for _, overlap := range []int{0, 30, 120} {
		for _, chunk := range Split(text, 300, overlap) {
			if strings.Contains(chunk, "\n\n") {
				assert.LessOrEqual(t, utf8.RuneCountInString(chunk), 300)
			}
		}
	}
}

func TestSplit_PreservesParagraphs(t *testing.T) {
	text := "alpha\n\nbeta\n\ngamma\n\ndelta\n\n" + strings.Repeat("z", 50)
	chunks := Split(text, 14, 0)
	assert.Equal(t, paragraphs(text), paragraphs(strings.Join(chunks, "\n\n")))
}

func TestSplit_Idempotent(t *testing.T) {
	text := "Dougga is a Roman site.\n\nIt has a theatre.\n\n" + strings.Repeat("Capitol ", 100)
	assert.Equal(t, Split(text, 120, 40), Split(text, 120, 40))
}

func TestChunker_Chunk(t *testing.T) {
	c, err := New(WithMaxSize(20))
	require.NoError(t, err)
	assert.Equal(t, 20, c.MaxSize())

	meta := core.Metadata{Source: "archive", Title: "Test"}
	chunks := c.Chunk("data/test.md", "first paragraph\n\nsecond paragraph", meta)
	require.Len(t, chunks, 2)
	for i, ch := range chunks {
		assert.Equal(t, i, ch.Index)
		assert.Equal(t, "data/test.md", ch.SourceDocument)
		assert.Equal(t, meta, ch.Metadata)
	}
	assert.Equal(t, "second paragraph", chunks[1].Text)
}

func TestNew_Options(t *testing.T) {
	c, err := New()
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxSize, c.MaxSize())

	_, err = New(WithMaxSize(0))
	assert.ErrorIs(t, err, ErrInvalidMaxSize)

	_, err = New(WithOverlap(-1))
	assert.ErrorIs(t, err, ErrInvalidOverlap)

	_, err = New(WithMaxSize(10), WithOverlap(10))
	assert.ErrorIs(t, err, ErrInvalidOverlap)
}
