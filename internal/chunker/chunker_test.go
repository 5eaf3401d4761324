package chunker

import (
	"strings"
	"testing"
)

func TestOptions_Normalise(t *testing.T) {
	t.Run("zero value selects defaults", func(t *testing.T) {
		o := Options{}.normalise()
		if o.MaxChunkSize != DefaultChunkSize {
			t.Errorf("expected size %d, got %d", DefaultChunkSize, o.MaxChunkSize)
		}
	})

	t.Run("size clamped to minimum", func(t *testing.T) {
		o := Options{MaxChunkSize: 10}.normalise()
		if o.MaxChunkSize != MinChunkSize {
			t.Errorf("expected size %d, got %d", MinChunkSize, o.MaxChunkSize)
		}
	})

	t.Run("size clamped to maximum", func(t *testing.T) {
		o := Options{MaxChunkSize: 100000}.normalise()
		if o.MaxChunkSize != MaxChunkSize {
			t.Errorf("expected size %d, got %d", MaxChunkSize, o.MaxChunkSize)
		}
	})

	t.Run("overlap at or above size is reduced", func(t *testing.T) {
		o := Options{MaxChunkSize: 200, Overlap: 300}.normalise()
		if o.Overlap >= o.MaxChunkSize {
			t.Errorf("overlap %d not reduced below size %d", o.Overlap, o.MaxChunkSize)
		}
	})

	t.Run("negative overlap selects default", func(t *testing.T) {
		o := Options{Overlap: -1}.normalise()
		if o.Overlap != DefaultOverlap {
			t.Errorf("expected overlap %d, got %d", DefaultOverlap, o.Overlap)
		}
	})
}

func TestShouldChunk(t *testing.T) {
	if ShouldChunk("short", 100) {
		t.Error("expected false for text within the bound")
	}
	if ShouldChunk(strings.Repeat("x", 100), 100) {
		t.Error("expected false at exactly the bound")
	}
	if !ShouldChunk(strings.Repeat("x", 101), 100) {
		t.Error("expected true above the bound")
	}
}

func TestChunkText_Empty(t *testing.T) {
	chunks := ChunkText("", Options{})
	if len(chunks) != 0 {
		t.Errorf("expected 0 chunks for empty text, got %d", len(chunks))
	}
}

func TestChunkText_SingleChunk(t *testing.T) {
	text := "a short document"
	chunks := ChunkText(text, Options{MaxChunkSize: 100, Overlap: 20})

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != text {
		t.Errorf("expected chunk text to equal input")
	}
	if chunks[0].Index != 0 {
		t.Errorf("expected index 0, got %d", chunks[0].Index)
	}
}

func TestChunkText_TinyTextStillYieldsOneChunk(t *testing.T) {
	chunks := ChunkText("x", Options{})
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk for text below the minimum size, got %d", len(chunks))
	}
}

func TestChunkText_Reconstruction(t *testing.T) {
	// Concatenating chunks minus their overlaps must reproduce the input.
	text := strings.Repeat("abcdefghij", 55) // 550 chars
	opts := Options{MaxChunkSize: 100, Overlap: 30}

	chunks := ChunkText(text, opts)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	var rebuilt strings.Builder
	rebuilt.WriteString(chunks[0].Text)
	for _, chunk := range chunks[1:] {
		rebuilt.WriteString(chunk.Text[opts.Overlap:])
	}
	if rebuilt.String() != text {
		t.Error("reconstructed text does not match input")
	}

	for i, chunk := range chunks {
		if chunk.Index != i {
			t.Errorf("expected contiguous index %d, got %d", i, chunk.Index)
		}
		if len(chunk.Text) > opts.MaxChunkSize {
			t.Errorf("chunk %d exceeds max size: %d", i, len(chunk.Text))
		}
	}
}

func TestChunkText_NoOverlap(t *testing.T) {
	text := strings.Repeat("a", 300)
	chunks := ChunkText(text, Options{MaxChunkSize: 150, Overlap: 0})

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Text+chunks[1].Text != text {
		t.Error("chunks without overlap should concatenate to the input")
	}
}

func TestFormatWithHeaders(t *testing.T) {
	chunks := ChunkText("body text", Options{})
	if got := FormatWithHeaders(chunks[0]); got != "body text" {
		t.Errorf("expected bare text without headers, got %q", got)
	}

	chunks[0].Headers = []string{"Guide", "Setup"}
	want := "Guide > Setup\n\nbody text"
	if got := FormatWithHeaders(chunks[0]); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
