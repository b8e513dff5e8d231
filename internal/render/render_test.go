package render

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultOptions(t *testing.T) {
	assert.Equal(t, Options{
		Width:            80,
		Style:            "dark",
		EnableEmoji:      true,
		PreserveNewLines: true,
	}, DefaultOptions())
}

func TestOptionsChaining(t *testing.T) {
	opts := DefaultOptions().WithWidth(100).WithStyle("light")
	assert.Equal(t, 100, opts.Width)
	assert.Equal(t, "light", opts.Style)
}

func TestForTheme(t *testing.T) {
	tests := map[string]string{
		"tokyonight": "tokyo-night",
		"light":      "light",
		"nord":       "dark",
		"unknown":    "dark",
	}
	for theme, want := range tests {
		assert.Equal(t, want, ForTheme(theme).Style, "theme %s", theme)
	}
}

func TestMarkdown(t *testing.T) {
	out, err := Markdown("# Title\n\nSome **bold** text", DefaultOptions().WithStyle("notty"))
	require.NoError(t, err)
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "bold")
}

func TestReply_TrimsSurroundingNewlines(t *testing.T) {
	out := Reply("hello", DefaultOptions().WithStyle("notty"))
	assert.False(t, strings.HasPrefix(out, "\n") || strings.HasSuffix(out, "\n"), "Reply should trim blank lines: %q", out)
	assert.Contains(t, out, "hello")
}

func TestRendererPool_ReusesPerOptions(t *testing.T) {
	ClearCache()
	defer ClearCache()

	a := DefaultOptions().WithStyle("notty")
	b := a.WithWidth(40)
	_, _ = Markdown("x", a)
	_, _ = Markdown("y", a)
	_, _ = Markdown("z", b)

	assert.Equal(t, 2, CacheSize())
}

func TestMarkdown_Concurrent(t *testing.T) {
	opts := DefaultOptions().WithStyle("notty")
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := Markdown("- item\n- other", opts)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}
