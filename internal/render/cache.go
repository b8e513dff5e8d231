package render

import (
	"sync"

	"github.com/charmbracelet/glamour"
)

// A TermRenderer must not run two Render calls at once, so renderers are
// checked out of a per-Options pool and returned after use.
var (
	poolsMu sync.Mutex
	pools   = map[Options]*sync.Pool{}
)

func poolFor(opts Options) *sync.Pool {
	poolsMu.Lock()
	defer poolsMu.Unlock()

	pool, ok := pools[opts]
	if !ok {
		pool = &sync.Pool{}
		pools[opts] = pool
	}
	return pool
}

// checkout returns an idle renderer for opts, building one when none is pooled
func checkout(opts Options) (*glamour.TermRenderer, error) {
	if r, ok := poolFor(opts).Get().(*glamour.TermRenderer); ok {
		return r, nil
	}
	return newRenderer(opts)
}

func checkin(opts Options, r *glamour.TermRenderer) {
	if r != nil {
		poolFor(opts).Put(r)
	}
}

func newRenderer(opts Options) (*glamour.TermRenderer, error) {
	ropts := []glamour.TermRendererOption{
		glamour.WithStandardStyle(opts.Style),
		glamour.WithWordWrap(opts.Width),
	}
	if opts.EnableEmoji {
		ropts = append(ropts, glamour.WithEmoji())
	}
	if opts.PreserveNewLines {
		ropts = append(ropts, glamour.WithPreservedNewLines())
	}
	return glamour.NewTermRenderer(ropts...)
}

// ClearCache drops every pooled renderer
func ClearCache() {
	poolsMu.Lock()
	pools = map[Options]*sync.Pool{}
	poolsMu.Unlock()
}

// CacheSize returns how many distinct option sets have a pool
func CacheSize() int {
	poolsMu.Lock()
	defer poolsMu.Unlock()
	return len(pools)
}
