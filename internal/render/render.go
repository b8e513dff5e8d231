package render

import "strings"

// Markdown renders markdown content for terminal display.
func Markdown(content string, opts Options) (string, error) {
	renderer, err := checkout(opts)
	if err != nil {
		return "", err
	}
	defer checkin(opts, renderer)

	return renderer.Render(content)
}

// Reply renders a model reply, falling back to the raw text if the renderer
// fails. Surrounding blank lines added by glamour are trimmed.
func Reply(content string, opts Options) string {
	out, err := Markdown(content, opts)
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n")
}
