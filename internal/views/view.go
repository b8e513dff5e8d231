// Package views defines the closed set of content panels the client can show
// and the controller that tracks which one is active.
package views

import (
	"fmt"
	"strings"
)

// View identifies a content panel
type View int

// The declaration order is the navigation order.
const (
	Home View = iota
	Conversation
	Features
	Examples
	Safety
	viewCount
)

var viewNames = [...]string{
	Home:         "home",
	Conversation: "conversation",
	Features:     "features",
	Examples:     "examples",
	Safety:       "safety",
}

// All returns every view in navigation order
func All() []View {
	out := make([]View, 0, viewCount)
	for v := Home; v < viewCount; v++ {
		out = append(out, v)
	}
	return out
}

// Valid reports whether v is one of the declared views
func (v View) Valid() bool {
	return v >= Home && v < viewCount
}

func (v View) String() string {
	if !v.Valid() {
		return fmt.Sprintf("view(%d)", int(v))
	}
	return viewNames[v]
}

// Next returns the following view, wrapping after the last one
func (v View) Next() View {
	if !v.Valid() {
		return Home
	}
	return (v + 1) % viewCount
}

// Prev returns the preceding view, wrapping before the first one
func (v View) Prev() View {
	if !v.Valid() {
		return Home
	}
	return (v + viewCount - 1) % viewCount
}

// Parse resolves a view by name. "chat" is accepted for Conversation.
func Parse(name string) (View, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "chat" {
		return Conversation, nil
	}
	for v := Home; v < viewCount; v++ {
		if viewNames[v] == name {
			return v, nil
		}
	}
	return Home, fmt.Errorf("unknown view %q", name)
}
