package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/diogo/agi/internal/thinking"
	"github.com/diogo/agi/internal/tui"
)

// progress draws the thinking indicator on a terminal stream until stopped
type progress struct {
	indicator *thinking.Indicator
	out       io.Writer
	done      chan struct{}
}

func startProgress(out io.Writer) *progress {
	p := &progress{
		indicator: thinking.New(),
		out:       out,
		done:      make(chan struct{}),
	}
	frames := p.indicator.Start()

	// Hide cursor
	fmt.Fprint(out, "\033[?25l")
	fmt.Fprintf(out, "\r\033[K%s", tui.ThinkingText(thinking.Base))

	go func() {
		defer close(p.done)
		for frame := range frames {
			fmt.Fprintf(out, "\r\033[K%s", tui.ThinkingText(frame))
		}
	}()
	return p
}

// stop ends the animation and clears the line
func (p *progress) stop() {
	p.indicator.Stop()
	<-p.done
	fmt.Fprint(p.out, "\r\033[K\033[?25h")
}

// runAsk sends one prompt on a fresh session and prints the model entry.
// A failed generation still prints the fallback reply, then exits 1.
func runAsk(cmd *cobra.Command, deps *Dependencies, flags *askFlags, prompt string) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return fmt.Errorf("prompt cannot be empty")
	}

	a, err := deps.openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	decorate := !flags.raw && deps.StdoutIsTerminal != nil && deps.StdoutIsTerminal()
	tui.ApplyThemeName(a.activeSettings().Theme)

	var spin *progress
	if decorate {
		spin = startProgress(deps.Stderr)
	}
	err = a.chat.SendMessage(cmd.Context(), prompt)
	if spin != nil {
		spin.stop()
	}
	if err != nil {
		return err
	}

	reply, _ := a.chat.LastReply()
	genErr := a.chat.LastError()

	if flags.output != "" {
		if err := os.WriteFile(flags.output, []byte(reply), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		if !flags.raw {
			fmt.Fprintln(deps.Stderr, tui.SuccessText(fmt.Sprintf("✓ Reply saved to %s", flags.output)))
		}
	} else if decorate {
		printReply(deps.Stdout, reply)
	} else {
		fmt.Fprintln(deps.Stdout, reply)
	}

	if flags.copy && genErr == nil {
		if err := deps.Copy(reply); err != nil {
			fmt.Fprintln(deps.Stderr, tui.WarningText(fmt.Sprintf("⚠ Failed to copy to clipboard: %v", err)))
		} else if !flags.raw {
			fmt.Fprintln(deps.Stderr, tui.SuccessText("✓ Copied to clipboard"))
		}
	}

	if genErr != nil {
		fmt.Fprintln(deps.Stderr, tui.FormatError(genErr))
		return &exitError{code: 1, err: fmt.Errorf("generation failed: %w", genErr)}
	}
	return nil
}

// printReply renders the reply as a labelled markdown bubble
func printReply(w io.Writer, reply string) {
	bubbleWidth := terminalWidth() - 4
	if bubbleWidth < 40 {
		bubbleWidth = 40
	}
	if bubbleWidth > 120 {
		bubbleWidth = 120
	}
	fmt.Fprintln(w, tui.AssistantBubble(reply, bubbleWidth))
}

// terminalWidth returns the terminal width or a default value
func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}
