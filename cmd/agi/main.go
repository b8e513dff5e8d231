// Command agi is a terminal client for a generative intelligence service.
package main

import "github.com/diogo/agi/internal/commands"

func main() {
	commands.Execute()
}
