package main

import "github.com/agentic-research/simready/cmd"

func main() {
	cmd.Execute()
}
