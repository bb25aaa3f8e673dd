package main

import "github.com/brocaar/whitespace-server/cmd/whitespace-server/cmd"

var version string // set by the compiler

func main() {
	cmd.Execute(version)
}
