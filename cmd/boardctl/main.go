package main

import "messageboard/internal/cli"

// set at build time
var version = "dev"

func main() {
	cli.Execute(version)
}
