package main

import "github.com/mcoot/golfclub/internal/cli"

func main() {
	cli.Execute()
}
