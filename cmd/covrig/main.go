package main

import "github.com/covrig/covrig/internal/cli"

func main() {
	cli.Execute()
}
