package main

import "github.com/exodoc/exodoc/internal/cli"

func main() {
	cli.Execute()
}
