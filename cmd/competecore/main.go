package main

import "github.com/competecore/competecore/internal/cli"

func main() {
	cli.Execute()
}
