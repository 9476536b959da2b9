package main

import "github.com/fwojciec/dsemu/internal/cli"

func main() {
	cli.Execute()
}
