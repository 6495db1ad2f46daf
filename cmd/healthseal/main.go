package main

import "github.com/dtrann/healthseal/internal/cli"

func main() {
	cli.Execute()
}
