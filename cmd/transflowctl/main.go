package main

import "transflow/internal/cli"

func main() {
	cli.Execute()
}
