package main

import (
	"finance-metrics/internal/cli"
)

func main() {
	cli.Execute()
}
