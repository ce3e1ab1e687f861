// # cmd/codemap/main.go
package main

import (
	"os"

	"codemap/internal/ui/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
