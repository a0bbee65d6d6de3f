package main

import (
	"os"

	cmd "github.com/webitel/form-exporter/cmd/main"
)

func main() {
	os.Exit(cmd.Run())
}
