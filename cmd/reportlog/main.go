package main

import (
	"os"

	"github.com/Iron-Ham/reportlog/internal/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
