package main

import (
	"os"

	wirelinecmder "github.com/papercomputeco/wireline/cmd/wireline"
)

func main() {
	cmd := wirelinecmder.NewWirelineCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
