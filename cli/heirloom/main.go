package main

import (
	"os"

	heirloomcmder "github.com/heirloomhq/heirloom/cmd/heirloom"
)

func main() {
	cmd := heirloomcmder.NewHeirloomCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
