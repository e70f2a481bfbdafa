package main

import (
	"fmt"
	"os"

	"github.com/soralit/gphoto-get/internal/config"
	"github.com/soralit/gphoto-get/internal/tui"
)

func main() {
	settings := config.DefaultSettings()
	if path := config.DefaultConfigPath(); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		settings = loaded
	}

	if err := tui.Run(settings); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
