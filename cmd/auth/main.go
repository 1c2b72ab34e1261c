// Command auth runs the Gatekeeper authentication service.
package main

import (
	"log"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/app"
)

func main() {
	cfg := app.LoadConfig()

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
