package main

import (
	"log"

	"github.com/MrSnakeDoc/animelist/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ animelist failed to start: %v", err)
	}
}
