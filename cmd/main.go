package main

import (
	"fmt"
	"os"

	"github.com/jucity/ai-manager-backend/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		fmt.Printf("Failed to init app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	a.Start()

	port := a.Cfg.Port
	fmt.Printf("Server listening on :%s\n", port)
	if err := a.Run(":" + port); err != nil {
		a.Log.Warn("Server failed", "error", err)
	}
}
