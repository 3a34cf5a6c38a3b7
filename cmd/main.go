package main

import (
	"log"

	"github.com/IlyaSamoylov/finalproject-Samoylov-M25-555/internal/app"
)

func main() {
	application, err := app.NewApp()
	if err != nil {
		log.Fatalf("Ошибка создания приложения: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("Ошибка при работе приложения: %v", err)
	}
}
