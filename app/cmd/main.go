package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"intellidocs/app/server"

	"github.com/joho/godotenv"
)

func init() {
	loadEnvVariables()
}

func main() {
	addr := os.Getenv("SERVER_ADDR")
	if addr == "" {
		addr = ":8000"
	}
	s := server.NewServer(addr)

	go s.Run()

	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, os.Interrupt, syscall.SIGTERM)
	<-sigch
	log.Println("Received shutdown signal, shutting down server...")
	s.Stop()
}

func loadEnvVariables() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment")
	}
}
