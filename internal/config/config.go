package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// LoadEnv pulls a local .env file into the process environment when one
// exists; deployments set real env vars instead.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}
}

func GetEnv(key, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
