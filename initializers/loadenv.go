package initializers

import (
	"log"

	"github.com/joho/godotenv"
)

func LoadEnv() error {
	log.Println("Loading env file")
	if err := godotenv.Load(); err != nil {
		// Not fatal: production supplies real environment variables.
		log.Println("No .env file found, relying on environment")
		return nil
	}
	log.Println("Env loaded successfully")
	return nil
}
