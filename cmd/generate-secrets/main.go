package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/pflag"

	"github.com/dsbeauty/salon-backend/internal/utils"
)

func main() {
	var asJSON bool
	pflag.BoolVar(&asJSON, "json", false, "print the secrets as a JSON object")
	pflag.Parse()

	accessSecret, refreshSecret, err := utils.GenerateJWTSecrets()
	if err != nil {
		log.Fatalf("Failed to generate secrets: %v", err)
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(map[string]string{
			"JWT_SECRET":         accessSecret,
			"JWT_REFRESH_SECRET": refreshSecret,
		}); err != nil {
			log.Fatalf("Failed to encode secrets: %v", err)
		}
		return
	}

	fmt.Fprintln(os.Stderr, "# Add these to your .env file. Never commit them.")
	fmt.Printf("JWT_SECRET=%s\n", accessSecret)
	fmt.Printf("JWT_REFRESH_SECRET=%s\n", refreshSecret)
}
