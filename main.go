package main

import (
	"context"
	"os"

	"github.com/insurdesk/concierge/pkg/cli"
	"github.com/joho/godotenv"
)

var version = "dev"

func main() {
	// .env is optional
	_ = godotenv.Load()

	if err := cli.Run(context.Background(), os.Args, version); err != nil {
		os.Exit(1)
	}
}
