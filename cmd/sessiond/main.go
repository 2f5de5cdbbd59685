package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/dmitrijs2005/capsync/internal/server"
	"github.com/dmitrijs2005/capsync/internal/server/config"
)

func main() {
	var configPath string
	var createUser string

	flag.StringVar(&configPath, "c", "", "path to YAML config file")
	flag.StringVar(&createUser, "create-user", "", "create an account and exit (password from CAPSYNC_NEW_USER_PASSWORD)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app, err := server.NewApp(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx := context.Background()

	if createUser != "" {
		password := os.Getenv("CAPSYNC_NEW_USER_PASSWORD")
		if password == "" {
			log.Fatal("CAPSYNC_NEW_USER_PASSWORD is not set")
		}
		if err := app.CreateUser(ctx, createUser, password); err != nil {
			log.Fatalf("%v", err)
		}
		log.Printf("user %q created", createUser)
		return
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}
}
