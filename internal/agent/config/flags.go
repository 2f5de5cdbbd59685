package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/capsync/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the session-URI backend
//	-r string   video storage root directory
//	-s string   persisted state file path
//	-t string   bearer token file path
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-r", "-s", "-t"})

	fs := flag.NewFlagSet("agent", flag.ContinueOnError)

	fs.StringVar(&cfg.BackendAddr, "a", cfg.BackendAddr, "base URL of the session-URI backend")
	fs.StringVar(&cfg.VideoStorageRoot, "r", cfg.VideoStorageRoot, "video storage root directory")
	fs.StringVar(&cfg.StateFilePath, "s", cfg.StateFilePath, "persisted state file path")
	fs.StringVar(&cfg.TokenFilePath, "t", cfg.TokenFilePath, "bearer token file path")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
