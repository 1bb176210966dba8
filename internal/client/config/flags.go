package config

import (
	"flag"
	"os"
	"time"

	"github.com/dcitarelli/workflow/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   storage root directory (default from Config)
//	-t int      secure cache TTL in seconds (default from Config)
//
// Note: The function filters os.Args to only include the flags it knows
// about, using flagx.FilterArgs, to avoid interference with other
// components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.StorageDir, "d", cfg.StorageDir, "storage root directory")
	cacheTTL := fs.Int("t", int(cfg.CacheTTL.Seconds()), "secure cache TTL (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.CacheTTL = time.Duration(*cacheTTL) * time.Second
}
