package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/verifybot/internal/common"
	"github.com/dmitrijs2005/verifybot/internal/flagx"
)

// parseFlags overrides selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-t string   bot token
//	-g string   guild ID
//	-l string   directory with language-<code>.json files
//	-d string   data folder; the JSON ledger file moves with it
//	-v string   log level (debug, info, warn, error)
//
// The -c/-config flag is handled by parseJson.
func parseFlags(config *Config) error {
	args := flagx.FilterArgs(os.Args[1:], []string{"-t", "-g", "-l", "-d", "-v"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.Token, "t", config.Token, "bot token")
	fs.StringVar(&config.GuildID, "g", config.GuildID, "guild ID")
	fs.StringVar(&config.LanguagesDir, "l", config.LanguagesDir, "languages directory")
	folder := fs.String("d", config.Data.Folder, "data folder")
	fs.StringVar(&config.LogLevel, "v", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", common.ErrConfiguration, err)
	}

	if *folder != config.Data.Folder {
		config.Data.Folder = *folder
		config.Data.VerifiedUsersFile = filepath.Join(*folder, filepath.Base(config.Data.VerifiedUsersFile))
	}
	return nil
}
