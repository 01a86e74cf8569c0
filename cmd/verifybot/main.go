package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/verifybot/internal/bot"
	"github.com/dmitrijs2005/verifybot/internal/bot/config"
	"github.com/dmitrijs2005/verifybot/internal/common"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if errors.Is(err, config.ErrNoToken) {
		fmt.Println("Please configure your bot token in config.json")
		fmt.Println("Get your token from: https://discord.com/developers/applications")
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	app, err := bot.NewApp(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	if err := app.Run(ctx); err != nil {
		if errors.Is(err, common.ErrInvalidToken) {
			fmt.Println("Invalid bot token! Check config.json")
			return 1
		}
		fmt.Printf("Bot crashed: %v\n", err)
		return 1
	}
	return 0
}
