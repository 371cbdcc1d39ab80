package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"relaychat/internal/client"
	"relaychat/internal/profile"
)

func runNode(c *cli.Context) error {
	cfg, _, err := loadConfig(c)
	if err != nil {
		return err
	}
	if nick := c.String(nicknameFlag.Name); nick != "" {
		cfg.Nickname = nick
	}
	pw, err := readPassword(c, "Profile password: ", false)
	if err != nil {
		return err
	}
	keys, err := profile.LoadProfile(profile.DefaultPath(cfg.DataDir), pw)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	node, err := client.New(ctx, cfg, keys)
	if err != nil {
		return err
	}
	defer node.Shutdown()
	if err := node.RedirectLogs(); err != nil {
		return err
	}
	return node.Run(ctx)
}

