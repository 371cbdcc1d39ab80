// Package client wires the chat service, the darknet directory, the peer
// store and the terminal UI into a running node.
package client

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"relaychat/internal/chat"
	"relaychat/internal/config"
	"relaychat/internal/models"
	"relaychat/internal/p2p"
	"relaychat/internal/profile"
	"relaychat/internal/storage"
	"relaychat/internal/ui"
	"relaychat/internal/utils"
)

const (
	LogFileName       = "relaychat.log"
	reconnectInterval = 30 * time.Second
)

type Client struct {
	Config    *config.Config
	Keys      *profile.Keys
	Node      *p2p.Node
	Directory *p2p.Directory
	DB        *storage.PeerDB
	Service   *chat.Service
	UI        *ui.UI
	Commands  *Commands
	Logger    *utils.RemoteLogger

	logFile *os.File
	cancel  context.CancelFunc
}

// New builds every component. Nothing is dialled until Run.
func New(ctx context.Context, cfg *config.Config, keys *profile.Keys) (_ *Client, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	cli := &Client{Config: cfg, Keys: keys, cancel: cancel}
	defer func() {
		if err != nil {
			cli.Shutdown()
		}
	}()

	if cli.DB, err = storage.OpenPeerDB(cfg.DataDir, cfg.PeerWriteQueue); err != nil {
		return nil, fmt.Errorf("open peer store: %w", err)
	}
	peers, err := cli.DB.Store.ListPeers(ctx)
	if err != nil {
		return nil, err
	}

	if cli.Node, err = p2p.NewNode(ctx, keys.Priv, cfg.ListenAddrs); err != nil {
		return nil, err
	}
	if cfg.DHT.Enabled {
		if err := cli.Node.InitDHT(cfg.DHT.BootstrapPeers); err != nil {
			log.Printf("[CLIENT] dht unavailable: %v", err)
		}
	}
	cli.Directory = p2p.NewDirectory(p2p.DirectoryConfig{
		Node:      cli.Node,
		Peers:     peers,
		QueueSize: cfg.SendQueueSize,
		OnSeen:    cli.peerSeen,
	})

	theme, err := ui.LoadThemeFromDir(filepath.Join(cfg.DataDir, "themes"), cfg.Theme)
	if err != nil {
		log.Printf("[CLIENT] theme: %v", err)
		if theme == nil {
			theme = ui.DefaultTheme()
		}
	}
	src := &serviceSource{}
	cli.UI = ui.NewUI(ui.Config{
		Theme:    theme,
		Nickname: cfg.Nickname,
		Source:   src,
		OnInput:  cli.handleInput,
	})
	cli.Service = chat.NewService(chat.ServiceConfig{
		Self:      keys.Identity,
		Nickname:  cfg.Nickname,
		Transport: cli.Directory,
		Display:   cli.UI,
		Observer:  cli.UI,
	})
	src.svc = cli.Service
	cli.Commands = &Commands{Service: cli.Service, Peers: cli.Directory, Out: cli.UI}
	cli.Directory.Start(cli.Service)
	return cli, nil
}

func (cli *Client) peerSeen(id models.Identity, at time.Time) {
	if err := cli.DB.Peers.EnqueueSeen(id, at); err != nil {
		log.Printf("[CLIENT] last seen for %s: %v", id.Short(), err)
	}
}

func (cli *Client) handleInput(room uint64, text string) {
	_ = cli.Commands.Handle(room, text)
}

// RedirectLogs sends the standard logger to <data_dir>/relaychat.log and, when
// log_port is set, to TCP clients of the remote logger.
func (cli *Client) RedirectLogs() error {
	f, err := os.OpenFile(filepath.Join(cli.Config.DataDir, LogFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return err
	}
	cli.logFile = f
	var out io.Writer = f
	if cli.Config.LogPort != 0 {
		rl, err := utils.NewRemoteLogger(cli.Config.LogPort)
		if err != nil {
			log.Printf("[CLIENT] remote logger: %v", err)
		} else {
			cli.Logger = rl
			out = io.MultiWriter(f, rl)
		}
	}
	log.SetOutput(out)
	return nil
}

func (cli *Client) reconnectLoop(ctx context.Context) {
	ticker := time.NewTicker(reconnectInterval)
	defer ticker.Stop()
	for {
		n := cli.Directory.ConnectAll(ctx)
		log.Printf("[CLIENT] %d darknet peers connected", n)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Run shows the UI and keeps dialling darknet peers until the UI exits.
func (cli *Client) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cli.UI.Notice(ui.ConsoleID, fmt.Sprintf("relaychat as %s (%s)", cli.Config.Nickname, cli.Keys.Identity))
	for _, a := range cli.Node.FullAddrs() {
		cli.UI.Notice(ui.ConsoleID, "listening on "+a)
	}
	if cli.Logger != nil {
		cli.UI.Notice(ui.ConsoleID, fmt.Sprintf("logs: nc 127.0.0.1 %d", cli.Logger.Port))
	}
	cli.UI.Notice(ui.ConsoleID, "type /help for commands")

	go cli.reconnectLoop(ctx)
	go func() {
		<-ctx.Done()
		cli.UI.Stop()
	}()
	return cli.UI.Run()
}

// Shutdown leaves every room and releases all resources. It tolerates a
// partially built client.
func (cli *Client) Shutdown() {
	if cli.Service != nil {
		cli.Service.Shutdown()
	}
	if cli.Directory != nil {
		cli.Directory.Close()
	}
	if cli.Node != nil {
		if err := cli.Node.Close(); err != nil {
			log.Printf("[CLIENT] closing node: %v", err)
		}
	}
	if cli.DB != nil {
		cli.DB.Close()
	}
	if cli.cancel != nil {
		cli.cancel()
	}
	if cli.Logger != nil {
		cli.Logger.Close()
	}
	if cli.logFile != nil {
		log.SetOutput(os.Stderr)
		_ = cli.logFile.Close()
	}
}
