package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"relaychat/internal/p2p"
	"relaychat/internal/storage"
	"relaychat/internal/utils"
)

var peerCommand = &cli.Command{
	Name:  "peer",
	Usage: "manage the darknet: the peers this node trusts",
	Subcommands: []*cli.Command{
		{
			Name:      "add",
			Usage:     "trust a peer",
			ArgsUsage: "<multiaddr> <nickname>",
			Action:    peerAdd,
		},
		{
			Name:   "list",
			Usage:  "list trusted peers",
			Action: peerList,
		},
		{
			Name:      "remove",
			Usage:     "stop trusting a peer",
			ArgsUsage: "<nickname>",
			Action:    peerRemove,
		},
	},
}

func openPeerDB(c *cli.Context) (*storage.PeerDB, error) {
	cfg, _, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	return storage.OpenPeerDB(cfg.DataDir, cfg.PeerWriteQueue)
}

func peerAdd(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.Exit("usage: relaychat peer add <multiaddr> <nickname>", 2)
	}
	addr, nickname := c.Args().Get(0), c.Args().Get(1)
	if err := utils.ValidateName("nickname", nickname); err != nil {
		return err
	}
	p, err := p2p.ParsePeerAddr(addr, nickname)
	if err != nil {
		return err
	}
	p.AddedAt = time.Now()

	db, err := openPeerDB(c)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Store.SavePeer(c.Context, p); err != nil {
		return err
	}
	fmt.Printf("%s %s %s\n", good("trusting"), bold(p.Nickname), dim(p.Identity.String()))
	return nil
}

func peerList(c *cli.Context) error {
	db, err := openPeerDB(c)
	if err != nil {
		return err
	}
	defer db.Close()
	peers, err := db.Store.ListPeers(c.Context)
	if err != nil {
		return err
	}
	if len(peers) == 0 {
		fmt.Println(dim("no peers yet; add one with `relaychat peer add`"))
		return nil
	}

	now := time.Now()
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, bold("NICKNAME")+"\t"+bold("IDENTITY")+"\t"+bold("LAST SEEN")+"\t"+bold("ADDRESSES"))
	for _, p := range peers {
		seen := dim("never")
		if !p.LastSeen.IsZero() {
			seen = utils.FormatPrettyTime(p.LastSeen, now)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", p.Nickname, p.Identity.Short(), seen, len(p.Addrs))
	}
	return tw.Flush()
}

func peerRemove(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: relaychat peer remove <nickname>", 2)
	}
	nickname := c.Args().First()
	db, err := openPeerDB(c)
	if err != nil {
		return err
	}
	defer db.Close()
	p, err := db.Store.GetPeerByNickname(c.Context, nickname)
	if err != nil {
		return fmt.Errorf("%s: %w", nickname, err)
	}
	if err := db.Store.DeletePeer(c.Context, p.Identity); err != nil {
		return err
	}
	fmt.Printf("%s %s\n", bad("removed"), bold(nickname))
	return nil
}
