package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"relaychat/internal/config"
	"relaychat/internal/profile"
)

var (
	dataDirFlag = &cli.StringFlag{
		Name:    "data-dir",
		Usage:   "directory holding the profile, peer database and logs",
		EnvVars: []string{"RELAYCHAT_DATA_DIR"},
		Value:   config.DefaultDataDir(),
	}
	configFlag = &cli.StringFlag{
		Name:    "config",
		Usage:   "config file (default <data-dir>/config.yaml)",
		EnvVars: []string{"RELAYCHAT_CONFIG"},
	}
	passwordFlag = &cli.StringFlag{
		Name:    "password",
		Usage:   "profile password; prompted for when empty",
		EnvVars: []string{"RELAYCHAT_PASSWORD"},
	}
	nicknameFlag = &cli.StringFlag{
		Name:  "nickname",
		Usage: "display name offered to peers",
	}

	bold = color.New(color.Bold).SprintFunc()
	dim  = color.New(color.Faint).SprintFunc()
	good = color.New(color.FgGreen).SprintFunc()
	bad  = color.New(color.FgRed).SprintFunc()
)

func newApp() *cli.App {
	return &cli.App{
		Name:  "relaychat",
		Usage: "friend-to-friend chat rooms relayed over trusted peers",
		Flags: []cli.Flag{dataDirFlag, configFlag, passwordFlag},
		Commands: []*cli.Command{
			initCommand,
			idCommand,
			peerCommand,
			runCommand,
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, bad("error:"), err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies command line overrides.
func loadConfig(c *cli.Context) (*config.Config, string, error) {
	dataDir := c.String(dataDirFlag.Name)
	path := c.String(configFlag.Name)
	if path == "" {
		path = config.Path(dataDir)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	if c.IsSet(dataDirFlag.Name) || cfg.DataDir == "" {
		cfg.DataDir = dataDir
	}
	return cfg, path, nil
}

func readPassword(c *cli.Context, prompt string, confirm bool) (string, error) {
	if pw := c.String(passwordFlag.Name); pw != "" {
		return pw, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("no terminal to prompt for a password; use --%s", passwordFlag.Name)
	}
	fmt.Fprint(os.Stderr, prompt)
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	if confirm {
		fmt.Fprint(os.Stderr, "Repeat password: ")
		again, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		if string(again) != string(pw) {
			return "", fmt.Errorf("passwords do not match")
		}
	}
	return string(pw), nil
}

var initCommand = &cli.Command{
	Name:  "init",
	Usage: "create a profile and a default config",
	Flags: []cli.Flag{nicknameFlag},
	Action: func(c *cli.Context) error {
		cfg, path, err := loadConfig(c)
		if err != nil {
			return err
		}
		if nick := c.String(nicknameFlag.Name); nick != "" {
			cfg.Nickname = nick
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		pw, err := readPassword(c, "New profile password: ", true)
		if err != nil {
			return err
		}
		prof, err := profile.GenerateProfile(profile.DefaultPath(cfg.DataDir), pw)
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := cfg.Save(path); err != nil {
				return err
			}
			fmt.Println(dim("wrote"), path)
		}
		fmt.Println(good("profile created"))
		printIdentity(prof)
		return nil
	},
}

var idCommand = &cli.Command{
	Name:  "id",
	Usage: "print this node's identity and peer id",
	Action: func(c *cli.Context) error {
		cfg, _, err := loadConfig(c)
		if err != nil {
			return err
		}
		prof, err := profile.ReadProfile(profile.DefaultPath(cfg.DataDir))
		if err != nil {
			return err
		}
		printIdentity(prof)
		return nil
	},
}

func printIdentity(prof *profile.Profile) {
	fmt.Printf("%s %s\n", bold("identity:"), prof.Identity)
	fmt.Printf("%s  %s\n", bold("peer id:"), prof.PeerID)
	fmt.Println(dim("peers add you with: relaychat peer add <your address>/p2p/" + prof.PeerID + " <nickname>"))
}

var runCommand = &cli.Command{
	Name:   "run",
	Usage:  "start the node and the terminal UI",
	Flags:  []cli.Flag{nicknameFlag},
	Action: runNode,
}
