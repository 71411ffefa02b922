package cli

import (
	"fmt"
	"os"

	"messageboard/pkg/client"
	"messageboard/pkg/models"

	"github.com/spf13/cobra"
	"github.com/valyala/fasthttp"
)

type rootOptions struct {
	configPath string
	flags      Config

	// httpClient overrides the transport, used by tests.
	httpClient *fasthttp.Client
}

// NewRootCmd builds the boardctl command tree.
func NewRootCmd(version string) *cobra.Command {
	return newRootCmd(version, &rootOptions{})
}

func newRootCmd(version string, opts *rootOptions) *cobra.Command {
	root := &cobra.Command{
		Use:   "boardctl",
		Short: "Command line client for the messageboard service",
		Long: `boardctl posts broadcasts, sends private messages and reads the
feed, threads and friend lists of a messageboard server.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "config file path (default is $HOME/"+defaultConfigName+")")
	pf.StringVarP(&opts.flags.Server, "server", "s", "", "server url (default http://localhost:8080)")
	pf.StringVar(&opts.flags.Identity, "as", "", "caller identity (0x-prefixed address)")
	pf.StringVar(&opts.flags.SigningKey, "signing-key", "", "key used to sign the caller identity")
	pf.StringVar(&opts.flags.AdminKey, "admin-key", "", "admin API key")
	pf.StringVar(&opts.flags.Timeout, "timeout", "", "request timeout, e.g. 5s")

	root.AddCommand(
		newPostCmd(opts),
		newSendCmd(opts),
		newCharLimitCmd(opts),
		newBroadcastsCmd(opts),
		newBroadcastCmd(opts),
		newMessagesCmd(opts),
		newMessageCmd(opts),
		newFriendsCmd(opts),
		newStatsCmd(opts),
		newBackupCmd(opts),
	)
	return root
}

// Execute runs boardctl with os.Args.
func Execute(version string) {
	if err := NewRootCmd(version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// config resolves file settings overlaid with flags.
func (o *rootOptions) config() (*Config, error) {
	path, required := o.configPath, true
	if path == "" {
		path, required = DefaultConfigPath(), false
	}
	cfg, err := LoadFromFile(path, required)
	if err != nil {
		return nil, err
	}
	cfg.overlay(o.flags)
	if cfg.Server == "" {
		cfg.Server = "http://localhost:8080"
	}
	return cfg, nil
}

func (o *rootOptions) client() (*client.Client, error) {
	cfg, err := o.config()
	if err != nil {
		return nil, err
	}
	timeout, err := cfg.timeout()
	if err != nil {
		return nil, err
	}
	opts := client.Options{
		BaseURL:    cfg.Server,
		SigningKey: cfg.SigningKey,
		AdminKey:   cfg.AdminKey,
		Timeout:    timeout,
		HTTP:       o.httpClient,
	}
	if cfg.Identity != "" {
		id, err := models.ParseIdentity(cfg.Identity)
		if err != nil {
			return nil, fmt.Errorf("invalid identity %q: %w", cfg.Identity, err)
		}
		opts.Identity = id
	}
	return client.New(opts)
}

// requireIdentity fails early for commands that write.
func (o *rootOptions) requireIdentity() error {
	cfg, err := o.config()
	if err != nil {
		return err
	}
	if cfg.Identity == "" {
		return fmt.Errorf("caller identity required: pass --as or set identity in the config file")
	}
	return nil
}
