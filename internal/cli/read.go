package cli

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"messageboard/pkg/codec"
	"messageboard/pkg/models"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func parseIndex(raw string) (uint64, error) {
	i, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid index %q", raw)
	}
	return i, nil
}

func parsePair(a, b string) (models.Identity, models.Identity, error) {
	x, err := models.ParseIdentity(a)
	if err != nil {
		return "", "", fmt.Errorf("invalid identity %q: %w", a, err)
	}
	y, err := models.ParseIdentity(b)
	if err != nil {
		return "", "", fmt.Errorf("invalid identity %q: %w", b, err)
	}
	return x, y, nil
}

func newBroadcastsCmd(o *rootOptions) *cobra.Command {
	var limit uint64
	cmd := &cobra.Command{
		Use:   "broadcasts",
		Short: "List the newest broadcasts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := o.client()
			if err != nil {
				return err
			}
			env, err := c.Broadcasts(cmd.Context(), limit)
			if err != nil {
				return err
			}
			printRecords(cmd.OutOrStdout(), env)
			return nil
		},
	}
	cmd.Flags().Uint64VarP(&limit, "limit", "n", 10, "number of records")
	return cmd
}

func newBroadcastCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "broadcast <index>",
		Short: "Print the broadcast at index (0 is newest)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			c, err := o.client()
			if err != nil {
				return err
			}
			s, err := c.Broadcast(cmd.Context(), i)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s)
			return nil
		},
	}
}

func newMessagesCmd(o *rootOptions) *cobra.Command {
	var limit uint64
	cmd := &cobra.Command{
		Use:   "messages <a> <b>",
		Short: "List the newest messages of the thread between a and b",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, b, err := parsePair(args[0], args[1])
			if err != nil {
				return err
			}
			c, err := o.client()
			if err != nil {
				return err
			}
			env, err := c.Messages(cmd.Context(), a, b, limit)
			if err != nil {
				return err
			}
			printRecords(cmd.OutOrStdout(), env)
			return nil
		},
	}
	cmd.Flags().Uint64VarP(&limit, "limit", "n", 10, "number of records")
	return cmd
}

func newMessageCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "message <a> <b> <index>",
		Short: "Print a thread message by index (0 is newest)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, b, err := parsePair(args[0], args[1])
			if err != nil {
				return err
			}
			i, err := parseIndex(args[2])
			if err != nil {
				return err
			}
			c, err := o.client()
			if err != nil {
				return err
			}
			s, err := c.Message(cmd.Context(), a, b, i)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s)
			return nil
		},
	}
}

func newFriendsCmd(o *rootOptions) *cobra.Command {
	var asString bool
	cmd := &cobra.Command{
		Use:   "friends <identity>",
		Short: "List the identities that share a thread with identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			x, err := models.ParseIdentity(args[0])
			if err != nil {
				return fmt.Errorf("invalid identity %q: %w", args[0], err)
			}
			c, err := o.client()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asString {
				s, err := c.FriendsString(cmd.Context(), x)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, s)
				return nil
			}
			ids, err := c.Friends(cmd.Context(), x)
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(out, id.Hex())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asString, "string", false, "print the space separated form")
	return cmd
}

// printRecords writes one line per record, newest first.
func printRecords(w io.Writer, env codec.Envelope) {
	if len(env.Records) == 0 {
		fmt.Fprintln(w, "(no messages)")
		return
	}
	for _, r := range env.Newest() {
		from := r.Sender.Hex()
		if r.Private() {
			from += " -> " + r.Recipient.Hex()
		}
		fmt.Fprintf(w, "#%d  %s  %s\n    %s\n", r.Seq, from, humanize.Time(time.Unix(0, r.TS)), r.Message)
	}
}
