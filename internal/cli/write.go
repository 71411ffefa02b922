package cli

import (
	"fmt"
	"io"
	"strings"

	"messageboard/pkg/board"
	"messageboard/pkg/models"

	"github.com/spf13/cobra"
)

func newPostCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "post <message>",
		Short: "Post a message to the broadcast feed",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.requireIdentity(); err != nil {
				return err
			}
			c, err := o.client()
			if err != nil {
				return err
			}
			r, err := c.Post(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return printReceipt(cmd.OutOrStdout(), r)
		},
	}
}

func newSendCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "send <recipient> <message>",
		Short: "Send a private message",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.requireIdentity(); err != nil {
				return err
			}
			to, err := models.ParseIdentity(args[0])
			if err != nil {
				return fmt.Errorf("invalid recipient %q: %w", args[0], err)
			}
			c, err := o.client()
			if err != nil {
				return err
			}
			r, err := c.Send(cmd.Context(), to, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			return printReceipt(cmd.OutOrStdout(), r)
		},
	}
}

func newCharLimitCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "char-limit",
		Short: "Print the board's character limit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := o.client()
			if err != nil {
				return err
			}
			n, err := c.CharLimit(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
}

// printReceipt reports a stored write with its sequence number, and a
// rejected one with the board's diagnostic.
func printReceipt(w io.Writer, r board.Receipt) error {
	if !r.Stored {
		fmt.Fprintln(w, "rejected:", r.Diagnostic())
		return nil
	}
	if r.Seq != nil {
		fmt.Fprintf(w, "stored #%d\n", *r.Seq)
		return nil
	}
	fmt.Fprintln(w, "stored")
	return nil
}
