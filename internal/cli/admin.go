package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newStatsCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show board counters (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := o.client()
			if err != nil {
				return err
			}
			st, err := c.Stats(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Broadcasts:       %s\n", humanize.Comma(int64(st.Broadcasts)))
			fmt.Fprintf(w, "Threads:          %s\n", humanize.Comma(int64(st.Threads)))
			fmt.Fprintf(w, "Private messages: %s\n", humanize.Comma(int64(st.Private)))
			fmt.Fprintf(w, "Friend edges:     %s\n", humanize.Comma(int64(st.FriendEdges)))
			fmt.Fprintf(w, "Char limit:       %d\n", st.CharLimit)
			return nil
		},
	}
}

func newBackupCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Take a checkpoint on the server now (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := o.client()
			if err != nil {
				return err
			}
			res, err := c.Backup(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "backup %s written to %s (%s, %dms, pruned %d)\n",
				res.ID, res.Path, res.Size, res.TookMS, res.Pruned)
			return nil
		},
	}
}
