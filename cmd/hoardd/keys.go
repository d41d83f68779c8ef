package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bitfsorg/hoard-go/remote"
)

func newKeysCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "keys STORE@HOST[:PORT]",
		Short: "List the keys of a remote store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ep, err := remote.ParseEndpoint(args[0])
			if err != nil {
				return err
			}
			c, err := ep.Dial(remote.WithTimeout(timeout))
			if err != nil {
				return err
			}
			defer c.Close()

			for k, err := range c.Keys() {
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", remote.DefaultTimeout, "round-trip timeout")
	return cmd
}
