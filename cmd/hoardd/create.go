package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bitfsorg/hoard-go/fsstore"
)

func newCreateCmd() *cobra.Command {
	var (
		depth int
		opts  fsstore.Options
	)

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a store under the data directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			s, err := createStore(filepath.Join(cfg.DataDir, args[0]), depth, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (depth %d, codec %s, compression %s)\n",
				s.Root(), s.Depth(), s.Codec().Name(), s.Config().Compression)
			return nil
		},
	}

	cmd.Flags().IntVar(&depth, "depth", -1, "shard depth for a hashed store; negative creates a flat store")
	cmd.Flags().StringVar(&opts.Codec, "codec", "", "value codec (default native)")
	cmd.Flags().StringVar(&opts.Compression, "compression", fsstore.CompressNone, "none, gzip or lzw")
	cmd.Flags().BoolVar(&opts.Overwrite, "overwrite", false, "replace an existing store")
	return cmd
}

func createStore(path string, depth int, opts fsstore.Options) (*fsstore.Store, error) {
	if depth < 0 {
		return fsstore.CreateFlat(path, opts)
	}
	return fsstore.CreateHashed(path, depth, opts)
}
