package main

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/branched-services/go-tvmcell"
)

type dictFlags struct {
	KeyBits int
	Signed  bool
	Dump    bool
}

func newDictCmd(a *app) *cobra.Command {
	var f dictFlags
	cmd := &cobra.Command{
		Use:   "dict key=hexvalue...",
		Short: "Build a dictionary cell",
		Long: `Build a dictionary from key=value pairs and print its root as a bag of
cells. Keys are decimal or 0x-prefixed integers; values are hex bytes stored
as the leaf value. A repeated key keeps its last value.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []tvmcell.DictOption
			if f.Signed {
				opts = append(opts, tvmcell.WithSignedKeys())
			}
			d := tvmcell.NewDictionary(f.KeyBits, opts...)
			for _, arg := range args {
				key, value, err := parseEntry(arg)
				if err != nil {
					return err
				}
				if err := d.Set(key, value); err != nil {
					return fmt.Errorf("entry %q: %w", arg, err)
				}
			}

			root, err := d.ToCell()
			if err != nil {
				return err
			}
			a.logger.Info("built dictionary",
				zap.Int("entries", d.Len()),
				zap.Int("key_bits", f.KeyBits),
				zap.Stringer("hash", root.Hash()),
			)

			out := cmd.OutOrStdout()
			if f.Dump {
				fmt.Fprintln(out, root.String())
			}
			s, err := a.cfg.BoC.Encode(root)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, s)
			return nil
		},
	}
	cmd.Flags().IntVar(&f.KeyBits, "key-bits", 32, "key width in bits")
	cmd.Flags().BoolVar(&f.Signed, "signed", false, "keys are signed integers")
	cmd.Flags().BoolVar(&f.Dump, "dump", false, "print the cell tree before the bag of cells")
	return cmd
}

func parseEntry(arg string) (*big.Int, *tvmcell.Cell, error) {
	k, v, ok := strings.Cut(arg, "=")
	if !ok {
		return nil, nil, fmt.Errorf("entry %q: want key=hexvalue", arg)
	}
	key, ok := new(big.Int).SetString(k, 0)
	if !ok {
		return nil, nil, fmt.Errorf("entry %q: bad key", arg)
	}
	if !strings.HasPrefix(v, "0x") {
		v = "0x" + v
	}
	raw, err := hexutil.Decode(v)
	if err != nil {
		return nil, nil, fmt.Errorf("entry %q: %w", arg, err)
	}
	b := tvmcell.BeginCell()
	if err := b.StoreBytes(raw); err != nil {
		return nil, nil, fmt.Errorf("entry %q: %w", arg, err)
	}
	c, err := b.EndCell()
	if err != nil {
		return nil, nil, err
	}
	return key, c, nil
}
