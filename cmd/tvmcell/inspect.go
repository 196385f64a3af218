package main

import (
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/branched-services/go-tvmcell"
	"github.com/branched-services/go-tvmcell/tact"
)

type inspectFlags struct {
	File     string
	JSON     bool
	ABI      string
	TypeName string
}

type cellEncoder interface {
	Encode(c *tvmcell.Cell) (string, error)
}

type rootReport struct {
	Hash   string         `json:"hash"`
	Depth  int            `json:"depth"`
	Bits   int            `json:"bits"`
	Refs   int            `json:"refs"`
	Dump   string         `json:"dump"`
	Record map[string]any `json:"record,omitempty"`
}

func newInspectCmd(a *app) *cobra.Command {
	var f inspectFlags
	cmd := &cobra.Command{
		Use:   "inspect [boc]",
		Short: "Decode a bag of cells",
		Long: `Decode a base64 or hex bag of cells given as an argument, with --file,
or on stdin, and print each root's hash, depth and cell tree. With --abi and
--type the first root is also decoded as a record of that contract type.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readInput(cmd, f.File, args)
			if err != nil {
				return err
			}
			roots, err := tvmcell.ParseBoC(input)
			if err != nil {
				return err
			}
			a.logger.Info("decoded bag of cells", zap.Int("roots", len(roots)))

			reports := make([]rootReport, len(roots))
			for i, c := range roots {
				a.logger.Debug("root",
					zap.Int("index", i),
					zap.Stringer("hash", c.Hash()),
					zap.Int("depth", c.Depth()),
				)
				reports[i] = rootReport{
					Hash:  c.Hash().Hex(),
					Depth: c.Depth(),
					Bits:  c.BitsLen(),
					Refs:  c.RefsCount(),
					Dump:  c.String(),
				}
			}

			if f.TypeName != "" {
				rec, err := decodeRecord(f.ABI, f.TypeName, roots[0])
				if err != nil {
					return err
				}
				reports[0].Record = jsonRecord(rec, a.cfg.BoC)
			}

			out := cmd.OutOrStdout()
			if f.JSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{"roots": reports})
			}
			for i, r := range reports {
				fmt.Fprintf(out, "root %d: hash %s depth %d\n%s\n", i, r.Hash, r.Depth, r.Dump)
				if r.Record != nil {
					data, err := json.MarshalIndent(r.Record, "", "  ")
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "%s\n", data)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&f.File, "file", "f", "", "read the bag of cells from a file")
	cmd.Flags().BoolVar(&f.JSON, "json", false, "print a JSON report")
	cmd.Flags().StringVar(&f.ABI, "abi", "", "contract ABI file used with --type")
	cmd.Flags().StringVar(&f.TypeName, "type", "", "decode the first root as this ABI type")
	return cmd
}

func readInput(cmd *cobra.Command, file string, args []string) (string, error) {
	switch {
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", err
		}
		return string(data), nil
	case len(args) == 1 && args[0] != "-":
		return args[0], nil
	default:
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(string(data)) == "" {
			return "", fmt.Errorf("no bag of cells given")
		}
		return string(data), nil
	}
}

func decodeRecord(abiPath, typeName string, c *tvmcell.Cell) (map[string]any, error) {
	if abiPath == "" {
		return nil, fmt.Errorf("--type needs --abi")
	}
	data, err := os.ReadFile(abiPath)
	if err != nil {
		return nil, err
	}
	abi, err := tact.ParseABI(data)
	if err != nil {
		return nil, err
	}
	t, err := abi.Lookup(typeName)
	if err != nil {
		return nil, err
	}
	return t.FromCell(c)
}

// jsonRecord converts decoded field values into JSON-friendly ones: big
// integers as decimal strings, addresses in friendly form, cells as bags
// of cells.
func jsonRecord(rec map[string]any, boc cellEncoder) map[string]any {
	out := make(map[string]any, len(rec))
	for k, v := range rec {
		out[k] = jsonValue(v, boc)
	}
	return out
}

func jsonValue(v any, boc cellEncoder) any {
	switch x := v.(type) {
	case *big.Int:
		return x.String()
	case *tvmcell.Address:
		return x.String()
	case *tvmcell.Cell:
		s, err := boc.Encode(x)
		if err != nil {
			return err.Error()
		}
		return s
	case *tvmcell.Dictionary:
		m := make(map[string]any, x.Len())
		x.Range(func(key *big.Int, value *tvmcell.Cell) bool {
			m[key.String()] = jsonValue(value, boc)
			return true
		})
		return m
	case map[string]any:
		return jsonRecord(x, boc)
	default:
		return v
	}
}
