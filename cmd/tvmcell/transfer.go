package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/branched-services/go-tvmcell"
	"github.com/branched-services/go-tvmcell/tact"
)

type transferFlags struct {
	Amount              string
	Destination         string
	ResponseDestination string
	ForwardAmount       string
	QueryID             uint64
	Comment             string
	CustomPayload       string
}

func newTransferCmd(a *app) *cobra.Command {
	var f transferFlags
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Build a jetton transfer message body",
		Long: `Assemble a jetton transfer body and print it as a bag of cells. Amounts are
decimal whole coins. Unset response destination, forward amount and query id
come from the transfer section of the config.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := f.message(cmd, a)
			if err != nil {
				return err
			}
			body, err := tact.ToCell(msg)
			if err != nil {
				return err
			}
			a.logger.Info("built transfer",
				zap.String("amount", tvmcell.FormatCoins(msg.Amount)),
				zap.String("destination", msg.Destination.String()),
				zap.Stringer("hash", body.Hash()),
			)
			out, err := a.cfg.BoC.Encode(body)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&f.Amount, "amount", "", "jetton amount in whole coins")
	cmd.Flags().StringVar(&f.Destination, "to", "", "destination address")
	cmd.Flags().StringVar(&f.ResponseDestination, "response", "", "response destination address")
	cmd.Flags().StringVar(&f.ForwardAmount, "forward-amount", "", "forward TON amount in whole coins")
	cmd.Flags().Uint64Var(&f.QueryID, "query-id", 0, "query id")
	cmd.Flags().StringVar(&f.Comment, "comment", "", "text comment carried as the forward payload")
	cmd.Flags().StringVar(&f.CustomPayload, "custom-payload", "", "custom payload as a bag of cells")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func (f *transferFlags) message(cmd *cobra.Command, a *app) (*tact.TokenTransfer, error) {
	defaults := a.cfg.Transfer
	msg := &tact.TokenTransfer{QueryID: defaults.QueryID}

	var err error
	if msg.Amount, err = tvmcell.ParseCoins(f.Amount); err != nil {
		return nil, fmt.Errorf("--amount: %w", err)
	}
	if msg.Destination, err = tvmcell.ParseAddress(f.Destination); err != nil {
		return nil, fmt.Errorf("--to: %w", err)
	}

	response := f.ResponseDestination
	if response == "" {
		response = defaults.ResponseDestination
	}
	if response == "" {
		return nil, fmt.Errorf("--response is required when transfer.response_destination is not configured")
	}
	if msg.ResponseDestination, err = tvmcell.ParseAddress(response); err != nil {
		return nil, fmt.Errorf("--response: %w", err)
	}

	msg.ForwardTonAmount = defaults.ForwardTon()
	if f.ForwardAmount != "" {
		if msg.ForwardTonAmount, err = tvmcell.ParseCoins(f.ForwardAmount); err != nil {
			return nil, fmt.Errorf("--forward-amount: %w", err)
		}
	}
	if cmd.Flags().Changed("query-id") {
		msg.QueryID = f.QueryID
	}

	if f.CustomPayload != "" {
		roots, err := tvmcell.ParseBoC(f.CustomPayload)
		if err != nil {
			return nil, fmt.Errorf("--custom-payload: %w", err)
		}
		msg.CustomPayload = roots[0]
	}
	if f.Comment != "" {
		if msg.ForwardPayload, err = tact.CommentPayload(f.Comment); err != nil {
			return nil, fmt.Errorf("--comment: %w", err)
		}
	}
	return msg, nil
}
