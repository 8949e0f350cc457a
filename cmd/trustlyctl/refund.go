package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kurbar/trustly-go/internal/core/domain"
)

var refund domain.Refund

var refundCmd = &cobra.Command{
	Use:   "refund",
	Short: "Refund a previous deposit",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := buildClient()
		if err != nil {
			return err
		}

		resp, err := client.Refund(context.Background(), refund)
		if err != nil {
			return err
		}
		return printResult(resp)
	},
}

func init() {
	g := refundCmd.Flags()
	g.StringVar(&refund.OrderID, "order-id", "", "order to refund")
	g.StringVar(&refund.Amount, "amount", "", "amount with decimal point")
	g.StringVar(&refund.Currency, "currency", "", "ISO 4217 currency")
}
