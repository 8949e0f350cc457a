package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kurbar/trustly-go/config"
	"github.com/kurbar/trustly-go/internal/adapter/transport/httpclient"
	"github.com/kurbar/trustly-go/internal/core/domain"
	"github.com/kurbar/trustly-go/internal/service"
	"github.com/kurbar/trustly-go/pkg/logger"
)

var deposit domain.Deposit

var depositCmd = &cobra.Command{
	Use:   "deposit",
	Short: "Initiate a deposit",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := buildClient()
		if err != nil {
			return err
		}

		resp, err := client.Deposit(context.Background(), deposit)
		if err != nil {
			return err
		}
		return printResult(resp)
	},
}

func init() {
	f := depositCmd.Flags()
	f.StringVar(&deposit.NotificationURL, "notification-url", "", "URL notifications are delivered to")
	f.StringVar(&deposit.EndUserID, "end-user-id", "", "end user identifier")
	f.StringVar(&deposit.MessageID, "message-id", "", "merchant-side message identifier")
	f.StringVar(&deposit.Currency, "currency", "", "ISO 4217 currency")
	f.StringVar(&deposit.Firstname, "firstname", "", "end user first name")
	f.StringVar(&deposit.Lastname, "lastname", "", "end user last name")
	f.StringVar(&deposit.Email, "email", "", "end user email")
	f.StringVar(&deposit.Locale, "locale", "", "end user locale, e.g. fi_FI")
	f.StringVar(&deposit.Country, "country", "", "ISO 3166-1 alpha-2 country")
	f.StringVar(&deposit.Amount, "amount", "", "amount with decimal point")
	f.StringVar(&deposit.IP, "ip", "", "end user IP address")
	f.StringVar(&deposit.SuccessURL, "success-url", "", "redirect URL on success")
	f.StringVar(&deposit.FailURL, "fail-url", "", "redirect URL on failure")
	f.StringVar(&deposit.HoldNotifications, "hold-notifications", "", "set 1 to hold notifications")
}

// buildClient wires the signed API client from configuration.
func buildClient() (*service.Client, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	sigSvc, err := service.NewRSASignatureService(cfg.Keys.BaseDir, cfg.Keys.PrivateKey, cfg.Keys.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("loading key material: %w", err)
	}

	trans := httpclient.New(cfg.API.ConnectTimeout, cfg.API.Timeout, log)

	return service.NewClient(cfg.API.URL, cfg.API.Username, cfg.API.Password, sigSvc, trans, log), nil
}

// printResult renders the verified response on stdout.
func printResult(resp *domain.Response) error {
	if resp.IsError() {
		fmt.Fprintf(os.Stderr, "API error %s: %s\n", resp.ErrorCode(), resp.ErrorMessage())
		os.Exit(1)
	}

	out, err := json.MarshalIndent(resp.Data(), "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
