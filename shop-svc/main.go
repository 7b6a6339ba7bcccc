// Command shop-svc runs the SmartOrder back office and customer ordering API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"smartorder/config"

	"github.com/spf13/cobra"
)

const (
	Version = "0.1.0"
	appName = "shop-svc"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          appName,
		Short:        "SmartOrder shop service",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}

	cmd.AddCommand(serveCmd(), resetCmd(), linkCmd(), versionCmd())
	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete every shop, menu, table, reservation and order",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(config.Load())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.store.ClearAll(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All SmartOrder data cleared")
			return nil
		},
	}
}

func linkCmd() *cobra.Command {
	var shopID, tableNo, fingerprint string

	cmd := &cobra.Command{
		Use:   "link",
		Short: "Print the customer ordering link for a table",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(config.Load())
			if err != nil {
				return err
			}
			defer a.Close()

			link, err := a.links.Link(cmd.Context(), shopID, tableNo, fingerprint)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), link.URL)
			return nil
		},
	}

	cmd.Flags().StringVar(&shopID, "shop", "", "Shop id")
	cmd.Flags().StringVar(&tableNo, "table", "", "Table number")
	cmd.Flags().StringVar(&fingerprint, "fingerprint", "", "Device fingerprint (User-Agent) the link is bound to")
	_ = cmd.MarkFlagRequired("shop")
	_ = cmd.MarkFlagRequired("table")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
		},
	}
}

func serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(config.Load())
	if err != nil {
		return err
	}
	defer a.Close()

	a.startEventBridge(ctx)
	return a.Serve(ctx)
}
