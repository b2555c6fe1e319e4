// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tigerzhang/clean-dns/internal/api"
	"github.com/tigerzhang/clean-dns/internal/config"
	"github.com/tigerzhang/clean-dns/internal/dnsserver"
	"github.com/tigerzhang/clean-dns/internal/stats"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the DNS forwarder",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().String("config", "config.yaml", "path to the pipeline configuration document")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	_, entry, err := config.Build(cfg, func(msg string) {
		fmt.Fprintln(cmd.ErrOrStderr(), msg)
	})
	if err != nil {
		return err
	}

	sink := stats.New()
	server := dnsserver.New(cfg.Bind, entry, sink)
	apiServer := api.NewServer(fmt.Sprintf(":%d", cfg.APIPort), sink)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		<-ctx.Done()
		apiServer.Close()
	}()

	apiErrCh := make(chan error, 1)
	go func() { apiErrCh <- apiServer.ListenAndServe() }()

	runErr := server.Run(ctx)
	apiErr := <-apiErrCh
	if errors.Is(apiErr, http.ErrServerClosed) {
		apiErr = nil
	}
	if runErr != nil {
		return runErr
	}
	return apiErr
}
