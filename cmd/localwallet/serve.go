package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AlexZinkM/evm-local-wallet/internal/api"
	"github.com/AlexZinkM/evm-local-wallet/internal/client"
	"github.com/AlexZinkM/evm-local-wallet/internal/common"
	"github.com/AlexZinkM/evm-local-wallet/internal/config"
	"github.com/AlexZinkM/evm-local-wallet/internal/handler"
	"github.com/AlexZinkM/evm-local-wallet/internal/logging"
	"github.com/AlexZinkM/evm-local-wallet/internal/session"
	"github.com/AlexZinkM/evm-local-wallet/wallet"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var log = logrus.WithField("prefix", "main")

var listenHost = "127.0.0.1"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs the wallet HTTP service.",
	Long: "Runs the wallet HTTP service.\n" +
		"\nConfiguration is read from the environment (ETH_RPC_URL, TOKEN_ADDRESS, ...).\n" +
		"The service listens on localhost only unless --host is given.\n",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Init(); err != nil {
			return err
		}
		return serve(cmd.Context(), config.Get())
	},
}

func init() {
	serveCmd.Flags().StringVar(&listenHost, "host", listenHost, "interface to listen on")
}

func serve(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := logging.Configure(logging.Options{
		Level:  cfg.LogLevel,
		Dir:    cfg.LogDir,
		MaxAge: cfg.LogMaxAge,
	}); err != nil {
		return err
	}

	if !common.IsValidAddress(cfg.TokenAddress) {
		return fmt.Errorf("TOKEN_ADDRESS %q is not a valid address", cfg.TokenAddress)
	}
	token := ethcommon.HexToAddress(cfg.TokenAddress)

	gateway, err := client.Dial(ctx, cfg.EthRPCURL, client.OptionsFromConfig(cfg))
	if err != nil {
		return err
	}
	defer gateway.Close()

	if _, err := gateway.ChainID(ctx); err != nil {
		log.WithError(err).Warn("Node is not reachable yet, chain id will be checked on first use")
	}

	store := session.NewStore()
	defer store.Clear()

	opts := []wallet.Option{wallet.WithSendCooldown(cfg.SendCooldown)}
	if cfg.PriceCurrency != "" {
		opts = append(opts, wallet.WithPrices(client.NewCoinGeckoClient(cfg.PriceAPIURL, cfg.PricePlatform), cfg.PriceCurrency))
	}
	svc := wallet.NewService(store, gateway, token, opts...)

	walletHandler, err := handler.NewWalletHandler(svc, cfg.MaxKeystoreBytes)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              net.JoinHostPort(listenHost, cfg.Port),
		Handler:           api.SetupRouter(walletHandler, cfg.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"addr":  server.Addr,
			"token": token.Hex(),
		}).Info("Starting wallet service")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	// In-flight transfers may still be waiting for confirmation.
	grace := cfg.ConfirmTimeout + cfg.NodeTimeout
	log.WithField("grace", grace).Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}
