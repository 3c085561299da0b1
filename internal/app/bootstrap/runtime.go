package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/viralforge/mesh/services/integrations/M92-offerwall-service/internal/adapters/adblue"
	eventadapter "github.com/viralforge/mesh/services/integrations/M92-offerwall-service/internal/adapters/events"
	"github.com/viralforge/mesh/services/integrations/M92-offerwall-service/internal/adapters/geo"
	grpcadapter "github.com/viralforge/mesh/services/integrations/M92-offerwall-service/internal/adapters/grpc"
	httpadapter "github.com/viralforge/mesh/services/integrations/M92-offerwall-service/internal/adapters/http"
	"github.com/viralforge/mesh/services/integrations/M92-offerwall-service/internal/adapters/memory"
	"github.com/viralforge/mesh/services/integrations/M92-offerwall-service/internal/adapters/roblox"
	"github.com/viralforge/mesh/services/integrations/M92-offerwall-service/internal/application"
	"github.com/viralforge/mesh/services/integrations/M92-offerwall-service/internal/metrics"
	"google.golang.org/grpc"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	httpServer *http.Server
	grpcServer *grpc.Server
	grpcLis    net.Listener
}

func NewRuntime(_ context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With("service", cfg.ServiceID)
	slog.SetDefault(logger)
	metrics.Register()

	ledger := memory.NewLedger()
	advertiser := adblue.New(adblue.Config{
		FeedURL:     cfg.FeedURL,
		LeadsURL:    cfg.LeadsURL,
		PublisherID: cfg.PublisherID,
		APIKey:      cfg.APIKey,
		HTTPClient:  &http.Client{Timeout: cfg.FeedTimeout},
	})
	resolver := geo.NewResolver(geo.Config{
		PrimaryBaseURL: cfg.GeoPrimaryURL,
		BackupBaseURL:  cfg.GeoBackupURL,
		HTTPClient:     &http.Client{Timeout: cfg.GeoTimeout},
	})
	identity := roblox.New(roblox.Config{
		UsersURL:      cfg.IdentityUsersURL,
		ThumbnailsURL: cfg.IdentityThumbsURL,
	})
	publisher := eventadapter.NewLoggingPublisher(logger)

	svc := application.NewService(application.Dependencies{
		Config: application.Config{
			ServiceName:            cfg.ServiceID,
			RequiredCompletions:    cfg.RequiredCompletions,
			MaxOffers:              cfg.MaxOffers,
			DefaultCountry:         cfg.DefaultCountry,
			FallbackCountries:      cfg.FallbackCountries,
			TrustedPostbackSources: cfg.PostbackSources,
		},
		Ledger:    ledger,
		OfferFeed: advertiser,
		LeadFeed:  advertiser,
		Geo:       resolver,
		Identity:  identity,
		Events:    publisher,
	})

	handler := httpadapter.NewHandler(svc)
	router := httpadapter.NewRouter(handler)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpc.NewServer()
	grpcadapter.Register(grpcServer, grpcadapter.NewOfferwallInternalServer(svc))
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		return nil, err
	}

	return &Runtime{cfg: cfg, logger: logger, httpServer: httpServer, grpcServer: grpcServer, grpcLis: lis}, nil
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	errCh := make(chan error, 2)
	go func() {
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		if err := r.grpcServer.Serve(r.grpcLis); err != nil {
			errCh <- err
		}
	}()
	r.logger.InfoContext(ctx, "service started", "http_port", r.cfg.HTTPPort, "grpc_port", r.cfg.GRPCPort)
	select {
	case <-ctx.Done():
	case err := <-errCh:
		r.logger.ErrorContext(ctx, "runtime failure", "error", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.grpcServer.GracefulStop()
	return nil
}
