package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"vouch/internal/admin"
	"vouch/internal/agent"
	"vouch/internal/audit"
	"vouch/internal/claim"
	"vouch/internal/domain"
	"vouch/internal/events"
	"vouch/internal/jwttoken"
	"vouch/internal/platform/config"
	"vouch/internal/platform/httpserver"
	"vouch/internal/platform/logger"
	"vouch/internal/platform/metrics"
	redisplatform "vouch/internal/platform/redis"
	"vouch/internal/poller"
	"vouch/internal/secrets"
	"vouch/internal/spaces"
	httptransport "vouch/internal/transport/http"
)

const (
	secretTTL       = 24 * time.Hour
	auditInboxSize  = 256
	shutdownTimeout = 10 * time.Second
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	// The shared client carries the server's own wallet session for the
	// watcher and admin paths. Claim sessions never touch it: the engine
	// dials a fresh handle per claim through the same client.
	agentClient := agent.NewHTTPClient(cfg.AgentURL, cfg.AgentBootURL)
	if cfg.AgentPasscode != "" {
		if err := agentClient.Connect(ctx, cfg.AgentPasscode); err != nil {
			return fmt.Errorf("connect agent: %w", err)
		}
	} else {
		log.Warn("no agent passcode configured; watcher and admin calls will fail until one is set")
	}
	spacesClient := spaces.NewClient(cfg.SpacesURL)

	// Session secrets: Redis when configured, in-memory otherwise.
	var secretStore secrets.Store = secrets.NewMemoryStore()
	if cfg.RedisURL != "" {
		rc, err := redisplatform.New(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer rc.Close()
		secretStore = secrets.NewRedisStore(rc.Client, secretTTL)
		log.Info("session secrets backed by redis")
	}

	// Audit trail: postgres when configured, plus an optional Kafka fanout.
	var auditStore audit.Store = audit.NewMemoryStore()
	if cfg.DatabaseURL != "" {
		pg, err := audit.OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open audit store: %w", err)
		}
		defer pg.Close()
		auditStore = pg
		log.Info("audit trail backed by postgres")
	}
	inbox := make(chan audit.Event, auditInboxSize)
	worker := audit.NewWorker(auditStore, inbox, log)
	var publisher audit.Publisher = audit.NewChannelPublisher(inbox)
	if len(cfg.KafkaBrokers) > 0 {
		kp, err := audit.NewKafkaPublisher(ctx, cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			return fmt.Errorf("connect kafka: %w", err)
		}
		defer kp.Close()
		publisher = audit.MultiPublisher{publisher, kp}
		log.Info("audit events fanned out to kafka", "topic", cfg.AuditTopic)
	}

	// Applicant-side watchers run only while someone is listening on the
	// event stream; the hub's subscriber count drives their lifecycle.
	var grantWatcher *poller.Watcher[domain.GrantOffer]
	var noticeWatcher *poller.Watcher[domain.Notification]
	hub := events.NewHub(events.WithUpstream(
		func() {
			grantWatcher.Start(ctx)
			noticeWatcher.Start(ctx)
		},
		func() {
			grantWatcher.Stop()
			noticeWatcher.Stop()
		},
	))
	grantWatcher = poller.New("grants", cfg.PollInterval,
		poller.FetchGrants(agentClient, log),
		poller.WithLogger[domain.GrantOffer](log),
		poller.WithMetrics[domain.GrantOffer](m),
	)
	noticeWatcher = poller.New("notices", cfg.PollInterval,
		poller.WatchNotices(agentClient, hub, log),
		poller.WithLogger[domain.Notification](log),
		poller.WithMetrics[domain.Notification](m),
	)

	// The admin registration list polls for the whole process lifetime.
	registrations := poller.New("registrations", cfg.PollInterval,
		poller.FetchApplications(agentClient, hub, log),
		poller.WithLogger[domain.RegistrationApplication](log),
		poller.WithMetrics[domain.RegistrationApplication](m),
	)
	registrations.Start(ctx)
	defer registrations.Stop()

	engine := claim.NewEngine(agentClient, spacesClient, secretStore,
		claim.Config{OrgAID: cfg.OrgIdentifier},
		claim.WithLogger(log),
		claim.WithAuditPublisher(publisher),
		claim.WithMetrics(m),
		claim.WithEventHub(hub),
	)
	adminSvc := admin.NewService(agentClient, spacesClient,
		admin.Config{
			OrgAID:           cfg.OrgIdentifier,
			RegistryID:       cfg.RegistryID,
			CredentialSchema: cfg.CredentialSchema,
		},
		admin.WithLogger(log),
		admin.WithAuditPublisher(publisher),
		admin.WithMetrics(m),
	)

	router := httptransport.NewRouter(httptransport.Deps{
		Claim:         engine,
		Admin:         adminSvc,
		Registrations: registrations,
		Hub:           hub,
		Tokens:        jwttoken.NewService(cfg.AdminJWTKey, "vouch"),
		Logger:        log,
		Registry:      registry,
	})
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return worker.Run(gctx) })
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
