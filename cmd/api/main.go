package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/xavierca1/ligue-leads/internal/config"
	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/infra/cache"
	"github.com/xavierca1/ligue-leads/internal/infra/database"
	"github.com/xavierca1/ligue-leads/internal/infra/http/handlers"
	"github.com/xavierca1/ligue-leads/internal/infra/http/middleware"
	"github.com/xavierca1/ligue-leads/internal/infra/mail"
	"github.com/xavierca1/ligue-leads/internal/infra/memory"
	"github.com/xavierca1/ligue-leads/internal/infra/notify"
	"github.com/xavierca1/ligue-leads/internal/infra/queue"
	"github.com/xavierca1/ligue-leads/internal/infra/worker"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

type leadStore interface {
	entity.LeadRepositoryInterface
	entity.QueuePositionAllocator
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Repositórios
	var (
		db        *sql.DB
		leads     leadStore
		agents    entity.AgentRepositoryInterface
		notifRepo entity.NotificationRepositoryInterface
	)
	switch cfg.Store {
	case config.StoreMemory:
		store := memory.NewStore()
		leads, agents, notifRepo = store.Leads(), store.Agents(), store.Notifications()
		log.Println("⚠️ Usando store em memória: os dados somem ao reiniciar")
	default:
		db, err = database.NewDBConnection(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("❌ Falha ao conectar no Postgres: %v", err)
		}
		defer db.Close()
		if err := database.Migrate(ctx, db); err != nil {
			log.Fatalf("❌ %v", err)
		}
		leads = database.NewLeadRepository(db)
		agents = database.NewAgentRepository(db)
		notifRepo = database.NewNotificationRepository(db)
	}

	// 2. Cache de admins
	var (
		directory   entity.AgentDirectoryInterface = agents
		redisClient *redis.Client
		roleCache   handlers.RoleCache
	)
	if cfg.RedisURL != "" {
		redisClient, err = cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("❌ %v", err)
		}
		defer redisClient.Close()
		dirCache := cache.NewAgentDirectoryCache(agents, redisClient, cfg.AdminCacheTTL)
		directory, roleCache = dirCache, dirCache
	}

	// 3. Entrega de notificações: banco + RabbitMQ -> e-mail
	sinks := []notify.Sink{notify.NamedSink("database", notify.SinkFunc(notifRepo.Create))}

	var rabbitConn *amqp091.Connection
	if cfg.RabbitMQEnabled() {
		rabbitMQ, err := queue.NewRabbitMQ(cfg.RabbitMQUser, cfg.RabbitMQPass, cfg.RabbitMQHost, cfg.RabbitMQPort)
		if err != nil {
			log.Fatalf("❌ %v", err)
		}
		defer rabbitMQ.Close()
		rabbitConn = rabbitMQ.Conn

		producer := queue.NewProducer(rabbitMQ.Ch)
		sinks = append(sinks, notify.NamedSink("rabbitmq", notify.SinkFunc(producer.PublishNotification)))

		if cfg.MailEnabled() {
			consumerCh, err := rabbitMQ.Conn.Channel()
			if err != nil {
				log.Fatalf("❌ Falha ao abrir canal do consumidor: %v", err)
			}
			mailSender := mail.NewEmailSender(cfg.MailHost, cfg.MailPort, cfg.MailUser, cfg.MailPass, cfg.MailFrom)
			emailWorker := queue.NewWorker(consumerCh, agents, mailSender, notifRepo)
			go func() {
				if err := emailWorker.Start(ctx, queue.QueueName); err != nil {
					log.Printf("❌ Worker de e-mail parou: %v", err)
				}
			}()
		}
	}

	dispatcher := notify.NewDispatcher(cfg.DispatchBuffer, cfg.DispatchWorkers, sinks...)
	dispatcher.Start(context.Background())
	defer dispatcher.Close()

	// 4. UseCases
	metrics := middleware.NewLeadMetrics(prometheus.DefaultRegisterer)
	admins := usecase.NewAdminNotifier(directory, dispatcher, metrics)

	enqueueUC := usecase.NewEnqueueLeadUseCase(leads, admins, metrics)
	assignUC := usecase.NewAssignLeadUseCase(leads, directory, enqueueUC, dispatcher, metrics)
	queueUC := usecase.NewLeadQueueUseCase(leads, directory, assignUC, dispatcher, metrics)
	queueUC.StopOnFirstFailure = cfg.DrainStopOnFirstFailure
	lifecycleUC := usecase.NewLeadLifecycleUseCase(leads, assignUC, admins)
	monitorUC := usecase.NewQueueMonitorUseCase(leads, admins, metrics)
	monitorUC.AlertThreshold = cfg.QueueAlertThreshold
	monitorUC.UrgentAfter = cfg.UrgentWait

	router := usecase.NewLeadRouter(lifecycleUC, queueUC, monitorUC)

	// 5. Worker do monitor
	monitorWorker, err := worker.NewQueueMonitorWorker(router, cfg.MonitorSchedule)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	go monitorWorker.Start(ctx)

	// 6. HTTP
	agentHandler := handlers.NewAgentHandler(agents, router)
	agentHandler.Cache = roleCache

	r := handlers.NewRouter(handlers.Routes{
		Leads:  handlers.NewLeadHandler(router, nil),
		Queue:  handlers.NewQueueHandler(router),
		Agents: agentHandler,
		Health: handlers.NewHealthHandler(db, rabbitConn, redisClient),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("🔥 Lead Router rodando na porta %s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ Servidor HTTP: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("🛑 Encerrando...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️ Erro ao encerrar HTTP: %v", err)
	}
}
