package main

import (
	"barbook/internal/availability"
	barbershandler "barbook/internal/barbers/handler"
	barbersrepo "barbook/internal/barbers/repository"
	bookingshandler "barbook/internal/bookings/handler"
	bookingsrepo "barbook/internal/bookings/repository"
	bookingsservice "barbook/internal/bookings/service"
	"barbook/internal/bookings/validator"
	"barbook/internal/events"
	"barbook/internal/identity"
	messageshandler "barbook/internal/messages/handler"
	messagesrepo "barbook/internal/messages/repository"
	"barbook/internal/sweeper"
	"barbook/pkg/app"
	"barbook/pkg/config"
	"barbook/pkg/contracts"
	"barbook/pkg/kafka"
	kafka_config "barbook/pkg/kafka/config"
	kafka_middleware "barbook/pkg/kafka/middleware"
	"barbook/pkg/middleware"

	"github.com/joho/godotenv"
	"github.com/julienschmidt/httprouter"
)

const ServiceName = "barbook"

type stopFunc func()

func (f stopFunc) Stop() { f() }

type compositeHandler []contracts.Handler

func (c compositeHandler) RegisterRoutes(router *httprouter.Router) {
	for _, h := range c {
		h.RegisterRoutes(router)
	}
}

func main() {
	_ = godotenv.Load()

	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	if cfg.RedisAddr != "" {
		cfg.SetRedis()
	}

	cfg.Log.Info("Starting barbershop booking service")

	serverApp := app.NewApplication(cfg)

	publisher := initPublisher(cfg)
	serverApp.AddWorker(stopFunc(func() {
		if err := publisher.Close(); err != nil {
			cfg.Log.Error("Failed to close event publisher", "error", err)
		}
	}))

	barberRepo, err := barbersrepo.NewMongoBarberRepository(cfg)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize barber repository", "error", err)
	}
	bookingRepo, err := bookingsrepo.NewMongoBookingRepository(cfg)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize booking repository", "error", err)
	}
	lockRepo, err := bookingsrepo.NewMongoSlotLockRepository(cfg)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize slot lock repository", "error", err)
	}
	messageRepo, err := messagesrepo.NewMongoMessageRepository(cfg)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize message repository", "error", err)
	}

	identityRepo := identity.NewMongoIdentityRepository(cfg)
	resolver := identity.NewResolver(identityRepo, identityRepo, cfg)

	bookingService := bookingsservice.NewBookingService(
		bookingRepo,
		lockRepo,
		barberRepo,
		resolver,
		validator.NewBookingValidator(cfg.Log),
		publisher,
		cfg.Log,
	)
	availabilityService := availability.NewService(bookingRepo, barberRepo, cfg.Log)

	retentionSweeper := sweeper.New(bookingRepo, cfg.Log, cfg.SweepInterval, cfg.CancelledRetention)
	retentionSweeper.Start()
	serverApp.AddWorker(retentionSweeper)

	handlers := compositeHandler{
		availability.NewHandler(availabilityService, cfg.Log),
		identity.NewHandler(resolver, cfg.Log),
		bookingshandler.NewBookingHandler(bookingService, cfg.Log),
		barbershandler.NewBarberHandler(barberRepo, cfg.Log),
		messageshandler.NewMessageHandler(messageRepo, cfg.Log),
	}

	serverApp.SetApp(handlers, counterStore(cfg))
	serverApp.Run()
}

// counterStore backs the phone rate limiter with Redis when configured so
// limits hold across replicas, and falls back to an in-process store.
func counterStore(cfg *config.Config) middleware.CounterStore {
	if cfg.Client.Redis != nil {
		cfg.Log.Info("Rate limiting backed by Redis", "addr", cfg.RedisAddr)
		return middleware.NewRedisCounterStore(cfg.Client.Redis)
	}
	return middleware.NewMemoryCounterStore()
}

// initPublisher wires the Kafka event stream when brokers are configured.
func initPublisher(cfg *config.Config) events.Publisher {
	kafkaCfg := kafka_config.Load()
	if !kafkaCfg.Enabled() {
		cfg.Log.Info("Event streaming disabled, no Kafka brokers configured")
		return events.NopPublisher{}
	}

	producer, err := kafka.NewProducer(kafkaCfg, kafkaCfg.Topic)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize Kafka producer", "error", err)
	}
	producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))

	cfg.Log.Info("Event streaming enabled", "topic", kafkaCfg.Topic)
	return events.NewKafkaPublisher(producer, cfg.Log)
}
