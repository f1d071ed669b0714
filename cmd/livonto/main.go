package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"livonto/internal/app/commands"
	availabilityapp "livonto/internal/app/handlers/availability"
	bookingapp "livonto/internal/app/handlers/booking"
	invoiceapp "livonto/internal/app/handlers/invoice"
	kycapp "livonto/internal/app/handlers/kyc"
	listingapp "livonto/internal/app/handlers/listings"
	meapp "livonto/internal/app/handlers/me"
	paymentapp "livonto/internal/app/handlers/payment"
	roomsapp "livonto/internal/app/handlers/rooms"
	"livonto/internal/app/middleware"
	appoutbox "livonto/internal/app/outbox"
	"livonto/internal/app/policies"
	"livonto/internal/app/queries"
	authsvc "livonto/internal/app/services/auth"
	"livonto/internal/app/uow"
	domainauth "livonto/internal/domain/auth"
	"livonto/internal/domain/listings"
	"livonto/internal/domain/rooms"
	"livonto/internal/domain/shared/money"
	domainuser "livonto/internal/domain/user"
	"livonto/internal/infra/broker/kafka"
	"livonto/internal/infra/config"
	mongodb "livonto/internal/infra/db/mongo"
	ginserver "livonto/internal/infra/http/gin"
	"livonto/internal/infra/notify"
	"livonto/internal/infra/obs"
	infraoutbox "livonto/internal/infra/outbox"
	"livonto/internal/infra/payments/razorpay"
	"livonto/internal/infra/sched"
	"livonto/internal/infra/security"
	"livonto/internal/infra/storage/memory"
	"livonto/internal/infra/storage/s3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "configuration error:", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("application bootstrap failed", "error", err)
		os.Exit(1)
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	if cfg.Storage == "memory" {
		fixturesPath := getenv("LISTING_FIXTURES", defaultFixturesPath())
		if err := app.loadFixtures(ctx, fixturesPath, logger); err != nil {
			logger.Warn("fixtures load failed", "error", err, "path", fixturesPath)
		}
	}

	for _, worker := range app.workers {
		go worker(ctx)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.Storage)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers ginserver.Handlers
	workers  []func(context.Context)
	ready    func() error
	factory  uow.UoWFactory
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	app := &application{ready: func() error { return nil }}

	var (
		factory    uow.UoWFactory
		outboxImpl appoutbox.Outbox
		users      domainuser.Repository
		sessions   domainauth.SessionStore
	)
	switch cfg.Storage {
	case "mongo":
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("mongo connect: %w", err)
		}
		if err := client.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		factory = mongodb.NewFactory(client.DB)
		users = mongodb.NewUserRepository(client.DB)
		sessions = mongodb.NewSessionStore(client.DB)
		app.ready = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx)
		}

		store := infraoutbox.NewStore(client.DB)
		outboxImpl = infraoutbox.NewStaged(store)
		if len(cfg.KafkaBrokers) > 0 {
			producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
			if err != nil {
				return nil, fmt.Errorf("kafka producer: %w", err)
			}
			worker := &infraoutbox.Worker{
				Store:       store,
				Producer:    producer,
				Logger:      logger,
				Interval:    cfg.OutboxPollInterval,
				TopicPrefix: cfg.KafkaTopicPrefix,
				Backoff:     cfg.RetryBackoff,
			}
			app.workers = append(app.workers, func(ctx context.Context) {
				if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("outbox worker stopped", "error", err)
				}
			})

			consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaConsumerGroup, nil, kafka.NotificationHandler{
				Notifier: notify.LogNotifier{Logger: logger},
				Logger:   logger,
			}, logger)
			if err != nil {
				return nil, fmt.Errorf("kafka consumer: %w", err)
			}
			topics := []string{cfg.KafkaTopicPrefix + "booking.events.v1"}
			app.workers = append(app.workers, func(ctx context.Context) {
				if err := consumer.Run(ctx, topics); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("kafka consumer stopped", "error", err)
				}
				_ = consumer.Close()
			})
		}
	default:
		factory = memory.NewFactory()
		outboxImpl = memory.NewOutbox()
		users = memory.NewUserRepository()
		sessions = memory.NewSessionStore()
	}
	app.factory = factory

	var gateway policies.PaymentGateway
	var verifier policies.SignatureVerifier
	if cfg.RazorpayKeyID != "" && cfg.RazorpaySecret != "" {
		gateway = razorpay.NewClient(cfg.RazorpayKeyID, cfg.RazorpaySecret)
		verifier = razorpay.NewVerifier(cfg.RazorpaySecret)
	} else {
		logger.Warn("razorpay credentials missing, payment confirmation disabled")
	}

	var documents policies.DocumentStore
	uploader, err := s3.NewClient(cfg.S3Endpoint, cfg.S3UseSSL, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3PublicEndpoint, false, logger)
	if err != nil {
		logger.Warn("s3 uploader unavailable, document uploads disabled", "error", err)
		documents = s3.NoopUploader{}
	} else {
		documents = uploader
	}

	encoder := appoutbox.JSONEventEncoder{}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, bookingapp.CreateBookingCommand{}.Key(), &bookingapp.CreateBookingHandler{
		Gateway: gateway,
		Outbox:  outboxImpl,
		Encoder: encoder,
	})
	commands.RegisterHandler(commandBus, bookingapp.CancelBookingCommand{}.Key(), &bookingapp.CancelBookingHandler{
		Outbox:  outboxImpl,
		Encoder: encoder,
	})
	commands.RegisterHandler(commandBus, bookingapp.CompletionSweepCommand{}.Key(), &bookingapp.CompletionSweepHandler{
		Outbox:  outboxImpl,
		Encoder: encoder,
	})
	commands.RegisterHandler(commandBus, paymentapp.ConfirmPaymentCommand{}.Key(), &paymentapp.ConfirmPaymentHandler{
		Gateway:  gateway,
		Verifier: verifier,
		Outbox:   outboxImpl,
		Encoder:  encoder,
		Logger:   logger,
	})
	commands.RegisterHandler(commandBus, kycapp.SubmitKycCommand{}.Key(), &kycapp.SubmitKycHandler{
		Documents: documents,
	})
	commands.RegisterHandler(commandBus, listingapp.CreateListingCommand{}.Key(), &listingapp.CreateListingHandler{})
	commands.RegisterHandler(commandBus, roomsapp.UpsertRoomConfigCommand{}.Key(), &roomsapp.UpsertRoomConfigHandler{})
	commands.RegisterHandler(commandBus, roomsapp.DeleteRoomConfigCommand{}.Key(), &roomsapp.DeleteRoomConfigHandler{})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, availabilityapp.CheckAvailabilityQuery{}.Key(), &availabilityapp.CheckAvailabilityHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, meapp.ListTenantBookingsQuery{}.Key(), &meapp.ListTenantBookingsHandler{UoWFactory: factory, Logger: logger})
	queries.RegisterHandler(queryBus, invoiceapp.GetInvoiceQuery{}.Key(), &invoiceapp.GetInvoiceHandler{UoWFactory: factory})

	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Validation(middleware.SelfValidator{}),
		middleware.Idempotency(memory.NewIdempotencyStore(), nil),
		middleware.Transaction(factory, nil),
		middleware.OutboxFlush(outboxImpl),
	)
	queryBusWithMiddleware := middleware.ChainQueries(queryBus, middleware.QueryValidation(middleware.SelfValidator{}))

	authService := &authsvc.Service{
		Users:      users,
		Sessions:   sessions,
		Passwords:  security.BcryptHasher{},
		Tokens:     security.RandomTokenGenerator{},
		SessionTTL: 24 * time.Hour,
		Logger:     logger,
	}

	app.workers = append(app.workers, func(ctx context.Context) {
		sweeper := sched.Sweeper{
			Commands: commandBusWithMiddleware,
			Interval: cfg.SweepInterval,
			Logger:   logger,
		}
		if err := sweeper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("sweeper stopped", "error", err)
		}
	})

	app.handlers = ginserver.Handlers{
		Booking:        ginserver.BookingHandler{Commands: commandBusWithMiddleware, Queries: queryBusWithMiddleware},
		Availability:   ginserver.AvailabilityHandler{Queries: queryBusWithMiddleware},
		Payment:        ginserver.PaymentHandler{Commands: commandBusWithMiddleware},
		Kyc:            ginserver.KycHandler{Commands: commandBusWithMiddleware},
		Owner:          ginserver.OwnerHandler{Commands: commandBusWithMiddleware},
		Admin:          ginserver.AdminHandler{Commands: commandBusWithMiddleware},
		Auth:           &ginserver.AuthHandler{Service: authService, Logger: logger},
		Me:             ginserver.MeHandler{Queries: queryBusWithMiddleware, Logger: logger},
		AuthMiddleware: ginserver.AuthMiddleware{Service: authService, Logger: logger}.Handle,
	}
	return app, nil
}

type listingFixture struct {
	ID          string `json:"id"`
	Owner       string `json:"owner"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Address     struct {
		Line1   string `json:"line1"`
		Line2   string `json:"line2"`
		City    string `json:"city"`
		State   string `json:"state"`
		Pincode string `json:"pincode"`
	} `json:"address"`
	Amenities  []string `json:"amenities"`
	GenderPref string   `json:"gender_pref"`
	Rooms      []struct {
		ID         string `json:"id"`
		Type       string `json:"type"`
		RentPaise  int64  `json:"rent_paise"`
		TotalRooms int    `json:"total_rooms"`
	} `json:"rooms"`
}

func (a *application) loadFixtures(ctx context.Context, path string, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	var fixtures []listingFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	unit, err := a.factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return err
	}
	defer unit.Rollback(ctx)

	now := time.Now()
	for _, fx := range fixtures {
		listing, err := listings.NewListing(listings.CreateListingParams{
			ID:          listings.ListingID(fx.ID),
			Owner:       listings.OwnerID(fx.Owner),
			Title:       fx.Title,
			Description: fx.Description,
			Address: listings.Address{
				Line1:   fx.Address.Line1,
				Line2:   fx.Address.Line2,
				City:    fx.Address.City,
				State:   fx.Address.State,
				Pincode: fx.Address.Pincode,
			},
			Amenities:  fx.Amenities,
			GenderPref: fx.GenderPref,
			Now:        now,
		})
		if err != nil {
			logger.Error("fixture invalid", "listing_id", fx.ID, "error", err)
			continue
		}
		if err := listing.Activate(now); err != nil {
			logger.Error("fixture activation failed", "listing_id", fx.ID, "error", err)
			continue
		}
		if err := unit.Listings().Save(ctx, listing); err != nil {
			logger.Error("cannot store fixture listing", "listing_id", fx.ID, "error", err)
			continue
		}
		for _, room := range fx.Rooms {
			rc, err := rooms.NewRoomConfiguration(rooms.CreateParams{
				ID:           rooms.RoomConfigID(room.ID),
				ListingID:    listing.ID,
				Type:         rooms.RoomType(room.Type),
				RentPerMonth: money.Money{Amount: room.RentPaise, Currency: "INR"},
				TotalRooms:   room.TotalRooms,
				Now:          now,
			})
			if err != nil {
				logger.Error("fixture room invalid", "room_id", room.ID, "error", err)
				continue
			}
			if err := unit.Rooms().Save(ctx, rc); err != nil {
				logger.Error("cannot store fixture room", "room_id", room.ID, "error", err)
			}
		}
		logger.Info("listing fixture imported", "listing_id", listing.ID, "rooms", len(fx.Rooms))
	}
	return unit.Commit(ctx)
}

func defaultFixturesPath() string {
	return filepath.Join("data", "listings.json")
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
