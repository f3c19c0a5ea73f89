//go:build integration

package main_test

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/ParkEase/service-parking/internal/application"
	"github.com/ParkEase/service-parking/internal/common/auth"
	"github.com/ParkEase/service-parking/internal/common/database"
	"github.com/ParkEase/service-parking/internal/common/events"
	"github.com/ParkEase/service-parking/internal/common/kafka"
	"github.com/ParkEase/service-parking/internal/common/lock"
	bookingDomain "github.com/ParkEase/service-parking/internal/domain/booking"
	parkingEvents "github.com/ParkEase/service-parking/internal/events"
	"github.com/ParkEase/service-parking/internal/repository"
	"github.com/ParkEase/service-parking/migrations"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// testInfra holds shared test infrastructure.
type testInfra struct {
	DB           *gorm.DB
	KafkaBrokers []string
	Cleanup      func()
}

// parkingStack holds wired-up parking service components.
type parkingStack struct {
	Bookings        *application.BookingService
	Slots           *application.SlotService
	Locations       *application.LocationService
	Reports         *application.ReportService
	Consumer        *parkingEvents.ReconciliationConsumer
	CleanupProducer func()
}

// setupContainers starts PostgreSQL and Kafka testcontainers and returns a migrated GORM DB.
func setupContainers(t *testing.T) *testInfra {
	t.Helper()
	ctx := context.Background()
	logger, _ := zap.NewDevelopment()

	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test_parking",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")

	pgHost, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	pgPort, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	cfg := database.PostgresConfig{
		Host:     pgHost,
		Port:     pgPort.Port(),
		User:     "test",
		Password: "test",
		DBName:   "test_parking",
		SSLMode:  "disable",
	}

	var db *gorm.DB
	require.Eventually(t, func() bool {
		var err error
		db, err = database.Connect(cfg, logger)
		return err == nil
	}, 30*time.Second, 1*time.Second, "PostgreSQL not ready for connections")

	require.NoError(t, database.RunMigrations(ctx, db, migrations.FS, logger))

	// confluent-local runs KRaft without a separate zookeeper.
	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")

	kafkaBrokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")

	createTopics(t, kafkaBrokers, events.TopicBookingEvents, events.TopicSlotEvents, events.TopicReconciliation)

	cleanup := func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Kafka container: %v", err)
		}
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	}

	return &testInfra{
		DB:           db,
		KafkaBrokers: kafkaBrokers,
		Cleanup:      cleanup,
	}
}

// setupParkingStack wires the repositories, services and reconciliation consumer.
func setupParkingStack(t *testing.T, db *gorm.DB, brokers []string) *parkingStack {
	t.Helper()
	logger, _ := zap.NewDevelopment()

	reader, err := database.Reader(db)
	require.NoError(t, err)

	tx := repository.NewGormTransactor(db)
	bookingRepo := repository.NewGormBookingRepository(db)
	slotRepo := repository.NewGormSlotRepository(db)
	locationRepo := repository.NewGormLocationRepository(db)
	userRepo := repository.NewGormUserRepository(db)
	locker := lock.NewLocalLocker()
	producer := kafka.NewProducer(brokers, logger)

	ledger := application.NewCapacityLedger(slotRepo, locationRepo, logger)
	bookingSvc := application.NewBookingService(
		bookingRepo,
		slotRepo,
		locationRepo,
		userRepo,
		ledger,
		tx,
		locker,
		bookingDomain.NewIntervalPricingStrategy(),
		producer,
		application.BookingSettings{
			ExtensionMinutes: 15,
			ExtensionFee:     10,
			DefaultRate:      15,
			Currency:         "INR",
		},
		logger,
	)

	groupID := fmt.Sprintf("test-parking-%s", uuid.New().String()[:8])
	consumer := parkingEvents.NewReconciliationConsumer(brokers, groupID, bookingSvc, logger)

	return &parkingStack{
		Bookings:        bookingSvc,
		Slots:           application.NewSlotService(slotRepo, locationRepo, ledger, tx, locker, producer, logger),
		Locations:       application.NewLocationService(locationRepo, slotRepo, logger),
		Reports:         application.NewReportService(repository.NewSQLReportRepository(reader), time.UTC, logger),
		Consumer:        consumer,
		CleanupProducer: func() { _ = producer.Close() },
	}
}

// seedDriver inserts an active driver account and returns its identity.
func seedDriver(t *testing.T, db *gorm.DB) auth.Identity {
	t.Helper()
	id := uuid.New()
	model := repository.UserModel{
		ID:       id,
		Name:     "Test Driver",
		Email:    fmt.Sprintf("driver-%s@parkease.test", id.String()[:8]),
		Phone:    "9800000000",
		Role:     string(auth.RoleUser),
		IsActive: true,
		Version:  1,
	}
	require.NoError(t, db.Create(&model).Error, "failed to seed user")
	return auth.Identity{UserID: id, Role: auth.RoleUser}
}

// seedLocationWithSlot creates a location holding one available car slot.
func seedLocationWithSlot(t *testing.T, stack *parkingStack) (*application.LocationDTO, *application.SlotDTO) {
	t.Helper()
	ctx := context.Background()

	loc, err := stack.Locations.CreateLocation(ctx, uuid.New(), application.CreateLocationRequest{
		Code:      fmt.Sprintf("L%s", uuid.New().String()[:6]),
		Name:      "MG Road Parking",
		Address:   "MG Road, Bengaluru",
		Latitude:  12.9756,
		Longitude: 77.6050,
		Pricing:   map[string]float64{"car": 60, "bike": 20},
	})
	require.NoError(t, err, "failed to seed location")

	slot, err := stack.Slots.CreateSlot(ctx, application.CreateSlotRequest{
		LocationID:  loc.ID,
		SlotNo:      "A-01",
		Latitude:    12.9757,
		Longitude:   77.6051,
		VehicleType: "car",
	})
	require.NoError(t, err, "failed to seed slot")

	return loc, slot
}

// publishTestEvent publishes a CloudEvent to Kafka.
func publishTestEvent(t *testing.T, brokers []string, topic, source, eventType string, data interface{}) {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	producer := kafka.NewProducer(brokers, logger)
	defer func() { _ = producer.Close() }()

	ce, err := kafka.NewCloudEvent(source, eventType, data)
	require.NoError(t, err, "failed to create cloud event")

	err = producer.PublishEvent(context.Background(), topic, ce)
	require.NoError(t, err, "failed to publish event")
}

// waitForBookingStatus polls the bookings table until the status matches.
func waitForBookingStatus(t *testing.T, db *gorm.DB, bookingID uuid.UUID, expectedStatus string, timeout time.Duration) repository.BookingModel {
	t.Helper()
	var result repository.BookingModel
	require.Eventually(t, func() bool {
		var model repository.BookingModel
		if err := db.Where("id = ?", bookingID).First(&model).Error; err != nil {
			return false
		}
		if model.BookingStatus == expectedStatus {
			result = model
			return true
		}
		return false
	}, timeout, 200*time.Millisecond, "booking did not transition to %s", expectedStatus)
	return result
}

// loadSlot reads the stored slot row.
func loadSlot(t *testing.T, db *gorm.DB, slotID uuid.UUID) repository.SlotModel {
	t.Helper()
	var model repository.SlotModel
	require.NoError(t, db.Where("id = ?", slotID).First(&model).Error)
	return model
}

// loadLocation reads the stored location row.
func loadLocation(t *testing.T, db *gorm.DB, locationID uuid.UUID) repository.LocationModel {
	t.Helper()
	var model repository.LocationModel
	require.NoError(t, db.Where("id = ?", locationID).First(&model).Error)
	return model
}

// consumeOneEvent reads from a Kafka topic until it finds an event of the expected type and subject.
func consumeOneEvent(t *testing.T, brokers []string, topic, expectedType, key string, timeout time.Duration) kafka.CloudEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	groupID := fmt.Sprintf("test-assert-%s", uuid.New().String()[:8])
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.FirstOffset,
	})
	defer func() { _ = reader.Close() }()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.Fatalf("timed out waiting for event type %q on topic %q", expectedType, topic)
			}
			continue
		}
		ce, err := kafka.ParseCloudEvent(msg.Value)
		if err != nil {
			continue
		}
		if ce.Type == expectedType && (key == "" || string(msg.Key) == key) {
			return ce
		}
	}
}

// createTopics pre-creates Kafka topics so producers don't fail with "Unknown Topic".
func createTopics(t *testing.T, brokers []string, topics ...string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err, "failed to dial Kafka for topic creation")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "failed to get Kafka controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, fmt.Sprintf("%d", controller.Port)))
	require.NoError(t, err, "failed to connect to Kafka controller")
	defer controllerConn.Close()

	topicConfigs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		topicConfigs[i] = kafkago.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}
	err = controllerConn.CreateTopics(topicConfigs...)
	require.NoError(t, err, "failed to create Kafka topics")

	// Give Kafka a moment to propagate topic metadata.
	time.Sleep(1 * time.Second)
}
