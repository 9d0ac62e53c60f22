package server

import (
	"context"
	"fmt"
	"time"

	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/funnelforge/funnelforge/pkg/cache"
	"github.com/funnelforge/funnelforge/pkg/database"
	"github.com/funnelforge/funnelforge/pkg/kafka"
)

// postgresDependency connects to Postgres, runs migrations and publishes the
// database handle to the server.
type postgresDependency struct {
	server *Server
	sqlxDB *sqlx.DB
}

func (d *postgresDependency) GetName() string {
	return "postgres"
}

func (d *postgresDependency) DependsOn() []string {
	return nil
}

func (d *postgresDependency) Start(ctx context.Context) error {
	cfg := d.server.cfg

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DatabaseHost,
		cfg.DatabasePort,
		cfg.DatabaseUserName,
		cfg.DatabasePassword,
		cfg.DatabaseName,
		cfg.DatabaseSSLMode,
	)

	db, err := sqlx.Open(cfg.DatabaseDriver, dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}
	db.SetMaxOpenConns(cfg.DatabaseMaxOpenConns)
	db.SetMaxIdleConns(cfg.DatabaseMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DatabaseConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	driver, err := migratepg.WithInstance(db.DB, &migratepg.Config{})
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	migrations := database.NewMigrationService(d.server.logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             uint(cfg.DatabaseMigrationVersion),
		Force:               cfg.DatabaseMigrationForce,
		AutoRollback:        cfg.DatabaseMigrationAutoRollback,
	})
	if err := migrations.Migrate(cfg.DatabaseName, driver); err != nil {
		db.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.sqlxDB = db
	d.server.db = database.NewInstance(db, d.server.logger)
	return nil
}

func (d *postgresDependency) Stop(ctx context.Context) error {
	if d.sqlxDB == nil {
		return nil
	}
	return d.sqlxDB.Close()
}

// redisDependency connects to Redis and publishes the cache client.
type redisDependency struct {
	server *Server
}

func (d *redisDependency) GetName() string {
	return "redis"
}

func (d *redisDependency) DependsOn() []string {
	return nil
}

func (d *redisDependency) Start(ctx context.Context) error {
	cfg := d.server.cfg

	client, err := cache.NewClient(cache.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, d.server.logger)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	d.server.redisCli = client
	return nil
}

func (d *redisDependency) Stop(ctx context.Context) error {
	if d.server.redisCli == nil {
		return nil
	}
	return d.server.redisCli.Close()
}

// kafkaDependency builds the workspace event producer. The writer dials
// lazily so Start only constructs it.
type kafkaDependency struct {
	server *Server
}

func (d *kafkaDependency) GetName() string {
	return "kafka"
}

func (d *kafkaDependency) DependsOn() []string {
	return nil
}

func (d *kafkaDependency) Start(ctx context.Context) error {
	cfg := d.server.cfg

	d.server.producer = kafka.NewProducer(kafka.ProducerConfig{
		Brokers:      cfg.KafkaBrokers,
		Topic:        cfg.KafkaWorkspaceTopic,
		BatchSize:    cfg.KafkaBatchSize,
		BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
		RequiredAcks: cfg.KafkaRequiredAcks,
		Compression:  cfg.KafkaCompression,
	}, d.server.logger)
	return nil
}

func (d *kafkaDependency) Stop(ctx context.Context) error {
	if d.server.producer == nil {
		return nil
	}
	return d.server.producer.Close()
}
