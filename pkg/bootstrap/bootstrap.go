// Package bootstrap assembles the storage, event and gateway backends selected by configuration.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/chris/project-billing/pkg/billing"
	"github.com/chris/project-billing/pkg/config"
	"github.com/chris/project-billing/pkg/events"
	"github.com/chris/project-billing/pkg/gateway"
	"github.com/chris/project-billing/pkg/models"
	"github.com/chris/project-billing/pkg/storage"
	dynamostore "github.com/chris/project-billing/pkg/storage/dynamodb"
	"github.com/chris/project-billing/pkg/storage/memory"
	"github.com/chris/project-billing/pkg/storage/sqlstore"
)

// Backends are the collaborators shared by the binaries.
type Backends struct {
	Store     storage.Storage
	Publisher events.Publisher
	Gateway   gateway.Gateway

	closers []func() error
}

// Close releases the connections held by the backends.
func (b *Backends) Close() error {
	var firstErr error
	for _, c := range b.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// New builds the backends described by cfg and registers the seed projects.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Backends, error) {
	loader := &awsLoader{}
	b := &Backends{Gateway: NewGateway()}

	store, closer, err := openStore(ctx, cfg.Storage, loader)
	if err != nil {
		return nil, err
	}
	b.Store = store
	if closer != nil {
		b.closers = append(b.closers, closer)
	}

	if cfg.Events.SQSQueueURL != "" {
		awsCfg, err := loader.load(ctx)
		if err != nil {
			_ = b.Close()
			return nil, err
		}
		b.Publisher = events.NewSQSPublisher(sqs.NewFromConfig(awsCfg), cfg.Events.SQSQueueURL)
	} else {
		logger.Info("SQS_QUEUE_URL not set, payment events are recorded in process")
		b.Publisher = billing.NewPaymentLedger(b.Store, logger)
	}

	if err := SeedProjects(ctx, b.Store, cfg.Billing.Provider, cfg.Billing.SeedProjects); err != nil {
		_ = b.Close()
		return nil, err
	}

	logger.Info("backends ready", "storage", cfg.Storage.Driver, "provider", cfg.Billing.Provider)
	return b, nil
}

// NewGateway returns the gateways this service can dispatch to.
func NewGateway() *gateway.Router {
	return gateway.NewRouter().Register(models.FakeWallet, gateway.NewFake())
}

// SeedProjects registers each "owner/name" repository with the given provider.
func SeedProjects(ctx context.Context, registrar storage.ProjectRegistrar, provider string, repos []string) error {
	for _, repo := range repos {
		owner, name, ok := strings.Cut(repo, "/")
		if !ok || owner == "" || name == "" {
			return fmt.Errorf("invalid seed project %q, expected owner/name", repo)
		}
		project := models.Project{RepoFullName: repo, Provider: provider, Owner: owner}
		if err := registrar.RegisterProject(ctx, project); err != nil {
			return fmt.Errorf("failed to seed project %s: %w", repo, err)
		}
	}
	return nil
}

func openStore(ctx context.Context, cfg config.StorageConfig, loader *awsLoader) (storage.Storage, func() error, error) {
	switch cfg.Driver {
	case config.DriverDynamoDB:
		awsCfg, err := loader.load(ctx)
		if err != nil {
			return nil, nil, err
		}
		client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			if cfg.DynamoDB.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.DynamoDB.Endpoint)
			}
		})
		return dynamostore.New(client, dynamostore.Tables{
			Projects:  cfg.DynamoDB.ProjectsTable,
			Contracts: cfg.DynamoDB.ContractsTable,
			Invoices:  cfg.DynamoDB.InvoicesTable,
			Wallets:   cfg.DynamoDB.WalletsTable,
			Payments:  cfg.DynamoDB.PaymentsTable,
		}), nil, nil
	case config.DriverPostgres:
		db, err := sqlstore.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to access database pool: %w", err)
		}
		store, err := sqlstore.New(db)
		if err != nil {
			_ = sqlDB.Close()
			return nil, nil, err
		}
		return store, sqlDB.Close, nil
	case config.DriverMemory:
		return memory.New(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}

// awsLoader loads the shared AWS configuration at most once.
type awsLoader struct {
	cfg *aws.Config
}

func (l *awsLoader) load(ctx context.Context) (aws.Config, error) {
	if l.cfg != nil {
		return *l.cfg, nil
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return aws.Config{}, fmt.Errorf("unable to load SDK config: %w", err)
	}
	l.cfg = &cfg
	return cfg, nil
}
