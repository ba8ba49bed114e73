package main

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/custodia-labs/sercha-integrity/internal/adapters/driven/blob/local"
	"github.com/custodia-labs/sercha-integrity/internal/adapters/driven/blob/minio"
	"github.com/custodia-labs/sercha-integrity/internal/adapters/driven/blob/s3"
	"github.com/custodia-labs/sercha-integrity/internal/adapters/driven/lock/dynamodb"
	"github.com/custodia-labs/sercha-integrity/internal/adapters/driven/metrics/prometheus"
	"github.com/custodia-labs/sercha-integrity/internal/adapters/driven/redis"
	"github.com/custodia-labs/sercha-integrity/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-integrity/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-integrity/internal/core/domain"
	"github.com/custodia-labs/sercha-integrity/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-integrity/internal/core/services"
	"github.com/custodia-labs/sercha-integrity/internal/logger"
)

// app owns every adapter and the services built on them.
type app struct {
	deletion  *services.DeletionService
	integrity *services.IntegrityService
	repair    *services.RepairService
	audit     *services.AuditService
	scheduler *services.Scheduler
	metrics   *prometheus.Metrics

	closers []func() error
}

// newApp opens the stores selected by settings and builds the services.
func newApp(ctx context.Context, settings *domain.Settings) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	store, err := sqlite.NewStore(settings.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	a.closers = append(a.closers, store.Close)
	logger.Debug("relational store: %s", store.Path())

	var rdb *goredis.Client
	redisClient := func() (*goredis.Client, error) {
		if rdb != nil {
			return rdb, nil
		}
		c, err := redis.NewClient(ctx, settings.Redis)
		if err != nil {
			return nil, err
		}
		rdb = c
		a.closers = append(a.closers, c.Close)
		return rdb, nil
	}

	search, err := openSearch(settings.Search, store)
	if err != nil {
		return nil, err
	}
	vector, err := openVector(settings.Vector, store, settings.Redis.KeyPrefix, redisClient)
	if err != nil {
		return nil, err
	}

	localBlob, err := local.NewStore(settings.LocalBlob.Root, settings.LocalBlob.Trash)
	if err != nil {
		return nil, fmt.Errorf("opening local blob store: %w", err)
	}
	remoteBlob, err := openRemoteBlob(ctx, settings.RemoteBlob)
	if err != nil {
		return nil, err
	}
	locker, err := openLocker(ctx, settings.Lock, settings.Redis.KeyPrefix, redisClient)
	if err != nil {
		return nil, err
	}
	requeuer, err := openRequeuer(settings.Requeue.Backend, store, settings.Redis.KeyPrefix, redisClient)
	if err != nil {
		return nil, err
	}

	a.metrics = prometheus.New()
	docs := store.DocumentStore()
	auditStore := store.AuditStore()

	a.deletion = services.NewDeletionService(services.DeletionStores{
		Documents:  docs,
		Audit:      auditStore,
		Search:     search,
		Vector:     vector,
		LocalBlob:  localBlob,
		RemoteBlob: remoteBlob,
		Locker:     locker,
		Metrics:    a.metrics,
	}, settings.Deletion)
	a.integrity = services.NewIntegrityService(docs, search, vector, a.metrics, settings.Integrity)
	a.repair = services.NewRepairService(docs, auditStore, requeuer, a.metrics, settings.Repair, settings.Requeue)
	a.audit = services.NewAuditService(auditStore)

	var reaper driven.TrashReaper
	if settings.LocalBlob.Trash {
		reaper = localBlob
	}
	a.scheduler = services.NewScheduler(settings.Scheduler, store.SchedulerStore(), services.SchedulerTasks{
		Integrity:  a.integrity,
		Repair:     a.repair,
		Reaper:     reaper,
		TrashGrace: settings.LocalBlob.TrashGrace,
	})

	return a, nil
}

// Close releases adapters in reverse order of opening.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

type redisFactory func() (*goredis.Client, error)

func openSearch(backend domain.Backend, store *sqlite.Store) (driven.SearchIndex, error) {
	switch backend {
	case domain.BackendSQLite, domain.BackendNone:
		return store.SearchIndex(), nil
	case domain.BackendMemory:
		return memory.NewSearchIndex(), nil
	default:
		return nil, fmt.Errorf("%w: search backend %q", domain.ErrUnsupportedType, backend)
	}
}

func openVector(backend domain.Backend, store *sqlite.Store, prefix string, rdb redisFactory) (driven.VectorIndex, error) {
	switch backend {
	case domain.BackendSQLite, domain.BackendNone:
		return store.VectorIndex(), nil
	case domain.BackendMemory:
		return memory.NewVectorIndex(), nil
	case domain.BackendRedis:
		client, err := rdb()
		if err != nil {
			return nil, fmt.Errorf("vector index: %w", err)
		}
		return redis.NewVectorIndex(client, prefix), nil
	default:
		return nil, fmt.Errorf("%w: vector backend %q", domain.ErrUnsupportedType, backend)
	}
}

// openRemoteBlob returns nil when no remote store is configured.
func openRemoteBlob(ctx context.Context, settings domain.RemoteBlobSettings) (driven.BlobStore, error) {
	switch settings.Backend {
	case domain.BackendNone:
		return nil, nil
	case domain.BackendMinio:
		store, err := minio.New(settings)
		if err != nil {
			return nil, fmt.Errorf("remote blob store: %w", err)
		}
		return store, nil
	case domain.BackendS3:
		store, err := s3.New(ctx, settings)
		if err != nil {
			return nil, fmt.Errorf("remote blob store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w: remote blob backend %q", domain.ErrUnsupportedType, settings.Backend)
	}
}

func openLocker(ctx context.Context, settings domain.LockSettings, prefix string, rdb redisFactory) (driven.DocumentLocker, error) {
	switch settings.Backend {
	case domain.BackendMemory, domain.BackendNone:
		return memory.NewLocker(), nil
	case domain.BackendRedis:
		client, err := rdb()
		if err != nil {
			return nil, fmt.Errorf("lock: %w", err)
		}
		return redis.NewLocker(client, prefix, settings.TTL), nil
	case domain.BackendDynamoDB:
		locker, err := dynamodb.New(ctx, settings)
		if err != nil {
			return nil, fmt.Errorf("lock: %w", err)
		}
		return locker, nil
	default:
		return nil, fmt.Errorf("%w: lock backend %q", domain.ErrUnsupportedType, settings.Backend)
	}
}

func openRequeuer(backend domain.Backend, store *sqlite.Store, prefix string, rdb redisFactory) (driven.Requeuer, error) {
	switch backend {
	case domain.BackendSQLite, domain.BackendNone:
		return store.Outbox(), nil
	case domain.BackendMemory:
		return memory.NewRequeuer(), nil
	case domain.BackendRedis:
		client, err := rdb()
		if err != nil {
			return nil, fmt.Errorf("requeue: %w", err)
		}
		return redis.NewRequeuer(client, prefix), nil
	default:
		return nil, fmt.Errorf("%w: requeue backend %q", domain.ErrUnsupportedType, backend)
	}
}
