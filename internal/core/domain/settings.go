package domain

import "time"

// Backend names an adapter implementation selected by configuration.
type Backend string

// Known backends. Not every backend applies to every concern.
const (
	BackendNone     Backend = ""
	BackendSQLite   Backend = "sqlite"
	BackendMemory   Backend = "memory"
	BackendRedis    Backend = "redis"
	BackendMinio    Backend = "minio"
	BackendS3       Backend = "s3"
	BackendDynamoDB Backend = "dynamodb"
)

// String returns the string representation.
func (b Backend) String() string {
	if b == BackendNone {
		return "none"
	}
	return string(b)
}

// RedisSettings configures the shared Redis client.
type RedisSettings struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// LocalBlobSettings configures on-disk blob storage.
type LocalBlobSettings struct {
	// Root is the directory blob keys resolve under.
	Root string

	// Trash moves deleted blobs aside instead of removing them,
	// so that rollback can restore them.
	Trash bool

	// TrashGrace is how long trashed blobs are kept before reaping.
	TrashGrace time.Duration
}

// RemoteBlobSettings configures object storage.
type RemoteBlobSettings struct {
	Backend   Backend
	Endpoint  string
	Bucket    string
	Prefix    string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// IsConfigured returns true if a remote blob store is in use.
func (r RemoteBlobSettings) IsConfigured() bool {
	return r.Backend != BackendNone
}

// LockSettings configures the per-document deletion lock.
type LockSettings struct {
	Backend Backend
	TTL     time.Duration

	// Table is the DynamoDB table name.
	Table string
}

// RequeueSettings configures the ingestion re-submission hook.
type RequeueSettings struct {
	Backend Backend

	// Rate is the maximum requeues per second during repair.
	Rate float64
}

// DeletionSettings configures the deletion coordinator.
type DeletionSettings struct {
	// CallTimeout bounds every individual store call.
	CallTimeout time.Duration

	// StrictPrepare aborts a deletion when any existence check fails,
	// instead of assuming the entry is absent.
	StrictPrepare bool
}

// DeletionStoreCalls is the most store calls one deletion makes: the fetch,
// four prepare reads, four commit deletes, finalize, four rollback writes
// and the failure audit.
const DeletionStoreCalls = 15

// MaxDuration is the longest one deletion can hold its document lock.
// Zero means unbounded.
func (d DeletionSettings) MaxDuration() time.Duration {
	return d.CallTimeout * DeletionStoreCalls
}

// IntegritySettings configures the integrity auditor.
type IntegritySettings struct {
	// StaleAfter flags in-flight documents older than this.
	StaleAfter time.Duration
}

// RepairSettings configures the auto-repairer.
type RepairSettings struct {
	// StuckAfter fails in-flight documents older than this.
	StuckAfter time.Duration
}

// MetricsSettings configures the metrics endpoint.
type MetricsSettings struct {
	// Addr is the listen address for /metrics. Empty disables it.
	Addr string
}

// Settings holds the complete runtime configuration.
type Settings struct {
	DataDir    string
	Search     Backend
	Vector     Backend
	Redis      RedisSettings
	LocalBlob  LocalBlobSettings
	RemoteBlob RemoteBlobSettings
	Lock       LockSettings
	Requeue    RequeueSettings
	Deletion   DeletionSettings
	Integrity  IntegritySettings
	Repair     RepairSettings
	Scheduler  SchedulerConfig
	Metrics    MetricsSettings
}

// DefaultSettings returns settings with every default applied.
// DataDir and LocalBlob.Root are left empty and resolved against the
// home directory by the settings service.
func DefaultSettings() Settings {
	return Settings{
		Search: BackendSQLite,
		Vector: BackendSQLite,
		Redis: RedisSettings{
			Addr:      "localhost:6379",
			KeyPrefix: "sercha:",
		},
		LocalBlob: LocalBlobSettings{
			Trash:      true,
			TrashGrace: 24 * time.Hour,
		},
		Lock: LockSettings{
			Backend: BackendMemory,
			TTL:     10 * time.Minute,
			Table:   "sercha-locks",
		},
		Requeue: RequeueSettings{
			Backend: BackendSQLite,
			Rate:    10,
		},
		Deletion: DeletionSettings{
			CallTimeout: 30 * time.Second,
		},
		Integrity: IntegritySettings{
			StaleAfter: 30 * time.Minute,
		},
		Repair: RepairSettings{
			StuckAfter: 1 * time.Hour,
		},
		Scheduler: DefaultSchedulerConfig(),
	}
}
