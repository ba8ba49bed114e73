package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-integrity/internal/core/domain"
	"github.com/custodia-labs/sercha-integrity/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-integrity/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-integrity/internal/logger"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyDataDir            = "storage.data_dir"
	keySearchBackend      = "search.backend"
	keyVectorBackend      = "vector.backend"
	keyRedisAddr          = "redis.addr"
	keyRedisPassword      = "redis.password"
	keyRedisDB            = "redis.db"
	keyRedisKeyPrefix     = "redis.key_prefix"
	keyLocalRoot          = "blob.local.root"
	keyLocalTrash         = "blob.local.trash"
	keyLocalTrashGrace    = "blob.local.trash_grace"
	keyRemoteBackend      = "blob.remote.backend"
	keyRemoteEndpoint     = "blob.remote.endpoint"
	keyRemoteBucket       = "blob.remote.bucket"
	keyRemotePrefix       = "blob.remote.prefix"
	keyRemoteRegion       = "blob.remote.region"
	keyRemoteAccessKey    = "blob.remote.access_key"
	keyRemoteSecretKey    = "blob.remote.secret_key"
	keyRemoteUseSSL       = "blob.remote.use_ssl"
	keyLockBackend        = "lock.backend"
	keyLockTTL            = "lock.ttl"
	keyLockTable          = "lock.table"
	keyRequeueBackend     = "requeue.backend"
	keyRequeueRate        = "requeue.rate"
	keyCallTimeout        = "deletion.call_timeout"
	keyStrictPrepare      = "deletion.strict_prepare"
	keyStaleAfter         = "integrity.stale_after"
	keyStuckAfter         = "repair.stuck_after"
	keySchedulerEnabled   = "scheduler.enabled"
	keyIntegrityInterval  = "scheduler.integrity_interval"
	keyRepairInterval     = "scheduler.repair_interval"
	keyTrashReapInterval  = "scheduler.trash_reap_interval"
	keyMetricsAddr        = "metrics.addr"
	envPrefix             = "SERCHA_"
	defaultDataDirSubpath = ".sercha-integrity/data"
)

type keyKind int

const (
	kindString keyKind = iota
	kindBool
	kindInt
	kindFloat
	kindDuration
	kindBackend
)

// knownKeys maps every settable key to its value kind.
var knownKeys = map[string]keyKind{
	keyDataDir:           kindString,
	keySearchBackend:     kindBackend,
	keyVectorBackend:     kindBackend,
	keyRedisAddr:         kindString,
	keyRedisPassword:     kindString,
	keyRedisDB:           kindInt,
	keyRedisKeyPrefix:    kindString,
	keyLocalRoot:         kindString,
	keyLocalTrash:        kindBool,
	keyLocalTrashGrace:   kindDuration,
	keyRemoteBackend:     kindBackend,
	keyRemoteEndpoint:    kindString,
	keyRemoteBucket:      kindString,
	keyRemotePrefix:      kindString,
	keyRemoteRegion:      kindString,
	keyRemoteAccessKey:   kindString,
	keyRemoteSecretKey:   kindString,
	keyRemoteUseSSL:      kindBool,
	keyLockBackend:       kindBackend,
	keyLockTTL:           kindDuration,
	keyLockTable:         kindString,
	keyRequeueBackend:    kindBackend,
	keyRequeueRate:       kindFloat,
	keyCallTimeout:       kindDuration,
	keyStrictPrepare:     kindBool,
	keyStaleAfter:        kindDuration,
	keyStuckAfter:        kindDuration,
	keySchedulerEnabled:  kindBool,
	keyIntegrityInterval: kindDuration,
	keyRepairInterval:    kindDuration,
	keyTrashReapInterval: kindDuration,
	keyMetricsAddr:       kindString,
}

// backendChoices lists the backends each backend key accepts.
var backendChoices = map[string][]domain.Backend{
	keySearchBackend:  {domain.BackendSQLite, domain.BackendMemory},
	keyVectorBackend:  {domain.BackendSQLite, domain.BackendRedis, domain.BackendMemory},
	keyRemoteBackend:  {domain.BackendNone, domain.BackendMinio, domain.BackendS3, domain.BackendMemory},
	keyLockBackend:    {domain.BackendMemory, domain.BackendRedis, domain.BackendDynamoDB},
	keyRequeueBackend: {domain.BackendSQLite, domain.BackendRedis, domain.BackendMemory},
}

// SettingsService maps configuration keys onto domain.Settings.
// Every key can be overridden by an environment variable named after it,
// e.g. SERCHA_REDIS_PASSWORD for redis.password.
type SettingsService struct {
	configStore driven.ConfigStore
	lookupEnv   func(string) (string, bool)
	homeDir     func() (string, error)
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		lookupEnv:   os.LookupEnv,
		homeDir:     os.UserHomeDir,
	}
}

// Get retrieves current settings with defaults applied.
func (s *SettingsService) Get() (*domain.Settings, error) {
	d := domain.DefaultSettings()

	dataDir := s.getString(keyDataDir, "")
	if dataDir == "" {
		home, err := s.homeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		dataDir = filepath.Join(home, defaultDataDirSubpath)
	}

	settings := &domain.Settings{
		DataDir: dataDir,
		Search:  s.getBackend(keySearchBackend, d.Search),
		Vector:  s.getBackend(keyVectorBackend, d.Vector),
		Redis: domain.RedisSettings{
			Addr:      s.getString(keyRedisAddr, d.Redis.Addr),
			Password:  s.getString(keyRedisPassword, ""),
			DB:        s.getInt(keyRedisDB, d.Redis.DB),
			KeyPrefix: s.getString(keyRedisKeyPrefix, d.Redis.KeyPrefix),
		},
		LocalBlob: domain.LocalBlobSettings{
			Root:       s.getString(keyLocalRoot, filepath.Join(dataDir, "blobs")),
			Trash:      s.getBool(keyLocalTrash, d.LocalBlob.Trash),
			TrashGrace: s.getDuration(keyLocalTrashGrace, d.LocalBlob.TrashGrace),
		},
		RemoteBlob: domain.RemoteBlobSettings{
			Backend:   s.getBackend(keyRemoteBackend, d.RemoteBlob.Backend),
			Endpoint:  s.getString(keyRemoteEndpoint, ""),
			Bucket:    s.getString(keyRemoteBucket, ""),
			Prefix:    s.getString(keyRemotePrefix, ""),
			Region:    s.getString(keyRemoteRegion, ""),
			AccessKey: s.getString(keyRemoteAccessKey, ""),
			SecretKey: s.getString(keyRemoteSecretKey, ""),
			UseSSL:    s.getBool(keyRemoteUseSSL, d.RemoteBlob.UseSSL),
		},
		Lock: domain.LockSettings{
			Backend: s.getBackend(keyLockBackend, d.Lock.Backend),
			TTL:     s.getDuration(keyLockTTL, d.Lock.TTL),
			Table:   s.getString(keyLockTable, d.Lock.Table),
		},
		Requeue: domain.RequeueSettings{
			Backend: s.getBackend(keyRequeueBackend, d.Requeue.Backend),
			Rate:    s.getFloat(keyRequeueRate, d.Requeue.Rate),
		},
		Deletion: domain.DeletionSettings{
			CallTimeout:   s.getDuration(keyCallTimeout, d.Deletion.CallTimeout),
			StrictPrepare: s.getBool(keyStrictPrepare, d.Deletion.StrictPrepare),
		},
		Integrity: domain.IntegritySettings{
			StaleAfter: s.getDuration(keyStaleAfter, d.Integrity.StaleAfter),
		},
		Repair: domain.RepairSettings{
			StuckAfter: s.getDuration(keyStuckAfter, d.Repair.StuckAfter),
		},
		Scheduler: d.Scheduler,
		Metrics: domain.MetricsSettings{
			Addr: s.getString(keyMetricsAddr, ""),
		},
	}

	settings.Scheduler.Enabled = s.getBool(keySchedulerEnabled, d.Scheduler.Enabled)
	settings.Scheduler.TaskConfigs = map[string]domain.TaskConfig{}
	for taskID, key := range map[string]string{
		domain.TaskIDIntegrityCheck: keyIntegrityInterval,
		domain.TaskIDAutoRepair:     keyRepairInterval,
		domain.TaskIDTrashReap:      keyTrashReapInterval,
	} {
		def := d.Scheduler.GetTaskConfig(taskID)
		interval := s.getDuration(key, def.Interval)
		settings.Scheduler.TaskConfigs[taskID] = domain.TaskConfig{
			Enabled:  interval > 0,
			Interval: interval,
		}
	}
	// A lock that expires mid-deletion would admit a second deleter.
	if longest := settings.Deletion.MaxDuration(); longest > 0 && settings.Lock.TTL <= longest {
		raised := longest + settings.Deletion.CallTimeout
		logger.Warn("%s %s is shorter than the longest deletion (%s), using %s",
			keyLockTTL, settings.Lock.TTL, longest, raised)
		settings.Lock.TTL = raised
	}

	if !settings.LocalBlob.Trash {
		cfg := settings.Scheduler.TaskConfigs[domain.TaskIDTrashReap]
		cfg.Enabled = false
		settings.Scheduler.TaskConfigs[domain.TaskIDTrashReap] = cfg
	}

	return settings, nil
}

// Set validates and stores a single value by dotted key.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := knownKeys[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	var typed any
	switch kind {
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be true or false", domain.ErrInvalidInput, key)
		}
		typed = b
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, key)
		}
		typed = n
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number", domain.ErrInvalidInput, key)
		}
		typed = f
	case kindDuration:
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("%w: %s must be a duration like 30s or 1h", domain.ErrInvalidInput, key)
		}
		typed = value
	case kindBackend:
		if !validBackend(key, domain.Backend(value)) {
			return fmt.Errorf("%w: %s does not accept backend %q", domain.ErrInvalidInput, key, value)
		}
		typed = value
	default:
		typed = value
	}

	if err := s.configStore.Set(key, typed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Reload re-reads configuration from storage.
func (s *SettingsService) Reload() error {
	return s.configStore.Load()
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings()
}

func validBackend(key string, b domain.Backend) bool {
	for _, choice := range backendChoices[key] {
		if choice == b {
			return true
		}
	}
	return false
}

// Helper methods for reading config with environment overrides and defaults.

func envName(key string) string {
	return envPrefix + strings.ToUpper(strings.NewReplacer(".", "_").Replace(key))
}

func (s *SettingsService) raw(key string) (string, bool) {
	if v, ok := s.lookupEnv(envName(key)); ok && v != "" {
		return v, true
	}
	val, ok := s.configStore.Get(key)
	if !ok || val == nil {
		return "", false
	}
	return fmt.Sprint(val), true
}

func (s *SettingsService) getString(key, defaultVal string) string {
	val, ok := s.raw(key)
	if !ok || val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val, ok := s.raw(key)
	if !ok {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	val, ok := s.raw(key)
	if !ok {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil || f < 0 {
		return defaultVal
	}
	return f
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	val, ok := s.raw(key)
	if !ok {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val, ok := s.raw(key)
	if !ok {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}

func (s *SettingsService) getBackend(key string, defaultVal domain.Backend) domain.Backend {
	val, ok := s.raw(key)
	if !ok {
		return defaultVal
	}
	b := domain.Backend(val)
	if !validBackend(key, b) {
		return defaultVal
	}
	return b
}
