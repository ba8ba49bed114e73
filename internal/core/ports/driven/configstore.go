package driven

// ConfigStore is the persisted settings file. Keys are dotted section paths
// such as "deletion.call_timeout" or "blob.remote.bucket".
type ConfigStore interface {
	// Get returns the raw value and whether the key is present.
	Get(key string) (any, bool)

	// Typed getters return the zero value when the key is missing or holds
	// another type.
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	GetStringSlice(key string) []string

	// Set writes one key and persists the file.
	Set(key string, value any) error

	Save() error

	// Load re-reads the file, replacing in-memory values.
	Load() error

	Path() string
}
