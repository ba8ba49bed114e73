package file

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
	assert.Empty(t, store.Keys())
}

func TestNewConfigStore_WithNestedDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	store, err := NewConfigStore(dir)

	require.NoError(t, err)
	require.NoError(t, store.Set("redis.addr", "localhost:6380"))
	_, err = os.Stat(filepath.Join(dir, "config.toml"))
	assert.NoError(t, err)
}

func TestNewConfigStore_LoadCorruptedFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("not [valid toml"), 0600))

	_, err := NewConfigStore(tmpDir)

	assert.Error(t, err)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("redis.addr", "localhost:6379"))
	require.NoError(t, store.Set("redis.db", 3))
	require.NoError(t, store.Set("deletion.strict_prepare", true))
	require.NoError(t, store.Set("tags", []string{"a", "b"}))

	assert.Equal(t, "localhost:6379", store.GetString("redis.addr"))
	assert.Equal(t, 3, store.GetInt("redis.db"))
	assert.True(t, store.GetBool("deletion.strict_prepare"))
	assert.Equal(t, []string{"a", "b"}, store.GetStringSlice("tags"))

	// Wrong types and missing keys fall back to zero values.
	assert.Equal(t, "", store.GetString("redis.db"))
	assert.Equal(t, 0, store.GetInt("redis.addr"))
	assert.False(t, store.GetBool("missing"))
	assert.Nil(t, store.GetStringSlice("redis.addr"))
}

func TestConfigStore_GettersParseStrings(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("redis.db", "7"))
	require.NoError(t, store.Set("blob.local.trash", "false"))
	require.NoError(t, store.Set("blob.remote.use_ssl", "true"))

	assert.Equal(t, 7, store.GetInt("redis.db"))
	assert.False(t, store.GetBool("blob.local.trash"))
	assert.True(t, store.GetBool("blob.remote.use_ssl"))
}

func TestConfigStore_SaveReload_Nested(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set("blob.local.root", "/srv/blobs"))
	require.NoError(t, store.Set("blob.remote.bucket", "docs"))
	require.NoError(t, store.Set("scheduler.integrity_interval", "1h"))
	require.NoError(t, store.Set("redis.db", 2))

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "[blob.local]")
	assert.Contains(t, string(raw), "[blob.remote]")

	reopened, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "/srv/blobs", reopened.GetString("blob.local.root"))
	assert.Equal(t, "docs", reopened.GetString("blob.remote.bucket"))
	assert.Equal(t, "1h", reopened.GetString("scheduler.integrity_interval"))
	assert.Equal(t, 2, reopened.GetInt("redis.db"))
	assert.Equal(t, []string{
		"blob.local.root",
		"blob.remote.bucket",
		"redis.db",
		"scheduler.integrity_interval",
	}, reopened.Keys())
}

func TestConfigStore_FilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not enforced on Windows")
	}
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("redis.password", "secret"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)

	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_SetFailureKeepsPreviousValue(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("requires an unprivileged POSIX user")
	}
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	require.NoError(t, store.Set("redis.addr", "a:1"))

	require.NoError(t, os.Chmod(tmpDir, 0500))
	t.Cleanup(func() { _ = os.Chmod(tmpDir, 0700) })

	err = store.Set("redis.addr", "b:2")

	assert.Error(t, err)
	assert.Equal(t, "a:1", store.GetString("redis.addr"))
}

func TestConfigStore_Load_PicksUpExternalEdit(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("redis.addr", "old:1"))

	require.NoError(t, os.WriteFile(store.Path(), []byte("[redis]\naddr = \"new:2\"\n"), 0600))
	require.NoError(t, store.Load())

	assert.Equal(t, "new:2", store.GetString("redis.addr"))
}

func TestConfigStore_Concurrency(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("redis.db", n)
			_ = store.GetInt("redis.db")
		}(i)
	}
	wg.Wait()

	assert.GreaterOrEqual(t, store.GetInt("redis.db"), 0)
}

func TestNestMap_ScalarWinsOverTable(t *testing.T) {
	nested := nestMap(map[string]any{
		"a":   1,
		"a.b": 2,
		"c.d": 3,
	})

	assert.Equal(t, 1, nested["a"])
	assert.Equal(t, map[string]any{"d": 3}, nested["c"])
}

func TestConfigStore_Watch(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("redis.addr", "old:1"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan error, 16)
	done := make(chan error, 1)
	go func() {
		done <- store.Watch(ctx, func(err error) {
			select {
			case reloaded <- err:
			default:
			}
		})
	}()

	// Writes repeat until the watcher has registered and seen one.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(store.Path(), []byte("[redis]\naddr = \"new:2\"\n"), 0600)
		select {
		case err := <-reloaded:
			return err == nil && store.GetString("redis.addr") == "new:2"
		case <-time.After(100 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("SERCHA_TEST_DOTENV_A=from-file\nSERCHA_TEST_DOTENV_B=file\n"), 0600))
	t.Setenv("SERCHA_TEST_DOTENV_B", "from-env")
	t.Cleanup(func() { _ = os.Unsetenv("SERCHA_TEST_DOTENV_A") })

	loaded, err := LoadEnv(filepath.Join(dir, "missing.env"), envFile)

	require.NoError(t, err)
	assert.Equal(t, []string{envFile}, loaded)
	assert.Equal(t, "from-file", os.Getenv("SERCHA_TEST_DOTENV_A"))
	assert.Equal(t, "from-env", os.Getenv("SERCHA_TEST_DOTENV_B"))
}
