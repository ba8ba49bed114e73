package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sercha-integrity/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change configuration stored in ~/.sercha-integrity/config.toml.

Every key can also be set through an environment variable named after it,
for example SERCHA_REDIS_PASSWORD for redis.password.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Long: `Set a configuration value by dotted key, for example:

  sercha-integrity settings set lock.backend redis
  sercha-integrity settings set scheduler.integrity_interval 30m

Omit the value for secret keys to be prompted without echo.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSettingsSet,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	s, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	st := newStyles(cmd.OutOrStdout())
	section := func(name string) {
		cmd.Println()
		cmd.Println(st.title.Render("[" + name + "]"))
	}

	cmd.Println(st.title.Render("Current Settings"))
	cmd.Printf("  Data dir: %s\n", s.DataDir)

	section("Stores")
	cmd.Printf("  Search: %s\n", s.Search)
	cmd.Printf("  Vector: %s\n", s.Vector)
	cmd.Printf("  Local blobs: %s (trash %s, grace %s)\n", s.LocalBlob.Root, onOff(s.LocalBlob.Trash), s.LocalBlob.TrashGrace)
	cmd.Printf("  Remote blobs: %s\n", s.RemoteBlob.Backend)
	if s.RemoteBlob.IsConfigured() {
		cmd.Printf("    Endpoint: %s\n", s.RemoteBlob.Endpoint)
		cmd.Printf("    Bucket: %s\n", s.RemoteBlob.Bucket)
		cmd.Printf("    Access key: %s\n", maskSecret(s.RemoteBlob.AccessKey))
		cmd.Printf("    Secret key: %s\n", maskSecret(s.RemoteBlob.SecretKey))
	}

	if usesRedis(s) {
		section("Redis")
		cmd.Printf("  Address: %s (db %d)\n", s.Redis.Addr, s.Redis.DB)
		cmd.Printf("  Password: %s\n", maskSecret(s.Redis.Password))
		cmd.Printf("  Key prefix: %s\n", s.Redis.KeyPrefix)
	}

	section("Deletion")
	cmd.Printf("  Lock: %s (ttl %s)\n", s.Lock.Backend, s.Lock.TTL)
	cmd.Printf("  Call timeout: %s\n", s.Deletion.CallTimeout)
	cmd.Printf("  Strict prepare: %s\n", onOff(s.Deletion.StrictPrepare))

	section("Integrity")
	cmd.Printf("  Stale after: %s\n", s.Integrity.StaleAfter)
	cmd.Printf("  Stuck after: %s\n", s.Repair.StuckAfter)
	cmd.Printf("  Requeue: %s (%g/s)\n", s.Requeue.Backend, s.Requeue.Rate)

	section("Scheduler")
	cmd.Printf("  Enabled: %s\n", onOff(s.Scheduler.Enabled))
	for _, id := range []string{domain.TaskIDIntegrityCheck, domain.TaskIDAutoRepair, domain.TaskIDTrashReap} {
		tc := s.Scheduler.GetTaskConfig(id)
		interval := tc.Interval.String()
		if !tc.Enabled {
			interval = "off"
		}
		cmd.Printf("  %s: %s\n", id, interval)
	}
	if s.Metrics.Addr != "" {
		cmd.Printf("  Metrics: %s\n", s.Metrics.Addr)
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key := args[0]
	var value string
	if len(args) == 2 {
		value = args[1]
	} else {
		if !isSecretKey(key) {
			return fmt.Errorf("%w: %s needs a value", domain.ErrInvalidInput, key)
		}
		cmd.Printf("%s: ", key)
		value = readPassword()
		cmd.Println()
	}

	if err := settingsService.Set(key, value); err != nil {
		return err
	}
	if isSecretKey(key) {
		value = maskSecret(value)
	}
	cmd.Printf("%s = %s\n", key, value)
	return nil
}

func usesRedis(s *domain.Settings) bool {
	return s.Vector == domain.BackendRedis ||
		s.Lock.Backend == domain.BackendRedis ||
		s.Requeue.Backend == domain.BackendRedis
}

func isSecretKey(key string) bool {
	return strings.HasSuffix(key, "password") || strings.HasSuffix(key, "secret_key") ||
		strings.HasSuffix(key, "access_key")
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskSecret(secret string) string {
	if secret == "" {
		return "(not set)"
	}
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}
