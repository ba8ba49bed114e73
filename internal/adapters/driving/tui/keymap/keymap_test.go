package keymap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultKeyMap(t *testing.T) {
	km := DefaultKeyMap()

	assert.Equal(t, []string{"q", "ctrl+c"}, km.Quit.Keys())
	assert.Equal(t, []string{"tab"}, km.NextView.Keys())
	assert.Equal(t, []string{"r"}, km.Refresh.Keys())
	assert.Equal(t, []string{"a"}, km.Repair.Keys())
	assert.Equal(t, []string{"m"}, km.ManualOnly.Keys())
	assert.Equal(t, "auto-repair", km.Repair.Help().Desc)
}

func TestKeyMap_HelpGroups(t *testing.T) {
	km := DefaultKeyMap()

	assert.Len(t, km.ShortHelp(), 3)
	assert.Contains(t, km.DashboardHelp(), km.Repair)
	assert.Contains(t, km.AuditHelp(), km.ManualOnly)

	full := km.FullHelp()
	assert.Len(t, full, 3)
	for _, group := range full {
		assert.NotEmpty(t, group)
	}
}

func TestMatches(t *testing.T) {
	km := DefaultKeyMap()

	tests := []struct {
		key  string
		want bool
	}{
		{"up", true},
		{"k", true},
		{"down", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Matches(tt.key, km.Up), tt.key)
	}
	assert.True(t, Matches("ctrl+c", km.Quit))
}
