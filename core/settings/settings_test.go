package settings_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-portal/core/settings"
	"github.com/trezcool/masomo-portal/tests"
)

func TestStore(t *testing.T) {
	conf := testutil.NewConfig(t)
	storage := testutil.NewStorage()
	store := settings.NewStore(storage, conf, testutil.NopLogger{})

	tests := []struct {
		name string
		raw  string
		want settings.Settings
	}{
		{"invalid json", "{theme", settings.Defaults()},
		{"partial", `{"theme":"dark"}`, settings.Settings{Theme: "dark", Language: "fr"}},
		{"unknown values", `{"theme":"neon","language":"de","activeCourse":" L1 "}`, settings.Settings{Theme: "light", Language: "fr", ActiveCourse: "L1"}},
		{"complete", `{"theme":"dark","language":"en","activeCourse":"L2"}`, settings.Settings{Theme: "dark", Language: "en", ActiveCourse: "L2"}},
	}

	assert.Equal(t, settings.Defaults(), store.Load(), "missing")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, storage.Set(conf.SettingsKey, tt.raw))
			assert.Equal(t, tt.want, store.Load())
		})
	}

	t.Run("update", func(t *testing.T) {
		require.NoError(t, storage.Remove(conf.SettingsKey))
		st, err := store.Update(func(s *settings.Settings) { s.Language = "en" })
		require.NoError(t, err)
		assert.Equal(t, settings.Settings{Theme: "light", Language: "en"}, st)
		assert.Equal(t, st, store.Load())
	})
}
