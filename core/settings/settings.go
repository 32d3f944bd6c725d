package settings

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/core"
)

// Themes
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

var Languages = []string{"en", "fr"}

// Settings are the user preferences persisted as one JSON blob.
type Settings struct {
	Theme        string `json:"theme" validate:"oneof=light dark"`
	Language     string `json:"language" validate:"oneof=en fr"`
	ActiveCourse string `json:"activeCourse,omitempty"`
}

func Defaults() Settings {
	return Settings{Theme: ThemeLight, Language: "fr"}
}

// Store reads and writes Settings under a single storage key.
type Store struct {
	storage core.Storage
	key     string
	logger  core.Logger
}

func NewStore(storage core.Storage, conf *core.Config, logger core.Logger) *Store {
	return &Store{storage: storage, key: conf.SettingsKey, logger: logger}
}

// Load returns the stored settings. Missing or unreadable data yields the defaults,
// and missing fields are filled with their default value.
func (s *Store) Load() Settings {
	raw, ok, err := s.storage.Get(s.key)
	if err != nil {
		s.logger.Warn("reading settings", err)
		return Defaults()
	}
	if !ok {
		return Defaults()
	}
	var st Settings
	if err = json.Unmarshal([]byte(raw), &st); err != nil {
		s.logger.Warn("invalid settings, using defaults", err)
		return Defaults()
	}
	return st.withDefaults()
}

func (s *Store) Save(st Settings) error {
	st = st.withDefaults()
	b, err := json.Marshal(st)
	if err != nil {
		return errors.Wrap(err, "encoding settings")
	}
	return errors.Wrap(s.storage.Set(s.key, string(b)), "saving settings")
}

// Update applies fn to the current settings and saves the result.
func (s *Store) Update(fn func(*Settings)) (Settings, error) {
	st := s.Load()
	fn(&st)
	if err := s.Save(st); err != nil {
		return Settings{}, err
	}
	return st.withDefaults(), nil
}

func (st Settings) withDefaults() Settings {
	def := Defaults()
	if st.Theme != ThemeLight && st.Theme != ThemeDark {
		st.Theme = def.Theme
	}
	if !validLanguage(st.Language) {
		st.Language = def.Language
	}
	st.ActiveCourse = core.CleanString(st.ActiveCourse)
	return st
}

func validLanguage(lang string) bool {
	for _, l := range Languages {
		if l == lang {
			return true
		}
	}
	return false
}
