package memory

import (
	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/V4T54L/eventbridge/internal/domain"
)

// SettingsRepository stores the active settings of every registered source,
// keyed by source name without regard to case.
type SettingsRepository struct {
	items cmap.ConcurrentMap[string, *domain.SourceSettings]
}

// NewSettingsRepository creates an empty SettingsRepository.
func NewSettingsRepository() *SettingsRepository {
	return &SettingsRepository{items: cmap.New[*domain.SourceSettings]()}
}

// Set replaces the settings stored for name. The repository keeps its own
// copy, so later changes to settings by the caller are not observed.
func (r *SettingsRepository) Set(name string, settings *domain.SourceSettings) {
	r.items.Set(domain.SourceKey(name), settings.Clone())
}

// Get returns the settings stored for name.
func (r *SettingsRepository) Get(name string) (*domain.SourceSettings, bool) {
	return r.items.Get(domain.SourceKey(name))
}

// Len returns the number of registered sources.
func (r *SettingsRepository) Len() int {
	return r.items.Count()
}

// Reset removes all settings.
func (r *SettingsRepository) Reset() {
	r.items.Clear()
}
