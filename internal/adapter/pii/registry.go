package pii

import (
	"log/slog"
	"strings"

	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/V4T54L/eventbridge/internal/domain"
)

// RedactedPlaceholder replaces the value of every sensitive payload field.
const RedactedPlaceholder = "(Sensitive information omitted)"

type payloadKey struct {
	eventID int
	index   int
}

// sourceRows holds all classifications of one source. It is never mutated
// after being stored, so readers always see a complete registration.
type sourceRows map[payloadKey]domain.Classification

// Registry maps (source identity, event id, payload index) to a classification.
// Rows of one source are replaced as a unit on every registration.
type Registry struct {
	sources        cmap.ConcurrentMap[string, sourceRows]
	fieldsToRedact map[string]struct{}
	logger         *slog.Logger
}

// NewRegistry creates a Registry. Payload fields named in fields are classified
// as sensitive for every source, in addition to their declared classification.
func NewRegistry(fields []string, logger *slog.Logger) *Registry {
	fieldSet := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		field = strings.ToLower(strings.TrimSpace(field))
		if field != "" {
			fieldSet[field] = struct{}{}
		}
	}
	return &Registry{
		sources:        cmap.New[sourceRows](),
		fieldsToRedact: fieldSet,
		logger:         logger.With("component", "pii_registry"),
	}
}

// Register replaces the classifications of a source with entries.
// It returns the number of sensitive rows stored.
func (r *Registry) Register(id domain.SourceIdentity, entries []domain.ClassificationEntry) int {
	rows := make(sourceRows, len(entries))
	sensitive := 0
	for _, e := range entries {
		c := e.Classification
		if _, ok := r.fieldsToRedact[strings.ToLower(e.Name)]; ok {
			c = domain.Sensitive
		}
		if c == domain.Sensitive {
			sensitive++
		}
		rows[payloadKey{eventID: e.EventID, index: e.Index}] = c
	}

	replaced := false
	r.sources.Upsert(id.String(), rows, func(exists bool, _ sourceRows, next sourceRows) sourceRows {
		replaced = exists
		return next
	})
	if replaced {
		r.logger.Debug("replaced payload classifications", "source_id", id, "rows", len(rows), "sensitive", sensitive)
	} else {
		r.logger.Debug("registered payload classifications", "source_id", id, "rows", len(rows), "sensitive", sensitive)
	}
	return sensitive
}

// Classify returns the classification of a payload field.
// Fields without a declaration are Normal.
func (r *Registry) Classify(id domain.SourceIdentity, eventID, index int) domain.Classification {
	rows, ok := r.sources.Get(id.String())
	if !ok {
		return domain.Normal
	}
	return rows[payloadKey{eventID: eventID, index: index}]
}

// Snapshot returns the classifications of a single source as resolved now.
// The returned classifier keeps answering from that registration even if the
// source is re-registered concurrently.
func (r *Registry) Snapshot(id domain.SourceIdentity) domain.Classifier {
	rows, _ := r.sources.Get(id.String())
	return func(eventID, index int) domain.Classification {
		return rows[payloadKey{eventID: eventID, index: index}]
	}
}

// Reset removes every registration.
func (r *Registry) Reset() {
	r.sources.Clear()
}
