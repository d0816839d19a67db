package domain

import (
	"strings"

	history "github.com/ocastrobeltran/gestio-qa-backend/internal/history/domain"
)

// Patch is a partial update. A nil field was absent from the request and
// means "leave unchanged", never "clear". Collections follow full-replace
// semantics: nil leaves the collection alone, an empty slice empties it.
type Patch struct {
	Title       *string
	Initiative  *string
	Client      *string
	PM          *string
	LeadDev     *string
	Designer    *string
	DesignURL   *string
	TestURL     *string
	QAAnalystID *int64
	Status      *string
	Developers  []string
	Assets      []string
}

// IsZero reports whether the patch touches nothing.
func (p Patch) IsZero() bool {
	return p.Title == nil && p.Initiative == nil && p.Client == nil &&
		p.PM == nil && p.LeadDev == nil && p.Designer == nil &&
		p.DesignURL == nil && p.TestURL == nil && p.QAAnalystID == nil &&
		p.Status == nil && p.Developers == nil && p.Assets == nil
}

// Changes computes the audit records a patch produces against the current
// state. Only present fields are examined; a field equal to its current
// value is silent. resolveName maps a user id to a display name and is
// only consulted for analyst reassignments.
func (p Patch) Changes(current *Project, resolveName func(int64) string) []history.Change {
	var changes []history.Change

	if p.Status != nil && *p.Status != current.Status {
		changes = append(changes, history.Change{
			Type:     history.ChangeStatus,
			OldValue: current.Status,
			NewValue: *p.Status,
		})
	}

	if p.QAAnalystID != nil && (current.QAAnalystID == nil || *p.QAAnalystID != *current.QAAnalystID) {
		oldName := history.UnassignedLabel
		if current.QAAnalystID != nil {
			if name := resolveName(*current.QAAnalystID); name != "" {
				oldName = name
			}
		}
		newName := history.UnassignedLabel
		if name := resolveName(*p.QAAnalystID); name != "" {
			newName = name
		}
		changes = append(changes, history.Change{
			Type:     history.ChangeAnalyst,
			OldValue: oldName,
			NewValue: newName,
		})
	}

	// Collection replacements are recorded once as a batch event, not
	// per item. Emptying a collection replaces it silently.
	if len(p.Developers) > 0 {
		changes = append(changes, history.Change{
			Type:     history.ChangeDevelopers,
			NewValue: strings.Join(p.Developers, ", "),
		})
	}
	if len(p.Assets) > 0 {
		changes = append(changes, history.Change{
			Type:     history.ChangeAssets,
			NewValue: "Nuevos insumos añadidos",
		})
	}

	return changes
}
