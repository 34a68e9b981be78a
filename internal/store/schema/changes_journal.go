package schema

import (
	"time"

	"gorm.io/datatypes"

	"github.com/feral-file/carbon-marketplace/internal/domain"
)

// ChangesJournal represents the changes_journal table - audit log of every committed marketplace mutation
type ChangesJournal struct {
	// Cursor is an auto-incrementing sequence number for efficient pagination and ordering
	Cursor int64 `gorm:"column:cursor;primaryKey;autoIncrement"`
	// SubjectType identifies what kind of record changed (plantation, farmer, business, purchase)
	SubjectType domain.SubjectType `gorm:"column:subject_type;not null;type:text;index:idx_changes_journal_subject,priority:1"`
	// SubjectID is the identifier of the changed record
	SubjectID string `gorm:"column:subject_id;not null;type:text;index:idx_changes_journal_subject,priority:2"`
	// ChangedAt is the timestamp when the change was committed
	ChangedAt time.Time `gorm:"column:changed_at;not null"`
	// Meta contains the change details as JSON (old/new status, credit deltas, purchase amounts)
	Meta datatypes.JSON `gorm:"column:meta"`
}

// TableName specifies the table name for the ChangesJournal model
func (ChangesJournal) TableName() string {
	return "changes_journal"
}
