// Package domain defines the persistence models for medicines, dose logs,
// caregivers, side-effect reports, and assistant conversations. These types
// are mapped with GORM and form the core data layer of the MediMinder backend.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Dose log lifecycle statuses. A log is created as pending and transitions
// exactly once to taken, missed, or skipped.
const (
	DoseStatusPending = "pending"
	DoseStatusTaken   = "taken"
	DoseStatusMissed  = "missed"
	DoseStatusSkipped = "skipped"
)

// Side-effect severities as returned by the classifier.
const (
	SeverityMild     = "mild"
	SeverityModerate = "moderate"
	SeveritySevere   = "severe"
)

// Medicine represents one prescription tracked by a user.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - UserID: identifier of the owner; indexed for efficient retrieval.
//   - Name / Dosage: free-text prescription description (e.g. "Lisinopril", "10mg").
//   - Frequency: scheduled intakes per day.
//   - StartDate / EndDate: treatment window; EndDate nil for open-ended courses.
//   - Instructions: optional free-text intake instructions.
//   - DeletedAt: soft deletion marker (dose history must survive removal).
type Medicine struct {
	ID           string         `json:"id"           gorm:"type:char(36);primaryKey"`
	UserID       string         `json:"user_id"      gorm:"type:varchar(64);not null;index:idx_user_medicines"`
	Name         string         `json:"name"         gorm:"type:varchar(255);not null"`
	Dosage       string         `json:"dosage"       gorm:"type:varchar(64);not null"`
	Frequency    int            `json:"frequency"    gorm:"not null;check:frequency > 0"`
	StartDate    time.Time      `json:"start_date"   gorm:"not null"`
	EndDate      *time.Time     `json:"end_date,omitempty"`
	Instructions string         `json:"instructions,omitempty" gorm:"type:text"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-"            gorm:"index"`
}

// TableName returns the database table name for Medicine.
func (Medicine) TableName() string { return "medicines" }

// DoseLog is one scheduled-or-recorded intake event. Rows are immutable once
// created except for the single status transition performed when the dose is
// logged (or swept to missed by the scheduler).
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - UserID: owner; indexed together with ScheduledTime for window queries.
//   - MedicineID: foreign key to the scheduled medicine.
//   - ScheduledTime: the instant the dose was due.
//   - TakenTime: set only when Status becomes "taken".
//   - Status: pending | taken | missed | skipped (enforced by DB constraint).
type DoseLog struct {
	ID            string     `json:"id"             gorm:"type:char(36);primaryKey"`
	UserID        string     `json:"user_id"        gorm:"type:varchar(64);not null;index:idx_user_doses,priority:1"`
	MedicineID    string     `json:"medicine_id"    gorm:"type:char(36);not null;index"`
	ScheduledTime time.Time  `json:"scheduled_time" gorm:"not null;index:idx_user_doses,priority:2"`
	TakenTime     *time.Time `json:"taken_time,omitempty"`
	Status        string     `json:"status"         gorm:"type:varchar(16);not null;default:'pending';check:status IN ('pending','taken','missed','skipped')"`
	Notes         string     `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// Medicine is the parent prescription. Dose logs are cascade-deleted
	// when their medicine row is hard-deleted.
	Medicine Medicine `json:"-" gorm:"foreignKey:MedicineID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for DoseLog.
func (DoseLog) TableName() string { return "dose_logs" }

// Caregiver is an alert addressee for a user. The triage pipeline treats it
// as opaque contact data; at most one caregiver per user is primary.
type Caregiver struct {
	ID           string         `json:"id"           gorm:"type:char(36);primaryKey"`
	UserID       string         `json:"user_id"      gorm:"type:varchar(64);not null;index:idx_user_caregivers"`
	Name         string         `json:"name"         gorm:"type:varchar(255);not null"`
	Phone        string         `json:"phone"        gorm:"type:varchar(32);not null"`
	Email        string         `json:"email,omitempty" gorm:"type:varchar(255)"`
	Relationship string         `json:"relationship" gorm:"type:varchar(64);not null"`
	IsPrimary    bool           `json:"is_primary"   gorm:"not null;default:false"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-"            gorm:"index"`
}

// TableName returns the database table name for Caregiver.
func (Caregiver) TableName() string { return "caregivers" }

// SideEffect records one triaged side-effect report: the verbatim user text,
// the classifier verdict, and whether a caregiver alert went out for it.
//
// FromFallback distinguishes a genuine "moderate" classification from the
// fail-closed default substituted when the classifier was unreachable.
type SideEffect struct {
	ID                string    `json:"id"                gorm:"type:char(36);primaryKey"`
	UserID            string    `json:"user_id"           gorm:"type:varchar(64);not null;index"`
	MedicineID        string    `json:"medicine_id,omitempty" gorm:"type:char(36)"`
	Description       string    `json:"description"       gorm:"type:text;not null"`
	Severity          string    `json:"severity"          gorm:"type:varchar(16);not null;check:severity IN ('mild','moderate','severe')"`
	Classification    string    `json:"classification"    gorm:"type:varchar(255);not null"`
	FromFallback      bool      `json:"from_fallback"     gorm:"not null;default:false"`
	CaregiverNotified bool      `json:"caregiver_notified" gorm:"not null;default:false"`
	CreatedAt         time.Time `json:"created_at"`
}

// TableName returns the database table name for SideEffect.
func (SideEffect) TableName() string { return "side_effects" }

// Conversation represents an assistant conversation owned by a user. Titles
// are auto-generated from the first user message when left at the default.
type Conversation struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID    string         `json:"user_id"    gorm:"type:varchar(64);not null;index:idx_user_conversations"`
	Title     string         `json:"title"      gorm:"type:varchar(255);not null;default:'New conversation'"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for Conversation.
func (Conversation) TableName() string { return "conversations" }

// Message display categories assigned by triage.
const (
	CategoryNormal     = "normal"
	CategorySideEffect = "side-effect"
	CategoryAlert      = "alert"
)

// Message is a single utterance within a conversation, authored by the
// "user" or the "assistant". Assistant messages carry the triage category
// so clients can render side-effect and alert replies distinctly.
type Message struct {
	ID             string         `json:"id"              gorm:"type:char(36);primaryKey"`
	ConversationID string         `json:"conversation_id" gorm:"type:char(36);not null;index:idx_conv_msgs,priority:1"`
	Role           string         `json:"role"            gorm:"type:varchar(16);not null;check:role IN ('user','assistant')"`
	Content        string         `json:"content"         gorm:"type:text;not null"`
	Category       string         `json:"category,omitempty" gorm:"type:varchar(16)"` // only for assistant messages
	CreatedAt      time.Time      `json:"created_at"      gorm:"index:idx_conv_msgs,priority:2"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-"               gorm:"index"`

	// Conversation is the parent thread. Messages are cascade-deleted if
	// their conversation is removed.
	Conversation Conversation `json:"-" gorm:"foreignKey:ConversationID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }
