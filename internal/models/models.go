package models

import "time"

// Customer is one row of the roster spreadsheet, loaded once at startup.
type Customer struct {
	Phone     string
	Name      string
	AccountID string
}

// Step identifies where a user currently is in the scheduling dialogue.
// The zero value means idle: the user is known but no flow is in progress.
type Step string

const (
	StepIdle                   Step = ""
	StepAwaitingDateChoice     Step = "awaiting_date_choice"
	StepAwaitingOtherDateInput Step = "awaiting_other_date_input"
	StepAwaitingTimeSlotChoice Step = "awaiting_time_slot_choice"
	StepAwaitingTodayConfirm   Step = "awaiting_today_confirmation"
	StepAwaitingLaterTime      Step = "awaiting_later_time"
)

// ConversationState is the persisted per-user dialogue state. A row exists
// only for users that have been matched against the roster at least once.
// ScheduledDate is empty except while a time slot is being chosen.
type ConversationState struct {
	UserID        string
	AccountID     string
	Step          Step
	ScheduledDate string
	LastUpdated   time.Time
}

// Appointment is one finalized booking, destined for the ledger sheet.
type Appointment struct {
	CreatedAt time.Time
	UserID    string
	AccountID string
	DateLabel string
	SlotLabel string
}
