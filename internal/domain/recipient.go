package domain

import (
	"fmt"
	"strings"
	"time"
)

// ReminderType is a recurring notice category.
type ReminderType string

const (
	ReminderDues ReminderType = "dues"
	ReminderVPN  ReminderType = "vpn"
)

func (t ReminderType) String() string { return string(t) }

func (t ReminderType) IsValid() bool {
	switch t {
	case ReminderDues, ReminderVPN:
		return true
	}
	return false
}

func ParseReminderType(s string) (ReminderType, error) {
	t := ReminderType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("%w: invalid reminder type %q", ErrValidation, s)
	}
	return t, nil
}

// ReminderTypes lists all types in sweep order.
func ReminderTypes() []ReminderType {
	return []ReminderType{ReminderDues, ReminderVPN}
}

// VisibilityComponent names a status-screen section a recipient may hide.
// Visibility flags are display-only and never affect delivery.
type VisibilityComponent string

const (
	VisibilityStatus  VisibilityComponent = "status"
	VisibilityDues    VisibilityComponent = "dues"
	VisibilityVPN     VisibilityComponent = "vpn"
	VisibilitySavings VisibilityComponent = "savings"
)

func (c VisibilityComponent) String() string { return string(c) }

func (c VisibilityComponent) IsValid() bool {
	switch c {
	case VisibilityStatus, VisibilityDues, VisibilityVPN, VisibilitySavings:
		return true
	}
	return false
}

func ParseVisibilityComponent(s string) (VisibilityComponent, error) {
	c := VisibilityComponent(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", fmt.Errorf("%w: invalid visibility component %q", ErrValidation, s)
	}
	return c, nil
}

// Recipient is an addressable member of the notification audience.
// Created inactive on first contact; activated once; never deleted.
type Recipient struct {
	ID          string `gorm:"type:uuid;primaryKey"`
	ExternalID  int64  `gorm:"not null;uniqueIndex"`
	Active      bool   `gorm:"not null;default:false"`
	AllowDues   bool   `gorm:"not null;default:true"`
	AllowVPN    bool   `gorm:"not null;default:true"`
	ShowStatus  bool   `gorm:"not null;default:true"`
	ShowDues    bool   `gorm:"not null;default:true"`
	ShowVPN     bool   `gorm:"not null;default:true"`
	ShowSavings bool   `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OptedIn reports whether the recipient accepts reminders of the given type.
func (r *Recipient) OptedIn(t ReminderType) bool {
	switch t {
	case ReminderDues:
		return r.AllowDues
	case ReminderVPN:
		return r.AllowVPN
	}
	return false
}

// Eligible is the sweep selection predicate.
func (r *Recipient) Eligible(t ReminderType) bool {
	return r.Active && r.OptedIn(t)
}
