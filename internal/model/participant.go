package model

import (
	"regexp"
	"time"
)

// Participant is a person who can register for events.  A participant
// is created once and referenced by any number of attendance records;
// removing an attendance never removes the participant.
//
// Fields:
//  ID        – opaque identifier (UUID string), participants.id.
//  Name      – full name.
//  Email     – contact email, globally unique.
//  Phone     – contact phone number.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last modification timestamp.
type Participant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewParticipant builds a Participant.  The ID is assigned by the
// repository on insert.
func NewParticipant(name, email, phone string) *Participant {
	return &Participant{Name: name, Email: email, Phone: phone}
}

var (
	emailRe = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)
	phoneRe = regexp.MustCompile(`^\+?[0-9(][0-9 ()\-]{5,19}$`)
)

// ValidEmail reports whether s looks like a deliverable email address.
func ValidEmail(s string) bool { return emailRe.MatchString(s) }

// ValidPhone reports whether s looks like a phone number.  An optional
// leading "+" is accepted, followed by digits, spaces, parentheses and
// dashes.
func ValidPhone(s string) bool { return phoneRe.MatchString(s) }
