package moderation

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jwebster45206/realm-engine/pkg/account"
	"github.com/jwebster45206/realm-engine/pkg/textfilter"
)

const (
	MaxNameLength      = 100
	MaxTraitLength     = 50
	MaxBackstoryLength = 1000
	MaxMessageLength   = 500
)

// ValidationError describes rejected user content.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func invalid(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// Validator checks user-authored NPC fields and chat messages.
type Validator struct {
	filter *textfilter.ContentFilter
}

// NewValidator creates a validator. A nil filter uses the default blocked words.
func NewValidator(filter *textfilter.ContentFilter) *Validator {
	if filter == nil {
		filter = textfilter.NewContentFilter(nil)
	}
	return &Validator{filter: filter}
}

func (v *Validator) field(label, text string, limit int) error {
	if text == "" {
		return nil
	}
	if err := v.filter.Check(text); err != nil {
		var rej *textfilter.Rejection
		if errors.As(err, &rej) {
			return invalid("%s validation failed: %s", label, rej.Reason)
		}
		return err
	}
	if utf8.RuneCountInString(text) > limit {
		return invalid("%s too long (max %d characters)", label, limit)
	}
	return nil
}

// ValidateNPC checks the optional NPC fields. Blank fields are skipped.
func (v *Validator) ValidateNPC(name, trait, backstory string) error {
	if err := v.field("Name", name, MaxNameLength); err != nil {
		return err
	}
	if err := v.field("Trait", trait, MaxTraitLength); err != nil {
		return err
	}
	return v.field("Backstory", backstory, MaxBackstoryLength)
}

// ValidateMessage checks a chat message.
func (v *Validator) ValidateMessage(message string) error {
	if strings.TrimSpace(message) == "" {
		return invalid("Message cannot be empty")
	}
	if utf8.RuneCountInString(message) > MaxMessageLength {
		return invalid("Message too long (max %d characters)", MaxMessageLength)
	}
	if err := v.filter.Check(message); err != nil {
		var rej *textfilter.Rejection
		if errors.As(err, &rej) {
			return invalid("%s", rej.Reason)
		}
		return err
	}
	return nil
}

// NewReport builds a content report.
func NewReport(contentType, contentID, reason string) (account.Report, error) {
	contentType = strings.TrimSpace(contentType)
	contentID = strings.TrimSpace(contentID)
	if contentType == "" || contentID == "" {
		return account.Report{}, invalid("content_type and content_id are required")
	}
	return account.Report{
		ContentType: contentType,
		ContentID:   contentID,
		Reason:      strings.TrimSpace(reason),
		Timestamp:   time.Now().UTC(),
	}, nil
}
