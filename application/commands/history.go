package commands

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// MaxNotesLength bounds record notes, in runes
const MaxNotesLength = 2000

// DeleteRecordCommand removes a decision record
type DeleteRecordCommand struct {
	RecordID string `json:"recordId"`
}

// Validate validates the command
func (c DeleteRecordCommand) Validate() error {
	if strings.TrimSpace(c.RecordID) == "" {
		return errors.New("record ID is required")
	}
	return nil
}

// AnnotateRecordCommand replaces the free-text notes of a record
type AnnotateRecordCommand struct {
	RecordID string `json:"recordId"`
	Notes    string `json:"notes"`
}

// Validate validates the command
func (c AnnotateRecordCommand) Validate() error {
	if strings.TrimSpace(c.RecordID) == "" {
		return errors.New("record ID is required")
	}
	if utf8.RuneCountInString(c.Notes) > MaxNotesLength {
		return errors.New("notes are too long")
	}
	return nil
}
