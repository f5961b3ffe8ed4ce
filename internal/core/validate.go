package core

import (
	"fmt"
	"unicode/utf8"
)

// ValidateNick checks display-name bounds. The field name is echoed in the
// error so callers can report which payload field failed.
func ValidateNick(field, nick string) *Error {
	if nick == "" {
		return badRequest(field, "must not be empty")
	}
	if utf8.RuneCountInString(nick) > MaxNickLength {
		return badRequest(field, fmt.Sprintf("must be at most %d characters", MaxNickLength))
	}
	return nil
}

// ValidateContent checks message content bounds.
func ValidateContent(content string) *Error {
	if content == "" {
		return badRequest("content", "must not be empty")
	}
	if utf8.RuneCountInString(content) > MaxMessageLength {
		return badRequest("content", fmt.Sprintf("must be at most %d characters", MaxMessageLength))
	}
	return nil
}

// ValidatePage checks history paging bounds. A zero limit means the caller
// wants the default page size.
func ValidatePage(offset, limit int) *Error {
	if offset < 0 {
		return badRequest("offset", "must not be negative")
	}
	if limit != 0 && (limit < 1 || limit > MaxHistoryLimit) {
		return badRequest("limit", fmt.Sprintf("must be between 1 and %d", MaxHistoryLimit))
	}
	return nil
}

// NormalizeRoomID falls back to the default room when none is given.
func NormalizeRoomID(roomID string) string {
	if roomID == "" {
		return DefaultRoom
	}
	return roomID
}
