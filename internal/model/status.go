package model

import (
	"fmt"
	"strconv"
	"strings"
)

// ClaimStatus is the canonical lifecycle status of a claim. The backend
// reports numeric codes; they are decoded here and nowhere else.
type ClaimStatus int

const (
	StatusOpen ClaimStatus = iota
	StatusClaimed
	StatusSubmitted
	StatusCompleted
	StatusRejected
	StatusExpired
)

// Wire codes used by the backend for acceptance record status.
const (
	wireClaimed   = 1
	wireSubmitted = 2
	wireCompleted = 3
	wireRejected  = 4
	wireExpired   = 5
)

// ClaimStatusFromWire maps a backend status code to the canonical enum.
// Unknown codes map to StatusOpen so they render as claimable rather than
// silently inventing a lifecycle position.
func ClaimStatusFromWire(code int) ClaimStatus {
	switch code {
	case wireClaimed:
		return StatusClaimed
	case wireSubmitted:
		return StatusSubmitted
	case wireCompleted:
		return StatusCompleted
	case wireRejected:
		return StatusRejected
	case wireExpired:
		return StatusExpired
	default:
		return StatusOpen
	}
}

// Wire returns the backend code for the status.
func (s ClaimStatus) Wire() int {
	switch s {
	case StatusClaimed:
		return wireClaimed
	case StatusSubmitted:
		return wireSubmitted
	case StatusCompleted:
		return wireCompleted
	case StatusRejected:
		return wireRejected
	case StatusExpired:
		return wireExpired
	default:
		return 0
	}
}

// StatusDisplay is the single source of display strings and style hints
// for a claim status. Views consume this table instead of re-deriving
// labels per screen.
type StatusDisplay struct {
	Label string
	Style string
}

var statusDisplay = map[ClaimStatus]StatusDisplay{
	StatusOpen:      {Label: "open", Style: "default"},
	StatusClaimed:   {Label: "in progress", Style: "info"},
	StatusSubmitted: {Label: "pending review", Style: "warning"},
	StatusCompleted: {Label: "completed", Style: "success"},
	StatusRejected:  {Label: "rejected", Style: "danger"},
	StatusExpired:   {Label: "expired", Style: "muted"},
}

// Display returns the display entry for the status.
func (s ClaimStatus) Display() StatusDisplay {
	if d, ok := statusDisplay[s]; ok {
		return d
	}
	return StatusDisplay{Label: "unknown", Style: "default"}
}

// String implements fmt.Stringer using the display label.
func (s ClaimStatus) String() string {
	return s.Display().Label
}

// Terminal reports whether the status admits no further transitions other
// than the rejected -> submitted resubmission edge.
func (s ClaimStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusExpired
}

// MarshalJSON encodes the status as its wire code.
func (s ClaimStatus) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Itoa(s.Wire())), nil
}

// UnmarshalJSON decodes a wire code into the canonical status. The
// backend sometimes quotes numeric fields, so both forms are accepted.
func (s *ClaimStatus) UnmarshalJSON(b []byte) error {
	raw := strings.Trim(string(b), `"`)
	code, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("claim status: %w", err)
	}
	*s = ClaimStatusFromWire(code)
	return nil
}
