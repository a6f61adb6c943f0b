package session

import "errors"

// Sentinel kinds for contest validation. These allow errors.Is/As from
// callers.
var (
	// ErrInvalidContest covers a winner outside the presented pair, a
	// left/right pair that does not name two distinct clusters, or a
	// referenced cluster id unknown to the session. The state is left
	// unchanged and the caller may retry with corrected input.
	ErrInvalidContest = errors.New("invalid contest")
)
