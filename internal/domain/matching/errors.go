package matching

import "errors"

// Sentinel kinds for matching errors.
var (
	ErrNilRequester = errors.New("requester is required")
	ErrSelectFailed = errors.New("candidate selection failed")
	ErrRecordFailed = errors.New("recording interaction failed")
	ErrNilCandidate = errors.New("candidate is required")
)
