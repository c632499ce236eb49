package ssq

import "errors"

var (
	// ErrNoEndpoint is returned when none of the candidate addresses could be connected.
	ErrNoEndpoint = errors.New("no endpoint available to communicate with the server")

	// ErrTimeout is returned when a send or receive deadline expires.
	ErrTimeout = errors.New("query timed out")

	// ErrSystem wraps an underlying OS or network failure.
	ErrSystem = errors.New("system error")

	// ErrTruncated is returned when a buffer holds fewer bytes than a decode step needs.
	ErrTruncated = errors.New("truncated data")

	// ErrInvalidResponse is returned for an unknown packet header or response tag.
	ErrInvalidResponse = errors.New("invalid response")

	// ErrBadResponse is returned when fragments of one response disagree or are out of range.
	ErrBadResponse = errors.New("bad response")

	// ErrUnsupported is returned when the server sends a compressed response.
	ErrUnsupported = errors.New("unsupported response")

	// ErrChallengeLoop is returned when the server keeps answering with a challenge.
	ErrChallengeLoop = errors.New("challenge retry limit exceeded")
)
