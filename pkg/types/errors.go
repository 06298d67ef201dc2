package types

import (
	"errors"
	"fmt"
)

// Fetch error codes.
const (
	FetchNotFound = "NOT_FOUND"
	FetchRPCError = "RPC_ERROR"
	FetchTimeout  = "TIMEOUT"
)

// FetchError represents a failure to retrieve a transaction.
type FetchError struct {
	Code      string
	Signature string
	Message   string
	Err       error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v (%s)", e.Signature, e.Message, e.Err, e.Code)
	}
	return fmt.Sprintf("fetch %s: %s (%s)", e.Signature, e.Message, e.Code)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Decode error codes.
const (
	DecodeUnsupported = "UNSUPPORTED"
	DecodeSwapFailed  = "SWAP_FAILED"
	DecodeMalformed   = "MALFORMED"
)

// DecodeError represents a failure to extract a swap from a fetched
// transaction. Unsupported and SwapFailed are expected conditions;
// Malformed indicates structurally bad data.
type DecodeError struct {
	Code      string
	Venue     Venue
	Signature string
	Message   string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s (%s): %s (%s)", e.Signature, e.Venue, e.Message, e.Code)
}

// IsDecodeCode reports whether err wraps a *DecodeError carrying the code.
func IsDecodeCode(err error, code string) bool {
	var de *DecodeError
	return errors.As(err, &de) && de.Code == code
}

// IsFetchCode reports whether err wraps a *FetchError carrying the code.
func IsFetchCode(err error, code string) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Code == code
}
