package ai

import "errors"

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrEmptyResponse indicates the provider answered without any choice.
var ErrEmptyResponse = errors.New("ai returned no choices")

// ErrToolRoundsExhausted indicates the model kept calling tools after the
// last allowed round.
var ErrToolRoundsExhausted = errors.New("ai tool rounds exhausted")
