package domain

import "errors"

// Sentinel errors used across layers. None of them is fatal to the
// process: the alarm must keep trying to ring even when speech or
// playback misbehave.
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrSpeechFailure       = errors.New("speech process failure")
	ErrPlaybackUnavailable = errors.New("playback unavailable")
	ErrNotFound            = errors.New("not found")
	ErrUnknownAction       = errors.New("unknown action")
)
