package otp

import (
	"context"
	"errors"
)

// Flow is the caller-side verification state machine:
//
//	StateIdle -> StateSent -> StateVerifying -> StateCompleted
//	                    ^----------- mismatch -----------|
//
// A mismatch returns the flow to StateSent so the code can be resubmitted.
// Only one submission runs at a time; a second submit while verifying is a
// no-op, which covers the double-click case.
type Flow struct {
	state State
}

type State string

const (
	StateIdle      State = "IDLE"
	StateSent      State = "OTP_SENT"
	StateVerifying State = "VERIFYING"
	StateCompleted State = "COMPLETED"
)

var (
	ErrFlowState = errors.New("otp: action not valid in current state")
	ErrInFlight  = errors.New("otp: verification already in progress")
)

func NewFlow() *Flow {
	return &Flow{state: StateIdle}
}

func (f *Flow) State() State {
	return f.state
}

// Initiate requests code delivery through send and moves to StateSent.
func (f *Flow) Initiate(ctx context.Context, send func(context.Context) error) error {
	if f.state != StateIdle && f.state != StateSent {
		return ErrFlowState
	}
	if err := send(ctx); err != nil {
		return err
	}
	f.state = StateSent
	return nil
}

// Submit sanitizes raw input and runs verify with it. Invalid input and
// mismatches leave the flow in StateSent for another attempt.
func (f *Flow) Submit(ctx context.Context, raw string, verify func(context.Context, string) error) error {
	switch f.state {
	case StateSent:
	case StateVerifying:
		return ErrInFlight
	default:
		return ErrFlowState
	}

	code, err := NormalizeCode(raw)
	if err != nil {
		return err
	}

	f.state = StateVerifying
	if err := verify(ctx, code); err != nil {
		f.state = StateSent
		return err
	}
	f.state = StateCompleted
	return nil
}

// Reset returns the flow to StateIdle, for reuse after lockout or expiry.
func (f *Flow) Reset() {
	f.state = StateIdle
}
