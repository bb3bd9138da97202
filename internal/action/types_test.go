package action

import (
	"errors"
	"testing"
)

func TestParsePosition(t *testing.T) {
	for p := PositionNow; p <= PositionInParallel; p++ {
		got, err := ParsePosition(p.String())
		if err != nil || got != p {
			t.Errorf("ParsePosition(%q) = %v, %v", p.String(), got, err)
		}
	}
	if _, err := ParsePosition("sideways"); !errors.Is(err, ErrInvalidPosition) {
		t.Errorf("ParsePosition(sideways) error = %v, want ErrInvalidPosition", err)
	}
}

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state State
		want  bool
	}{
		{StateNotStarted, false},
		{StateInitializing, false},
		{StateRunning, false},
		{StateSuccess, true},
		{StateFailure, true},
		{StateAborted, true},
		{StateCancelled, true},
	}
	for _, tt := range tests {
		if got := tt.state.IsTerminal(); got != tt.want {
			t.Errorf("%s.IsTerminal() = %v, want %v", tt.state, got, tt.want)
		}
	}
}

func TestCompletionRecord_Err(t *testing.T) {
	tests := []struct {
		rec  CompletionRecord
		want error
	}{
		{CompletionRecord{State: StateSuccess}, nil},
		{CompletionRecord{State: StateCancelled}, ErrCancelled},
		{CompletionRecord{State: StateAborted}, ErrAborted},
		{CompletionRecord{State: StateFailure, Failure: FailureInitFailed}, ErrInitFailed},
		{CompletionRecord{State: StateFailure, Failure: FailureRunFailed}, ErrRunFailed},
		{CompletionRecord{State: StateFailure, Failure: FailureTimeout}, ErrTimeout},
	}
	for _, tt := range tests {
		if err := tt.rec.Err(); !errors.Is(err, tt.want) {
			t.Errorf("Err() for %s/%s = %v, want %v", tt.rec.State, tt.rec.Failure, err, tt.want)
		}
	}
	if err := (CompletionRecord{State: StateRunning}).Err(); err == nil {
		t.Error("Err() for a running record = nil")
	}
}
