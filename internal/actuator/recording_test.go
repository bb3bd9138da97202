package actuator

import (
	"errors"
	"testing"

	"github.com/nerrad567/actioncore/internal/action"
)

func TestRecordingCommander(t *testing.T) {
	r := NewRecordingCommander()

	cmds := []action.Command{
		{Source: 1, Track: action.TrackBody, Name: "drive"},
		{Source: 2, Track: action.TrackHead, Name: "tilt"},
		{Source: 1, Track: action.TrackBody, Name: "stop"},
	}
	for _, c := range cmds {
		if err := r.Emit(c); err != nil {
			t.Fatalf("Emit() error = %v", err)
		}
	}

	if got := r.Commands(); len(got) != 3 || got[2].Name != "stop" {
		t.Errorf("Commands() = %+v", got)
	}
	body := r.OnTrack(action.TrackBody)
	if len(body) != 2 || body[0].Name != "drive" || body[1].Name != "stop" {
		t.Errorf("OnTrack(body) = %+v", body)
	}

	boom := errors.New("boom")
	r.FailWith(boom)
	if err := r.Emit(cmds[0]); !errors.Is(err, boom) {
		t.Errorf("Emit() after FailWith = %v", err)
	}
	if len(r.Commands()) != 3 {
		t.Error("failed emit was recorded")
	}

	r.FailWith(nil)
	r.Reset()
	if len(r.Commands()) != 0 {
		t.Error("Reset() kept commands")
	}
}
