package sh

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/robotalks/rover.go/pkg/l0/msgs"
)

type responseView struct {
	Status msgs.Status            `json:"status"`
	State  int32                  `json:"state"`
	Counts *msgs.MotorCounts      `json:"counts,omitempty"`
	Pose   *msgs.KinematicArmPose `json:"pose,omitempty"`
	Tag    *msgs.ResponseTag      `json:"unknown_tag,omitempty"`
}

// FormatResponse renders a response for display.
func FormatResponse(res *msgs.Response, asJSON bool) (string, error) {
	view := responseView{Status: res.Status, State: res.State}
	switch data := res.Data.(type) {
	case msgs.MotorCountResponse:
		view.Counts = &data.Counts
	case msgs.KinematicArmPoseResponse:
		view.Pose = &data.Pose
	case msgs.UnknownResponse:
		view.Tag = &data.Tag
	}
	if asJSON {
		out, err := json.Marshal(&view)
		return string(out), err
	}

	var w bytes.Buffer
	fmt.Fprintf(&w, "%s", res.Status)
	if view.Counts != nil {
		names := []string{"NW", "NE", "SE", "SW"}
		for n, wheel := range view.Counts.Wheels() {
			fmt.Fprintf(&w, "\n%s count=%d delta=%d", names[n], wheel.Count, wheel.Delta)
		}
	}
	if p := view.Pose; p != nil {
		fmt.Fprintf(&w, "\nlower=%s upper=%s rotation=%s", p.LowerAxis, p.UpperAxis, p.RotationAxis)
		if p.Grip.Valid {
			g := p.Grip.Pose
			fmt.Fprintf(&w, " grip.rotation=%s grip.gripper=%s grip.pitch=%s",
				g.RotationAxis, g.GripperAxis, g.PitchAxis)
		}
	}
	if view.Tag != nil {
		fmt.Fprintf(&w, " unknown data tag %d", *view.Tag)
	}
	return w.String(), nil
}
