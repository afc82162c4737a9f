package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUIStateZeroValueIsLanding(t *testing.T) {
	var s UIState
	assert.Equal(t, UIStateLanding, s)
	assert.True(t, s.Valid())
	assert.Equal(t, "landing", s.String())
}

func TestUIStateNavigationIsClosed(t *testing.T) {
	seen := map[UIState]bool{}
	queue := []UIState{UIStateLanding}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		assert.True(t, cur.Valid(), "reached undefined state %d", cur)
		queue = append(queue, cur.Transitions()...)
	}
	assert.Len(t, seen, 3)
}

func TestUIStateTransitions(t *testing.T) {
	assert.True(t, UIStateLanding.CanTransition(UIStateUpload))
	assert.True(t, UIStateLanding.CanTransition(UIStateWebcam))
	assert.True(t, UIStateUpload.CanTransition(UIStateLanding))
	assert.True(t, UIStateWebcam.CanTransition(UIStateLanding))

	assert.False(t, UIStateUpload.CanTransition(UIStateWebcam))
	assert.False(t, UIStateWebcam.CanTransition(UIStateUpload))
	assert.False(t, UIStateLanding.CanTransition(UIStateLanding))

	edges := 0
	for _, s := range AllUIStates() {
		edges += len(s.Transitions())
	}
	assert.Equal(t, 4, edges)
}

func TestParseUIState(t *testing.T) {
	tests := []struct {
		in   string
		want UIState
		ok   bool
	}{
		{"landing", UIStateLanding, true},
		{"Upload", UIStateUpload, true},
		{" webcam ", UIStateWebcam, true},
		{"admin", UIStateLanding, false},
		{"", UIStateLanding, false},
	}
	for _, tc := range tests {
		got, ok := ParseUIState(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	assert.False(t, UIState(7).Valid())
}

func TestSummarize(t *testing.T) {
	dets := []Detection{
		{Label: LabelFocus, Confidence: 0.9},
		{Label: LabelUnfocus, Confidence: 0.4},
		{Label: LabelFocus, Confidence: 0.6},
		{Label: "phone", Confidence: 0.3},
	}

	s := Summarize(dets)
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 2, s.Focus())
	assert.Equal(t, 1, s.Unfocus())
	assert.Equal(t, 0, s.Count("laptop"))
	assert.Equal(t, []string{"focus", "phone", "unfocus"}, s.Labels())

	empty := Summarize(nil)
	assert.Equal(t, 0, empty.Total)
	assert.Empty(t, empty.Labels())
}
