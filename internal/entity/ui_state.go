package entity

import "strings"

// UIState is the active view of a session. The zero value is Landing.
type UIState uint8

const (
	UIStateLanding UIState = 0
	UIStateUpload  UIState = 1
	UIStateWebcam  UIState = 2
)

var UIStateMap = map[UIState]string{
	UIStateLanding: "landing",
	UIStateUpload:  "upload",
	UIStateWebcam:  "webcam",
}

// uiTransitions lists the views reachable from each view by a button.
var uiTransitions = map[UIState][]UIState{
	UIStateLanding: {UIStateUpload, UIStateWebcam},
	UIStateUpload:  {UIStateLanding},
	UIStateWebcam:  {UIStateLanding},
}

func AllUIStates() []UIState {
	return []UIState{UIStateLanding, UIStateUpload, UIStateWebcam}
}

func (s UIState) String() string {
	return UIStateMap[s]
}

func (s UIState) Value() uint8 {
	return uint8(s)
}

func (s UIState) Valid() bool {
	_, ok := UIStateMap[s]
	return ok
}

func (s UIState) Transitions() []UIState {
	next := uiTransitions[s]
	out := make([]UIState, len(next))
	copy(out, next)
	return out
}

func (s UIState) CanTransition(to UIState) bool {
	for _, next := range uiTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

func ParseUIState(name string) (UIState, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for state, s := range UIStateMap {
		if s == name {
			return state, true
		}
	}
	return UIStateLanding, false
}
