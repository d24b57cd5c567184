package thumbshot

import "strconv"

// State is a step of a single capture.
//
// A capture moves Idle, Staging, Rendering, PostProcessing, Encoding in
// that order, then always passes through CleaningUp before ending in Done
// or Failed. CleaningUp is entered from whichever state the capture reached
// and is the only state that restores the element.
type State int

const (
	Idle State = iota
	Staging
	Rendering
	PostProcessing
	Encoding
	CleaningUp
	Done
	Failed
)

var stateNames = [...]string{
	Idle:           "idle",
	Staging:        "staging",
	Rendering:      "rendering",
	PostProcessing: "post-processing",
	Encoding:       "encoding",
	CleaningUp:     "cleaning up",
	Done:           "done",
	Failed:         "failed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "state(" + strconv.Itoa(int(s)) + ")"
}

// Terminal reports whether s ends a capture.
func (s State) Terminal() bool {
	return s == Done || s == Failed
}

// StateObserver receives every state a capture enters, in order.
// It runs on the capturing goroutine and must not block.
type StateObserver func(captureID string, s State)
