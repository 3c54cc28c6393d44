package progress

import (
	"github.com/rescale/msibuild/internal/events"
)

var stepDescriptions = map[string]string{
	"precheck":     "Checking toolchain",
	"cleaning":     "Removing stale artifacts",
	"compiling":    "Compiling installer source",
	"linking":      "Linking installer package",
	"post-cleanup": "Removing intermediate object",
	"reporting":    "Done",
}

// Describe returns the progress text for a pipeline state name.
func Describe(state string) string {
	if d, ok := stepDescriptions[state]; ok {
		return d
	}
	return state
}

// Track drives r from pipeline events until a CompleteEvent arrives or ch is
// closed. The returned channel is closed when tracking ends.
func Track(ch <-chan events.Event, r Reporter) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		started := false
		for ev := range ch {
			switch e := ev.(type) {
			case *events.StateChangeEvent:
				if e.NewState == "aborted" {
					r.Finish()
					continue
				}
				if !started {
					r.Start(Describe(e.NewState))
					started = true
					continue
				}
				r.SetDescription(Describe(e.NewState))
			case *events.CompleteEvent:
				r.Finish()
				return
			}
		}
		r.Finish()
	}()
	return done
}
