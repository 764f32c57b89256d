package model

// Phase represents the lifecycle phase of a download job
type Phase string

const (
	// PhaseStarting means the job is registered but the collaborator has not been invoked
	PhaseStarting Phase = "Starting"

	// PhaseDownloading means the collaborator is running
	PhaseDownloading Phase = "Downloading"

	// PhaseFinished means the artifact was produced and published
	PhaseFinished Phase = "Finished"

	// PhaseFailed means every attempt failed
	PhaseFailed Phase = "Failed"
)

// allowedTransitions lists the forward moves of the job state machine.
// Starting may jump straight to a terminal phase when no progress is reported.
var allowedTransitions = map[Phase][]Phase{
	PhaseStarting:    {PhaseDownloading, PhaseFinished, PhaseFailed},
	PhaseDownloading: {PhaseFinished, PhaseFailed},
}

// String returns the string representation of Phase
func (p Phase) String() string {
	return string(p)
}

// IsActive returns true if the job is still running
func (p Phase) IsActive() bool {
	return p == PhaseStarting || p == PhaseDownloading
}

// IsFinished returns true if the phase is terminal (finished or failed)
func (p Phase) IsFinished() bool {
	return p == PhaseFinished || p == PhaseFailed
}

// CanTransition reports whether the state machine allows moving from p to next
func (p Phase) CanTransition(next Phase) bool {
	for _, allowed := range allowedTransitions[p] {
		if allowed == next {
			return true
		}
	}
	return false
}
