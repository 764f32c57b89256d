package model

import "testing"

func TestPhase_IsActive(t *testing.T) {
	tests := []struct {
		phase    Phase
		expected bool
	}{
		{PhaseStarting, true},
		{PhaseDownloading, true},
		{PhaseFinished, false},
		{PhaseFailed, false},
	}

	for _, test := range tests {
		result := test.phase.IsActive()
		if result != test.expected {
			t.Errorf("Phase(%s).IsActive() = %v, expected %v", test.phase, result, test.expected)
		}
	}
}

func TestPhase_IsFinished(t *testing.T) {
	tests := []struct {
		phase    Phase
		expected bool
	}{
		{PhaseStarting, false},
		{PhaseDownloading, false},
		{PhaseFinished, true},
		{PhaseFailed, true},
	}

	for _, test := range tests {
		result := test.phase.IsFinished()
		if result != test.expected {
			t.Errorf("Phase(%s).IsFinished() = %v, expected %v", test.phase, result, test.expected)
		}
	}
}

func TestPhase_CanTransition(t *testing.T) {
	tests := []struct {
		from, to Phase
		expected bool
	}{
		{PhaseStarting, PhaseDownloading, true},
		{PhaseStarting, PhaseFinished, true},
		{PhaseStarting, PhaseFailed, true},
		{PhaseDownloading, PhaseFinished, true},
		{PhaseDownloading, PhaseFailed, true},
		{PhaseDownloading, PhaseStarting, false},
		{PhaseDownloading, PhaseDownloading, false},
		{PhaseFinished, PhaseFailed, false},
		{PhaseFinished, PhaseDownloading, false},
		{PhaseFailed, PhaseFinished, false},
	}

	for _, test := range tests {
		result := test.from.CanTransition(test.to)
		if result != test.expected {
			t.Errorf("Phase(%s).CanTransition(%s) = %v, expected %v", test.from, test.to, result, test.expected)
		}
	}
}

func TestPhase_String(t *testing.T) {
	phase := PhaseDownloading
	expected := "Downloading"
	result := phase.String()

	if result != expected {
		t.Errorf("Phase.String() = %s, expected %s", result, expected)
	}
}
