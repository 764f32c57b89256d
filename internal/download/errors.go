package download

import (
	"errors"
	"slices"
)

// Input errors returned synchronously by Submit
var (
	ErrMissingURL          = errors.New("url is required")
	ErrUnknownPlatform     = errors.New("could not detect platform from url")
	ErrUnsupportedPlatform = errors.New("unsupported platform")
)

// Notice is returned by Submit for platforms that cannot be downloaded
// automatically. It is informational: no job is created.
type Notice struct {
	Message      string
	Alternatives []string
}

func (n *Notice) Error() string {
	return n.Message
}

// FacebookNotice is the manual path offered for Facebook URLs
func FacebookNotice() *Notice {
	return &Notice{
		Message: "Facebook videos cannot be downloaded directly due to Facebook's restrictions.",
		Alternatives: []string{
			"1. Use a browser extension like 'Video DownloadHelper'",
			"2. Try a dedicated online service like savefrom.net",
			"3. Use the Facebook app to save videos directly",
		},
	}
}

// Failure is the terminal error of a job after the fallback policy gave up
type Failure struct {
	Message      string
	Alternatives []string
	Err          error
}

func (f *Failure) Error() string {
	return f.Message
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func newFailure(message string, alternatives []string, err error) *Failure {
	return &Failure{Message: message, Alternatives: slices.Clone(alternatives), Err: err}
}
