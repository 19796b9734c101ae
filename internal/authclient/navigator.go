package authclient

import "sync"

// Navigator abstracts "send the user somewhere else". In the browser-facing
// server it becomes an HTTP redirect; in the CLI it prints the portal URL;
// outside an interactive context it is a no-op.
type Navigator interface {
	Navigate(url string)
}

// NavigatorFunc adapts a function to the Navigator interface
type NavigatorFunc func(url string)

func (f NavigatorFunc) Navigate(url string) {
	f(url)
}

// NopNavigator ignores navigation requests. It is the default for contexts
// with no browser to drive.
type NopNavigator struct{}

func (NopNavigator) Navigate(string) {}

// RecordingNavigator captures navigation targets for inspection
type RecordingNavigator struct {
	mu      sync.Mutex
	targets []string
}

func (r *RecordingNavigator) Navigate(url string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.targets = append(r.targets, url)
}

// Targets returns the navigation targets recorded so far
func (r *RecordingNavigator) Targets() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.targets))
	copy(out, r.targets)
	return out
}

// Last returns the most recent navigation target, or "" if none
func (r *RecordingNavigator) Last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.targets) == 0 {
		return ""
	}
	return r.targets[len(r.targets)-1]
}
