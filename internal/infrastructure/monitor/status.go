package monitor

import "time"

type Status struct {
	RemoteConfigured bool           `json:"remote_configured"`
	Remote           bool           `json:"remote"`
	Mirror           bool           `json:"mirror"`
	MirrorSize       int            `json:"mirror_size"`
	MirrorDetails    map[string]any `json:"mirror_details,omitempty"`
	LastCheck        time.Time      `json:"last_check"`
}

// Mode names the backend that writes currently go to.
func (s Status) Mode() string {
	if s.RemoteConfigured && s.Remote {
		return "remote"
	}
	return "local"
}
