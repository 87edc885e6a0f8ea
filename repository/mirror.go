package repository

// LocalMirror is a synchronous durable key-value store holding string values.
// Get reports absence with ok=false rather than an error.
type LocalMirror interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Remove(key string) error
}
