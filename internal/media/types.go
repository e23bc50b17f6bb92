package media

// Info describes the probed source container.
type Info struct {
	Duration float64 // seconds
}
