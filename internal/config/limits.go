package config

const (
	// MaxRequestBodyBytes caps decision API request bodies.
	// Check and status requests are a handful of short fields.
	MaxRequestBodyBytes = 64 << 10

	// MaxResourceIDLength is the maximum length of a resource id passed to a check.
	// Ids are integers or UUIDs; anything longer is not a row key.
	MaxResourceIDLength = 64
)
