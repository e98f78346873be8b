package ir

// Version constants for the request wire format and the binary.
const (
	// RequestVersion is the compiled request schema version.
	RequestVersion = "1"

	// Version is the loomcal release version.
	Version = "0.3.0"
)
