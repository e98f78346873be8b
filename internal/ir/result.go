package ir

// Result is what an event store client returns for an executed request.
type Result struct {
	OK       bool     `json:"ok"`
	Message  string   `json:"message,omitempty"`
	IDs      []string `json:"ids,omitempty"`
	Rows     []Map    `json:"rows,omitempty"`
	Affected int64    `json:"affected"`
}

// UserConfig is the per-user connection configuration set with /config.
// An empty Base means the local store is used.
type UserConfig struct {
	API     string `json:"api,omitempty"`
	Base    string `json:"base,omitempty"`
	Timeout int64  `json:"timeout,omitempty"` // seconds
	Retries int64  `json:"retries,omitempty"`
}

// Merge returns c with every non-zero field of other applied on top.
func (c UserConfig) Merge(other UserConfig) UserConfig {
	if other.API != "" {
		c.API = other.API
	}
	if other.Base != "" {
		c.Base = other.Base
	}
	if other.Timeout != 0 {
		c.Timeout = other.Timeout
	}
	if other.Retries != 0 {
		c.Retries = other.Retries
	}
	return c
}

// Remote reports whether requests go to a remote event store.
func (c UserConfig) Remote() bool {
	return c.Base != ""
}
