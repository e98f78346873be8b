package ir

// Options is a sealed interface over the two option shapes.
// CreateOptions carries a structured signed check and a saving rule;
// QueryOptions (get, update, delete) carries a plain isSigned flag.
type Options interface {
	options()
	Page() Paging
}

// Sort orders.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// Duplicate actions for SavingRule.OnDuplicate.
const (
	OnDuplicateIgnore = "ignore"
	OnDuplicateUpdate = "update"
	OnDuplicateError  = "error"
)

// ValidOnDuplicate defines allowed duplicate actions.
var ValidOnDuplicate = map[string]bool{
	OnDuplicateIgnore: true,
	OnDuplicateUpdate: true,
	OnDuplicateError:  true,
}

// Paging holds the options every command shares.
// Limit -1 means unbounded.
type Paging struct {
	Limit     int64  `json:"limit"`
	Offset    int64  `json:"offset"`
	SortBy    string `json:"sortBy"`
	SortOrder string `json:"sortOrder"`
}

// SignedCheck controls ownership for created events.
type SignedCheck struct {
	Check      bool `json:"check"`
	CreateUser bool `json:"createUser"`
	Strict     bool `json:"strict"`
}

// SavingRule is the create-time deduplication policy.
// TimeBetweenDuplicates is in seconds; 0 disables duplicate checks.
type SavingRule struct {
	TimeBetweenDuplicates int64    `json:"timeBetweenDuplicates"`
	UniquenessFields      []string `json:"uniquenessFields"`
	OnDuplicate           string   `json:"onDuplicate"`
}

// Checking reports whether duplicate detection is active.
func (s SavingRule) Checking() bool {
	return s.TimeBetweenDuplicates != 0
}

// CreateOptions are the options of a create request.
type CreateOptions struct {
	Paging
	IsSigned   SignedCheck `json:"isSigned"`
	SavingRule SavingRule  `json:"savingRule"`
}

func (CreateOptions) options() {}

// Page returns the paging options.
func (o CreateOptions) Page() Paging { return o.Paging }

// QueryOptions are the options of get, update and delete requests.
type QueryOptions struct {
	Paging
	IsSigned bool `json:"isSigned"`
}

func (QueryOptions) options() {}

// Page returns the paging options.
func (o QueryOptions) Page() Paging { return o.Paging }

// Signed reports whether the options restrict or stamp ownership.
func Signed(o Options) bool {
	switch v := o.(type) {
	case CreateOptions:
		return v.IsSigned.Check
	case QueryOptions:
		return v.IsSigned
	default:
		return false
	}
}
