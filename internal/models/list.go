package models

const (
	// DefaultLimit is the page size used when a list request does not name one.
	DefaultLimit = 10
	// MaxLimit is the largest page size a list request may ask for.
	MaxLimit = 100
)

// ListOptions selects a page of a filtered collection.
type ListOptions struct {
	Skip  int `json:"skip" validate:"gte=0"`
	Limit int `json:"limit" validate:"gte=1,lte=100"`
}

// DefaultListOptions returns the first page with the default page size.
func DefaultListOptions() ListOptions {
	return ListOptions{Skip: 0, Limit: DefaultLimit}
}

// Window returns the [start, end) bounds of the page within a sequence of n
// records. Both bounds are clamped to n and a non-positive limit selects nothing.
func (o ListOptions) Window(n int) (int, int) {
	start := min(max(o.Skip, 0), n)
	end := start
	if o.Limit > 0 {
		end = n
		if o.Limit < n-start {
			end = start + o.Limit
		}
	}
	return start, end
}
