package params

import "sort"

// View is the request-scoped key to value(s) mapping of one submission.
//
// It looks the same whether the submission was url-encoded or multipart.
// Repeated keys keep every value in submission order.
type View struct {
	values map[string][]string
}

// NewView creates an empty view.
func NewView() *View {
	return &View{values: make(map[string][]string)}
}

// Add appends value to the sequence stored for key.
func (v *View) Add(key, value string) {
	v.values[key] = append(v.values[key], value)
}

// Get returns the first value submitted for key.
func (v *View) Get(key string) (string, bool) {
	vals := v.values[key]
	if len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

// GetAll returns a copy of every value submitted for key, in submission order.
// Returns nil for an absent key.
func (v *View) GetAll(key string) []string {
	vals := v.values[key]
	if len(vals) == 0 {
		return nil
	}
	out := make([]string, len(vals))
	copy(out, vals)
	return out
}

// Has reports whether key was submitted at all.
func (v *View) Has(key string) bool {
	_, ok := v.values[key]
	return ok
}

// Keys returns the submitted keys sorted lexically.
func (v *View) Keys() []string {
	keys := make([]string, 0, len(v.values))
	for k := range v.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of distinct keys.
func (v *View) Len() int {
	return len(v.values)
}

// Clear drops every key. The view stays usable.
func (v *View) Clear() {
	clear(v.values)
}
