package form

// Entry is one validation failure. Element is empty for form-level entries
// contributed by business rules.
type Entry struct {
	Element string   `json:"element,omitempty"`
	ID      string   `json:"id,omitempty"`
	Key     string   `json:"key"`
	Args    []string `json:"args,omitempty"`
}

// Status collects the validation failures of one submit in traversal order.
type Status struct {
	entries []Entry
}

// NewStatus creates an empty status.
func NewStatus() *Status {
	return &Status{}
}

// Add records a failure for el and sets the error on the element itself.
func (s *Status) Add(el Element, key string, args ...string) {
	b := el.Common()
	b.SetError(key, args...)
	s.entries = append(s.entries, Entry{Element: el.Name(), ID: b.ID(), Key: key, Args: args})
}

// AddForm records a failure that belongs to no single element.
func (s *Status) AddForm(key string, args ...string) {
	s.entries = append(s.entries, Entry{Key: key, Args: args})
}

// Entries returns a copy of the entries.
func (s *Status) Entries() []Entry {
	if s == nil {
		return nil
	}
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of entries.
func (s *Status) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Valid reports whether no entry was recorded.
func (s *Status) Valid() bool {
	return s.Len() == 0
}

// Has reports whether the named element failed.
func (s *Status) Has(element string) bool {
	if s == nil {
		return false
	}
	for _, e := range s.entries {
		if e.Element == element {
			return true
		}
	}
	return false
}
