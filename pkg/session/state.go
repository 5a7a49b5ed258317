package session

// State is the request-scoped view of a session. It is created by
// Manager.Load, mutated by the handler and consumed once by
// Manager.Finalize.
//
// Only explicit calls (Set, Delete, Update, Regenerate) mark the session as
// changed. Mutating the map returned by Data in place does not, and such a
// request only refreshes the expiry of the stored record. This keeps the
// default cost of a request to a single expiry update.
type State struct {
	id           string
	originalID   string
	data         Values
	originalData Values
	changed      bool
	finalized    bool
}

// NewState returns a state snapshot for id and the payload loaded for it.
// An empty id means the request carried no verifiable session.
func NewState(id string, data Values) *State {
	return &State{
		id:           id,
		originalID:   id,
		data:         data,
		originalData: data,
	}
}

// ID returns the current session id. It is empty for a new session and
// after Regenerate until the state is finalized.
func (s *State) ID() string {
	return s.id
}

// Data returns the current payload, nil when there is none.
func (s *State) Data() Values {
	return s.data
}

// IsNew reports whether the request arrived without a stored session.
func (s *State) IsNew() bool {
	return s.originalData == nil
}

// Changed reports whether an explicit update was requested.
func (s *State) Changed() bool {
	return s.changed
}

// Get retrieves a value from the payload.
func (s *State) Get(key string) (any, bool) {
	if s.data == nil {
		return nil, false
	}
	v, ok := s.data[key]
	return v, ok
}

// GetString retrieves a string value from the payload.
func (s *State) GetString(key string) (string, bool) {
	v, ok := s.Get(key)
	if !ok {
		return "", false
	}
	str, ok := v.(string)
	return str, ok
}

// Set stores key in a copy of the payload and marks the session changed.
func (s *State) Set(key string, value any) {
	next := s.data.Clone()
	if next == nil {
		next = make(Values, 1)
	}
	next[key] = value
	s.Update(next)
}

// Delete removes key from a copy of the payload and marks the session changed.
func (s *State) Delete(key string) {
	if _, ok := s.data[key]; !ok {
		return
	}
	next := s.data.Clone()
	delete(next, key)
	s.Update(next)
}

// Update replaces the payload. Passing nil is equivalent to Destroy.
//
// A cookie whose record no longer exists is never reused: writing to such a
// session issues a fresh id.
func (s *State) Update(data Values) {
	s.id = s.originalID
	if s.originalData == nil {
		s.id = ""
	}
	s.data = data
	s.changed = data != nil
}

// Touch discards pending changes so that only the expiry is refreshed.
func (s *State) Touch() {
	s.id = s.originalID
	s.data = s.originalData
	s.changed = false
}

// Destroy removes the session and clears the cookie.
func (s *State) Destroy() {
	s.id = s.originalID
	s.data = nil
	s.changed = false
}

// Regenerate drops the current id; a fresh one is issued on finalize and the
// old record is destroyed. A nil data carries the current payload over.
func (s *State) Regenerate(data Values) {
	if data != nil {
		s.data = data
	}
	s.id = ""
	s.changed = s.data != nil
}

func (s *State) input() Input {
	return Input{
		OriginalID:   s.originalID,
		OriginalData: s.originalData,
		CurrentID:    s.id,
		CurrentData:  s.data,
		Changed:      s.changed,
	}
}
