package session

// ExportInput exposes the resolver input of a state to external tests.
func ExportInput(s *State) Input {
	return s.input()
}
