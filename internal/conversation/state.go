package conversation

// State is the mutable part of one conversation: the cursor into the
// question sequence and the answers accepted so far.
type State struct {
	total   int
	cursor  int
	answers Answers
}

// NewState creates the initial state for a sequence of total questions
func NewState(total int) *State {
	return &State{
		total:   total,
		answers: make(Answers, total),
	}
}

// Cursor returns the index of the question awaiting an answer
func (s *State) Cursor() int {
	return s.cursor
}

// Total returns the number of questions in the sequence
func (s *State) Total() int {
	return s.total
}

// Complete reports whether every question has been answered
func (s *State) Complete() bool {
	return s.cursor >= s.total
}

// Record stores value under id and advances the cursor by one.
// An id is written at most once per conversation.
func (s *State) Record(id string, value any) error {
	if s.Complete() {
		return ErrInputIgnored
	}
	if _, exists := s.answers[id]; exists {
		return ErrAlreadyAnswered
	}
	s.answers[id] = value
	s.cursor++
	return nil
}

// Answers returns a copy of the accepted answers
func (s *State) Answers() Answers {
	out := make(Answers, len(s.answers))
	for k, v := range s.answers {
		out[k] = v
	}
	return out
}

// Len returns the number of accepted answers
func (s *State) Len() int {
	return len(s.answers)
}

// Reset returns the state to cursor 0 with no answers
func (s *State) Reset() {
	s.cursor = 0
	s.answers = make(Answers, s.total)
}
