package session

// TrimPolicy bounds a session's history with a sliding window over
// whole turns. Only the newest MaxTurns turns survive; older turns are
// dropped outright, with no summarization.
type TrimPolicy struct {
	MaxTurns int
}

// Apply trims the session in place. MaxTurns of zero keeps nothing,
// which degrades the assistant to stateless single-shot replies.
// Negative values are treated as zero.
func (p TrimPolicy) Apply(s *Session) {
	max := p.MaxTurns
	if max < 0 {
		max = 0
	}
	if len(s.Turns) <= max {
		return
	}
	kept := make([]Turn, max)
	copy(kept, s.Turns[len(s.Turns)-max:])
	s.Turns = kept
}
