package agent

// Memory is the conversation history shared across runs of one session.
// It is read at the start of a run and appended to at the end; there is no
// concurrent mutation (single active query per session), so no locking.
type Memory struct {
	turns []ConversationTurn
}

// NewMemory returns an empty conversation memory.
func NewMemory() *Memory {
	return &Memory{}
}

// NewMemoryFromTurns seeds a memory from previously persisted turns.
func NewMemoryFromTurns(turns []ConversationTurn) *Memory {
	m := &Memory{}
	m.turns = append(m.turns, turns...)
	return m
}

// Append adds one turn.
func (m *Memory) Append(role Role, content string) {
	m.turns = append(m.turns, ConversationTurn{Role: role, Content: content})
}

// Turns returns an independent copy of the history. Mutating the returned
// slice must not affect internal state, so callers always get a fresh copy.
func (m *Memory) Turns() []ConversationTurn {
	out := make([]ConversationTurn, len(m.turns))
	copy(out, m.turns)
	return out
}

// Len reports the number of turns.
func (m *Memory) Len() int { return len(m.turns) }

// Reset clears the history.
func (m *Memory) Reset() { m.turns = nil }
