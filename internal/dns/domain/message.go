package domain

// Message is a complete DNS message. It is treated as an immutable value:
// code that wants to change a Message works on a Clone.
type Message struct {
	Header     Header
	Questions  []Question
	Answers    []ResourceRecord
	Authority  []ResourceRecord
	Additional []ResourceRecord
}

// Clone returns a deep copy of m that shares no slices with it.
func (m Message) Clone() Message {
	return Message{
		Header:     m.Header,
		Questions:  cloneSlice(m.Questions),
		Answers:    cloneSlice(m.Answers),
		Authority:  cloneSlice(m.Authority),
		Additional: cloneSlice(m.Additional),
	}
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}

// SyncCounts returns a copy of m whose header counts match its sections.
func (m Message) SyncCounts() Message {
	out := m.Clone()
	out.Header.QDCount = uint16(len(m.Questions))
	out.Header.ANCount = uint16(len(m.Answers))
	out.Header.NSCount = uint16(len(m.Authority))
	out.Header.ARCount = uint16(len(m.Additional))
	return out
}

// FirstQuestion returns the first question of m, if any.
func (m Message) FirstQuestion() (Question, bool) {
	if len(m.Questions) == 0 {
		return Question{}, false
	}
	return m.Questions[0], true
}

// NewErrorResponse synthesizes a SERVFAIL reply for m. The id and opcode
// are kept; every other flag, every count and every section is cleared.
// Applying it to its own output yields the same message.
func NewErrorResponse(m Message) Message {
	return Message{
		Header: Header{
			ID:     m.Header.ID,
			QR:     true,
			Opcode: m.Header.Opcode,
			RCode:  RCodeServFail,
		},
	}
}
