package printer

// Raw bytes received in answer to a query. A reply of the wrong length is
// still returned so callers can decide how much they care.
type Reply struct {
	Command Command
	Data    []byte
}

func DecodeReply(c Command, raw []byte) Reply {
	return Reply{
		Command: c,
		Data:    append([]byte{}, raw...),
	}
}

func (r Reply) Expected() int {
	return r.Command.ResponseLength()
}

// A *LengthError if the reply length doesn't match the query, nil otherwise.
func (r Reply) Err() error {
	if len(r.Data) != r.Expected() {
		return &LengthError{Command: r.Command, Got: len(r.Data), Want: r.Expected()}
	}
	return nil
}

func (r Reply) UnexpectedLength() bool {
	return r.Err() != nil
}
