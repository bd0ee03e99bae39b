package slack

// threadWindow keeps the thread root plus the newest messages up to a limit,
// so a long thread still ends with its latest reply.
type threadWindow struct {
	keep    int // newest replies kept besides the root
	root    *Message
	tail    []Message
	dropped int
}

func newThreadWindow(limit int) *threadWindow {
	if limit < 2 {
		limit = 2
	}
	return &threadWindow{keep: limit - 1}
}

func (w *threadWindow) add(m Message) {
	if w.root == nil {
		w.root = &m
		return
	}
	w.tail = append(w.tail, m)
	if len(w.tail) >= 2*w.keep {
		w.compact()
	}
}

func (w *threadWindow) compact() {
	if over := len(w.tail) - w.keep; over > 0 {
		w.tail = append(w.tail[:0:0], w.tail[over:]...)
		w.dropped += over
	}
}

func (w *threadWindow) messages() []Message {
	if w.root == nil {
		return nil
	}
	w.compact()
	out := make([]Message, 0, 1+len(w.tail))
	out = append(out, *w.root)
	return append(out, w.tail...)
}
