package markdown

// HeaderStack is the ordered path of currently-open headings from the
// document root to the most recently seen heading, like a directory path
// through the document outline. Entries hold strictly increasing levels.
type HeaderStack []Header

// Update applies newly observed headings in order and returns the
// resulting stack. The receiver is not modified; callers reassign:
//
//	stack = stack.Update(headers)
//
// For each heading: push when deeper than the top, replace the top when
// at the same level, and when shallower pop every entry at or below that
// level before pushing. An empty update returns an equal stack.
func (s HeaderStack) Update(headers []Header) HeaderStack {
	out := make(HeaderStack, len(s))
	copy(out, s)
	for _, h := range headers {
		switch {
		case len(out) == 0:
			out = append(out, h)
		case h.Level > out[len(out)-1].Level:
			out = append(out, h)
		case h.Level == out[len(out)-1].Level:
			out[len(out)-1] = h
		default:
			for len(out) > 0 && out[len(out)-1].Level >= h.Level {
				out = out[:len(out)-1]
			}
			out = append(out, h)
		}
	}
	return out
}
