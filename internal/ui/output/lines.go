package output

import "bytes"

// Lines splits streamed task output into lines. Blank lines are dropped and
// line endings are removed.
type Lines struct {
	partial []byte
}

// Feed appends data and returns the lines it completed.
func (l *Lines) Feed(data []byte) []string {
	l.partial = append(l.partial, data...)

	var out []string
	for {
		i := bytes.IndexByte(l.partial, '\n')
		if i < 0 {
			return out
		}
		if line := bytes.TrimSuffix(l.partial[:i], []byte("\r")); len(line) > 0 {
			out = append(out, string(line))
		}
		l.partial = l.partial[i+1:]
	}
}

// Pending returns the unterminated tail.
func (l *Lines) Pending() string {
	return string(l.partial)
}

// Flush returns the unterminated tail and clears it.
func (l *Lines) Flush() (string, bool) {
	if len(l.partial) == 0 {
		return "", false
	}
	rest := string(bytes.TrimSuffix(l.partial, []byte("\r")))
	l.partial = nil
	return rest, rest != ""
}
