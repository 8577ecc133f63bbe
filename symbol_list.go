package ion

// symbolList is the ordered sequence of symbol texts owned by one table
// together with its reverse index. Both views are updated by the same
// methods so they cannot drift apart.
type symbolList struct {
	texts []string
	index map[string]int   // text -> position of its first occurrence
	gaps  map[int]struct{} // positions whose text is unknown
}

func newSymbolList(capacity int) symbolList {
	return symbolList{
		texts: make([]string, 0, capacity),
		index: make(map[string]int, capacity),
	}
}

// add appends text and returns its position. A duplicate text gets a new
// position but lookups keep resolving to the first one.
func (l *symbolList) add(text string) int {
	pos := len(l.texts)
	l.texts = append(l.texts, text)
	if l.index == nil {
		l.index = make(map[string]int)
	}
	if _, ok := l.index[text]; !ok {
		l.index[text] = pos
	}
	return pos
}

// addGap appends a position with unknown text.
func (l *symbolList) addGap() int {
	pos := len(l.texts)
	l.texts = append(l.texts, "")
	if l.gaps == nil {
		l.gaps = make(map[int]struct{})
	}
	l.gaps[pos] = struct{}{}
	return pos
}

func (l *symbolList) find(text string) (int, bool) {
	pos, ok := l.index[text]
	return pos, ok
}

func (l *symbolList) text(pos int) (string, bool) {
	if pos < 0 || pos >= len(l.texts) {
		return "", false
	}
	if _, gap := l.gaps[pos]; gap {
		return "", false
	}
	return l.texts[pos], true
}

func (l *symbolList) len() int { return len(l.texts) }

// snapshot returns a copy of the texts; gaps appear as empty strings.
func (l *symbolList) snapshot() []string {
	out := make([]string, len(l.texts))
	copy(out, l.texts)
	return out
}
