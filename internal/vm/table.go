package vm

// tableMaxLoad is the load factor threshold that triggers a grow-and-rehash.
const tableMaxLoad = 0.75

// tableEntry is one slot of a Table. A tombstone is represented by a nil Key
// with Value set to Bool(true); it participates in probing but is
// overwritten on insert.
type tableEntry struct {
	Key   *ObjString
	Value Value
}

// Table is an open-addressed, linearly-probed hash map from interned
// strings to Values. It backs globals, class method/field tables, and (with
// its Value slot unused) the VM's string intern table.
type Table struct {
	count    int
	entries  []tableEntry
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{}
}

func (t *Table) capacity() int { return len(t.entries) }

// findEntry returns the slot key should occupy: the first tombstone seen,
// else the first truly empty slot, scanning by pointer identity (keys are
// always canonical interned strings once inside a Table).
func findEntry(entries []tableEntry, key *ObjString) *tableEntry {
	capacity := len(entries)
	index := int(key.Hash) % capacity
	var tombstone *tableEntry
	for {
		e := &entries[index]
		if e.Key == nil {
			if e.Value.IsNil() {
				if tombstone != nil {
					return tombstone
				}
				return e
			}
			if tombstone == nil {
				tombstone = e
			}
		} else if e.Key == key {
			return e
		}
		index = (index + 1) % capacity
	}
}

func (t *Table) grow(capacity int) {
	if capacity < 8 {
		capacity = 8
	}
	newEntries := make([]tableEntry, capacity)
	t.count = 0
	for _, e := range t.entries {
		if e.Key == nil {
			continue
		}
		dest := findEntry(newEntries, e.Key)
		dest.Key = e.Key
		dest.Value = e.Value
		t.count++
	}
	t.entries = newEntries
}

// Get looks up key, reporting whether it was present.
func (t *Table) Get(key *ObjString) (Value, bool) {
	if t.count == 0 && t.capacity() == 0 {
		return Value{}, false
	}
	e := findEntry(t.entries, key)
	if e.Key == nil {
		return Value{}, false
	}
	return e.Value, true
}

// Set stores value under key, returning true if key was not already present.
func (t *Table) Set(key *ObjString, value Value) bool {
	if float64(t.count+1) > float64(t.capacity())*tableMaxLoad {
		t.grow(t.capacity() * 2)
	}
	e := findEntry(t.entries, key)
	isNew := e.Key == nil
	if isNew && e.Value.IsNil() {
		t.count++
	}
	e.Key = key
	e.Value = value
	return isNew
}

// Delete removes key, leaving a tombstone so later probes still find keys
// that hashed past it. Reports whether key was present.
func (t *Table) Delete(key *ObjString) bool {
	if t.count == 0 {
		return false
	}
	e := findEntry(t.entries, key)
	if e.Key == nil {
		return false
	}
	e.Key = nil
	e.Value = BoolVal(true)
	return true
}

// AddAll copies every entry of from into to (used by OP_INHERIT to copy a
// superclass's method table into a subclass's).
func (from *Table) AddAll(to *Table) {
	for _, e := range from.entries {
		if e.Key != nil {
			to.Set(e.Key, e.Value)
		}
	}
}

// FindString looks up a string by content (hash + byte equality) rather
// than by pointer identity — the one place identity isn't already
// guaranteed, since this is how the intern table decides whether a freshly
// scanned or concatenated string already has a canonical object.
func (t *Table) FindString(chars string, hash uint32) *ObjString {
	if t.capacity() == 0 {
		return nil
	}
	capacity := t.capacity()
	index := int(hash) % capacity
	for {
		e := &t.entries[index]
		if e.Key == nil {
			if e.Value.IsNil() {
				return nil
			}
		} else if e.Key.Hash == hash && e.Key.Chars == chars {
			return e.Key
		}
		index = (index + 1) % capacity
	}
}

// RemoveWhite deletes every entry whose key object is unmarked — a GC sweep
// hook so interning doesn't keep otherwise-garbage strings alive forever.
func (t *Table) RemoveWhite() {
	for i := range t.entries {
		e := &t.entries[i]
		if e.Key != nil && !isMarked(e.Key) {
			e.Key = nil
			e.Value = BoolVal(true)
		}
	}
}

// Mark marks every key and value in the table as a GC root contribution.
func (t *Table) Mark(gc *GC) {
	for _, e := range t.entries {
		if e.Key != nil {
			gc.markObject(e.Key)
			gc.markValue(e.Value)
		}
	}
}

// Range calls fn for every live entry, in slot order.
func (t *Table) Range(fn func(key *ObjString, value Value)) {
	for _, e := range t.entries {
		if e.Key != nil {
			fn(e.Key, e.Value)
		}
	}
}
