package symbols

// Table is a name-keyed registry that remembers insertion order and the file
// each entry was defined in.
type Table[T any] struct {
	keys   []string
	items  map[string]T
	origin map[string]string
}

func NewTable[T any]() *Table[T] {
	return &Table[T]{items: make(map[string]T), origin: make(map[string]string)}
}

// Add inserts or replaces name. Replacing keeps the original position.
func (t *Table[T]) Add(name string, item T, origin string) {
	if _, ok := t.items[name]; !ok {
		t.keys = append(t.keys, name)
	}
	t.items[name] = item
	t.origin[name] = origin
}

func (t *Table[T]) Get(name string) (T, bool) {
	item, ok := t.items[name]
	return item, ok
}

func (t *Table[T]) Has(name string) bool {
	_, ok := t.items[name]
	return ok
}

// Origin is the file name was defined in.
func (t *Table[T]) Origin(name string) string { return t.origin[name] }

func (t *Table[T]) Len() int { return len(t.keys) }

func (t *Table[T]) clone() *Table[T] {
	c := NewTable[T]()
	for _, k := range t.keys {
		c.Add(k, t.items[k], t.origin[k])
	}
	return c
}

// mergeFrom copies entries of other that t lacks, in other's order. An entry
// both tables hold with different origins is a conflict.
func (t *Table[T]) mergeFrom(other *Table[T], conflict func(name, have, got string) error) error {
	for _, k := range other.keys {
		if t.Has(k) {
			if t.origin[k] != other.origin[k] {
				if err := conflict(k, t.origin[k], other.origin[k]); err != nil {
					return err
				}
			}
			continue
		}
		t.Add(k, other.items[k], other.origin[k])
	}
	return nil
}
