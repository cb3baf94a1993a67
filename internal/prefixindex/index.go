package prefixindex

import (
	"slices"
	"sync"
)

// node edges are single bytes so names that are not valid UTF-8 survive a
// round trip. Byte order matches rune order for valid UTF-8.
type node struct {
	children map[byte]*node
	terminal bool
}

func (n *node) child(b byte) *node {
	if n.children == nil {
		return nil
	}
	return n.children[b]
}

// sortedKeys returns the child edges in ascending order.
func (n *node) sortedKeys() []byte {
	keys := make([]byte, 0, len(n.children))
	for b := range n.children {
		keys = append(keys, b)
	}
	slices.Sort(keys)
	return keys
}

// Index is a character trie over filenames. The zero value is ready to use and
// safe for concurrent use.
type Index struct {
	mu    sync.RWMutex
	root  node
	count int
}

// New returns an empty index.
func New() *Index {
	return &Index{}
}

// FromNames builds an index holding every name in names.
func FromNames(names []string) *Index {
	idx := New()
	for _, name := range names {
		idx.Insert(name)
	}
	return idx
}

// Insert adds filename to the index. Inserting the same name twice leaves the
// index unchanged. Empty names are ignored.
func (i *Index) Insert(filename string) {
	if filename == "" {
		return
	}
	i.mu.Lock()
	defer i.mu.Unlock()

	current := &i.root
	for k := 0; k < len(filename); k++ {
		b := filename[k]
		next := current.child(b)
		if next == nil {
			if current.children == nil {
				current.children = make(map[byte]*node)
			}
			next = &node{}
			current.children[b] = next
		}
		current = next
	}
	if !current.terminal {
		current.terminal = true
		i.count++
	}
}

// Len reports the number of distinct filenames stored.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.count
}

// Contains reports whether filename was inserted.
func (i *Index) Contains(filename string) bool {
	if filename == "" {
		return false
	}
	i.mu.RLock()
	defer i.mu.RUnlock()
	n := i.find(filename)
	return n != nil && n.terminal
}

// SearchAutocomplete returns every inserted filename that starts with prefix,
// in lexicographic rune order. An empty prefix returns all filenames. When no
// filename matches, the result is an empty, non-nil slice.
func (i *Index) SearchAutocomplete(prefix string) []string {
	i.mu.RLock()
	defer i.mu.RUnlock()

	start := i.find(prefix)
	if start == nil {
		return []string{}
	}
	return collect(start, prefix)
}

func (i *Index) find(prefix string) *node {
	current := &i.root
	for k := 0; k < len(prefix); k++ {
		current = current.child(prefix[k])
		if current == nil {
			return nil
		}
	}
	return current
}

type frame struct {
	n     *node
	b     byte
	depth int
}

// collect gathers terminal descendants of start depth-first. Children are
// pushed in descending byte order so the smallest is popped first, and a
// terminal node is emitted before its descendants. The popped frame's depth
// says how much of the shared path buffer belongs to its ancestors.
func collect(start *node, prefix string) []string {
	results := []string{}
	path := []byte(prefix)
	base := len(path)
	if start.terminal {
		results = append(results, prefix)
	}

	stack := pushChildren(nil, start, base+1)
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		path = append(path[:top.depth-1], top.b)
		if top.n.terminal {
			results = append(results, string(path))
		}
		stack = pushChildren(stack, top.n, top.depth+1)
	}
	return results
}

func pushChildren(stack []frame, n *node, depth int) []frame {
	keys := n.sortedKeys()
	for k := len(keys) - 1; k >= 0; k-- {
		stack = append(stack, frame{n: n.children[keys[k]], b: keys[k], depth: depth})
	}
	return stack
}
