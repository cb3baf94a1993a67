// Package prefixindex provides the in-memory character trie used for filename
// autocomplete.
//
// An Index is built once per organize run from the source listing and then
// only read. Searches walk the trie with an explicit stack so very long names
// never grow the goroutine stack, and results come back in rune order.
package prefixindex
