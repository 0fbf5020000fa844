// Package tokenize maps real financial entities to opaque, session-stable
// tokens such as Account_7, and back.
//
// A Registry belongs to exactly one session. Tokens are assigned per kind,
// starting at 1, the first time a natural key is seen, and stay stable until
// Clear. No method returns an error or panics on malformed input.
package tokenize

import (
	"sort"
	"strconv"
	"strings"
	"sync"
)

// keySeparator joins natural key parts; it cannot appear in display text.
const keySeparator = "\x1f"

// Attributes are the real, stringified natural key values of an entity.
type Attributes map[string]string

// Get returns the value of field, or "".
func (a Attributes) Get(field string) string {
	if a == nil {
		return ""
	}
	return a[field]
}

// Entry is the source of truth for both tokenize and reverse lookup.
type Entry struct {
	Kind       Kind
	NaturalKey string
	Token      string
	Attributes Attributes
	seq        int
}

// Registry holds the token maps of one session.
type Registry struct {
	mu       sync.RWMutex
	byKey    map[Kind]map[string]*Entry
	byToken  map[string]*Entry
	counters map[Kind]int
}

// New creates an empty registry.
func New() *Registry {
	r := &Registry{}
	r.reset()
	return r
}

func (r *Registry) reset() {
	r.byKey = make(map[Kind]map[string]*Entry)
	r.byToken = make(map[string]*Entry)
	r.counters = make(map[Kind]int)
}

// Tokenize returns the token for the entity of kind k described by values,
// creating it on first sight. Values map positionally onto k.Fields(); missing
// values are empty and extra values are ignored.
func (r *Registry) Tokenize(k Kind, values ...any) string {
	if !k.Valid() {
		k = KindEntity
	}
	fields := k.Fields()
	attrs := make(Attributes, len(fields))
	parts := make([]string, len(fields))
	for i, field := range fields {
		var v string
		if i < len(values) {
			v = strings.TrimSpace(Stringify(values[i]))
		}
		attrs[field] = v
		parts[i] = v
	}
	naturalKey := strings.Join(parts, keySeparator)

	r.mu.RLock()
	if e, ok := r.byKey[k][naturalKey]; ok {
		r.mu.RUnlock()
		return e.Token
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	// re-check: another goroutine may have created it between the locks
	if e, ok := r.byKey[k][naturalKey]; ok {
		return e.Token
	}
	if r.byKey[k] == nil {
		r.byKey[k] = make(map[string]*Entry)
	}
	r.counters[k]++
	seq := r.counters[k]
	e := &Entry{
		Kind:       k,
		NaturalKey: naturalKey,
		Token:      string(k) + "_" + strconv.Itoa(seq),
		Attributes: attrs,
		seq:        seq,
	}
	r.byKey[k][naturalKey] = e
	r.byToken[e.Token] = e
	return e.Token
}

// TokenizeAccount tokenizes an account by display name and institution name.
func (r *Registry) TokenizeAccount(name, institution any) string {
	return r.Tokenize(KindAccount, name, institution)
}

// TokenizeInstitution tokenizes an institution by name.
func (r *Registry) TokenizeInstitution(name any) string {
	return r.Tokenize(KindInstitution, name)
}

// TokenizeMerchant tokenizes a merchant or counterparty by name.
func (r *Registry) TokenizeMerchant(name any) string {
	return r.Tokenize(KindMerchant, name)
}

// TokenizeSecurity tokenizes a security by name, ticker and security type.
func (r *Registry) TokenizeSecurity(name, ticker, securityType any) string {
	return r.Tokenize(KindSecurity, name, ticker, securityType)
}

// TokenizeLiability tokenizes a liability by name, type and institution.
func (r *Registry) TokenizeLiability(name, liabilityType, institution any) string {
	return r.Tokenize(KindLiability, name, liabilityType, institution)
}

// ReverseLookup returns the entry behind token. An unknown token is not an
// error: ok is false and the returned entry carries the token unchanged.
func (r *Registry) ReverseLookup(token string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byToken[token]
	if !ok {
		return Entry{Token: token}, false
	}
	return e.snapshot(), true
}

// Entries returns a snapshot of live entries ordered by kind then assignment order.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	out := make([]Entry, 0, len(r.byToken))
	for _, e := range r.byToken {
		out = append(out, e.snapshot())
	}
	r.mu.RUnlock()

	order := make(map[Kind]int, len(schemas))
	for i, k := range Kinds() {
		order[k] = i
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			oi, iok := order[out[i].Kind]
			oj, jok := order[out[j].Kind]
			if iok && jok {
				return oi < oj
			}
			return out[i].Kind < out[j].Kind
		}
		return out[i].seq < out[j].seq
	})
	return out
}

// Len returns the number of live entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byToken)
}

// Clear empties all maps and resets every counter so the next token of each kind is _1.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reset()
}

func (e *Entry) snapshot() Entry {
	attrs := make(Attributes, len(e.Attributes))
	for k, v := range e.Attributes {
		attrs[k] = v
	}
	return Entry{
		Kind:       e.Kind,
		NaturalKey: e.NaturalKey,
		Token:      e.Token,
		Attributes: attrs,
		seq:        e.seq,
	}
}
