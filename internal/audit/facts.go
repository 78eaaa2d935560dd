package audit

import (
	"fmt"
	"sync"
	"time"
)

// Fact is a claim already stated to the user during this conversation.
type Fact struct {
	Type          string    `json:"type"`
	Key           string    `json:"key"`
	Number        float64   `json:"number,omitempty"`
	Text          string    `json:"text,omitempty"`
	Numeric       bool      `json:"numeric"`
	Scope         string    `json:"scope"`
	EstablishedAt time.Time `json:"established_at"`
	Question      string    `json:"question,omitempty"`
}

// Correction records a disclosed change to a previously stated fact.
type Correction struct {
	Key      string `json:"key"`
	OldValue string `json:"old_value"`
	NewValue string `json:"new_value"`
	Reason   string `json:"reason"`
}

// FactRegister holds the facts established during one conversation. It is
// the only cross-query state the audit stage keeps; each session owns its
// own register.
type FactRegister struct {
	mu          sync.Mutex
	facts       map[string]Fact
	corrections []Correction

	tolerance float64
	floor     float64
}

// NewFactRegister builds a register with the given numeric contradiction
// tolerance. Values above floor compare with relative tolerance; smaller
// values must match exactly.
func NewFactRegister(tolerance, floor float64) *FactRegister {
	if tolerance <= 0 {
		tolerance = 0.05
	}
	if floor <= 0 {
		floor = 1000
	}
	return &FactRegister{
		facts:     make(map[string]Fact),
		tolerance: tolerance,
		floor:     floor,
	}
}

func factKey(factType, key, scope string) string {
	return fmt.Sprintf("%s:%s:%s", factType, key, scope)
}

// RegisterNumber stores a numeric claim, overwriting any previous value for
// the same key and scope.
func (r *FactRegister) RegisterNumber(factType, key string, value float64, scope, question string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.facts[factKey(factType, key, scope)] = Fact{
		Type:          factType,
		Key:           key,
		Number:        value,
		Numeric:       true,
		Scope:         scope,
		EstablishedAt: time.Now(),
		Question:      question,
	}
}

// RegisterText stores a categorical claim.
func (r *FactRegister) RegisterText(factType, key, value, scope, question string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.facts[factKey(factType, key, scope)] = Fact{
		Type:          factType,
		Key:           key,
		Text:          value,
		Scope:         scope,
		EstablishedAt: time.Now(),
		Question:      question,
	}
}

// Get returns a previously established fact. An empty scope searches every
// scope and returns the first match.
func (r *FactRegister) Get(factType, key, scope string) (Fact, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if scope != "" {
		fact, ok := r.facts[factKey(factType, key, scope)]
		return fact, ok
	}
	prefix := factType + ":" + key + ":"
	for fk, fact := range r.facts {
		if len(fk) > len(prefix) && fk[:len(prefix)] == prefix {
			return fact, true
		}
	}
	return Fact{}, false
}

// CheckNumber reports whether a new numeric value contradicts an established
// fact for the same key and scope. Large magnitudes tolerate small relative
// drift; small ones must match exactly.
func (r *FactRegister) CheckNumber(factType, key string, value float64, scope string) (bool, Fact) {
	existing, ok := r.Get(factType, key, scope)
	if !ok || !existing.Numeric {
		return false, existing
	}
	if existing.Number == 0 && value == 0 {
		return false, existing
	}
	if existing.Number > r.floor {
		diff := existing.Number - value
		if diff < 0 {
			diff = -diff
		}
		base := existing.Number
		if base < 1 {
			base = 1
		}
		return diff/base > r.tolerance, existing
	}
	return existing.Number != value, existing
}

// RecordCorrection logs a disclosed value change.
func (r *FactRegister) RecordCorrection(key, oldValue, newValue, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.corrections = append(r.corrections, Correction{
		Key:      key,
		OldValue: oldValue,
		NewValue: newValue,
		Reason:   reason,
	})
}

// Corrections returns a copy of the corrections made this conversation.
func (r *FactRegister) Corrections() []Correction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Correction, len(r.corrections))
	copy(out, r.corrections)
	return out
}

// Len reports how many facts are registered.
func (r *FactRegister) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.facts)
}

// Reset clears the register for a new conversation.
func (r *FactRegister) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.facts = make(map[string]Fact)
	r.corrections = nil
}
