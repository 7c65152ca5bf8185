package rules

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ResultSet maps rule names to results and remembers insertion order.
// It encodes as a JSON object whose keys appear in that order.
type ResultSet struct {
	order   []string
	results map[string]Result
}

func NewResultSet() *ResultSet {
	return &ResultSet{results: make(map[string]Result)}
}

// Set stores the result for name. Re-setting a name keeps its original position.
func (s *ResultSet) Set(name string, r Result) {
	if s.results == nil {
		s.results = make(map[string]Result)
	}
	if _, ok := s.results[name]; !ok {
		s.order = append(s.order, name)
	}
	s.results[name] = r
}

func (s *ResultSet) Get(name string) (Result, bool) {
	if s == nil {
		return Result{}, false
	}
	r, ok := s.results[name]
	return r, ok
}

func (s *ResultSet) Names() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

func (s *ResultSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Results returns the results in insertion order.
func (s *ResultSet) Results() []Result {
	if s == nil {
		return nil
	}
	out := make([]Result, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.results[name])
	}
	return out
}

// AllPassed reports the logical AND of every Check flag. An empty set passes.
func (s *ResultSet) AllPassed() bool {
	for _, r := range s.Results() {
		if !r.Check {
			return false
		}
	}
	return true
}

func (s *ResultSet) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range s.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(s.results[name])
		if err != nil {
			return nil, fmt.Errorf("marshal result %q: %w", name, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (s *ResultSet) UnmarshalJSON(b []byte) error {
	s.order = nil
	s.results = make(map[string]Result)

	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("result set: expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("result set: expected key, got %v", tok)
		}
		var r Result
		if err := dec.Decode(&r); err != nil {
			return fmt.Errorf("result set: decode %q: %w", name, err)
		}
		s.Set(name, r)
	}
	_, err = dec.Token()
	return err
}
