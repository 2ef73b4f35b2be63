package stats

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Bucket is one label and its count.
type Bucket struct {
	Label string
	Count int
}

// Histogram counts labels in first-seen order. It encodes as a JSON object
// whose keys keep that order.
type Histogram []Bucket

// Add increments label, appending it when first seen.
func (h *Histogram) Add(label string) {
	for i := range *h {
		if (*h)[i].Label == label {
			(*h)[i].Count++
			return
		}
	}
	*h = append(*h, Bucket{Label: label, Count: 1})
}

// Get returns the count for label or zero.
func (h Histogram) Get(label string) int {
	for _, b := range h {
		if b.Label == label {
			return b.Count
		}
	}
	return 0
}

// Sorted returns the buckets by descending count. Equal counts keep their
// first-seen order.
func (h Histogram) Sorted() Histogram {
	out := append(Histogram(nil), h...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// Top returns the most frequent label.
func (h Histogram) Top() (string, bool) {
	if len(h) == 0 {
		return "", false
	}
	return h.Sorted()[0].Label, true
}

// Max returns the largest count.
func (h Histogram) Max() int {
	top := 0
	for _, b := range h {
		top = max(top, b.Count)
	}
	return top
}

// MarshalJSON encodes the histogram as an ordered object.
func (h Histogram) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, b := range h {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(b.Label)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		fmt.Fprintf(&buf, ":%d", b.Count)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object, keeping key order.
func (h *Histogram) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*h = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("histogram: expected object, got %v", tok)
	}
	out := Histogram{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("histogram: unexpected key %v", keyTok)
		}
		var count int
		if err := dec.Decode(&count); err != nil {
			return fmt.Errorf("histogram %q: %w", key, err)
		}
		out = append(out, Bucket{Label: key, Count: count})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*h = out
	return nil
}
