package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Marker prefixes every drag payload line.
const Marker = "SimReady::"

// ErrMalformedPayload is returned for a line that is not a drag payload.
var ErrMalformedPayload = errors.New("malformed drag payload")

// Insertion modes carried by Payload.Payload.
const (
	AsPayload   = "payload"
	AsReference = "reference"
)

// Instancing modes carried by Payload.Instanceable.
const (
	Instanceable    = "instanceable"
	NonInstanceable = "noninstanceable"
)

// Payload references one asset plus the variant values to apply when it is
// added to a scene. An empty variant value selects the default, i.e. off.
type Payload struct {
	URL      string            `json:"url"`
	Variants map[string]string `json:"variants"`

	// Optional; empty leaves the choice to the drop target.
	Payload      string `json:"payload,omitempty"`
	Instanceable string `json:"instanceable,omitempty"`
}

// Encode renders p as a single payload line.
func Encode(p Payload) (string, error) {
	if p.Variants == nil {
		p.Variants = map[string]string{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return "", fmt.Errorf("encode payload %s: %w", p.URL, err)
	}
	return Marker + strings.TrimRight(buf.String(), "\n"), nil
}

// EncodeAll renders one line per payload, joined by newlines.
func EncodeAll(ps []Payload) (string, error) {
	lines := make([]string, 0, len(ps))
	for _, p := range ps {
		line, err := Encode(p)
		if err != nil {
			return "", err
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), nil
}

// Decode parses a single payload line. A missing variants object decodes
// to an empty map.
func Decode(line string) (Payload, error) {
	line = strings.TrimRight(line, "\r")
	body, ok := strings.CutPrefix(line, Marker)
	if !ok {
		return Payload{}, fmt.Errorf("%w: missing %q prefix", ErrMalformedPayload, Marker)
	}

	var p Payload
	dec := json.NewDecoder(strings.NewReader(body))
	if err := dec.Decode(&p); err != nil {
		return Payload{}, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	if dec.More() {
		return Payload{}, fmt.Errorf("%w: trailing data", ErrMalformedPayload)
	}
	if p.URL == "" {
		return Payload{}, fmt.Errorf("%w: missing url", ErrMalformedPayload)
	}
	if p.Variants == nil {
		p.Variants = map[string]string{}
	}
	return p, nil
}

// DecodeAll decodes every non-blank line of data independently. It returns
// the payloads that decoded and the joined errors of the lines that did not.
func DecodeAll(data string) ([]Payload, error) {
	var (
		out  []Payload
		errs []error
	)
	for i, line := range strings.Split(data, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		p, err := Decode(line)
		if err != nil {
			errs = append(errs, fmt.Errorf("line %d: %w", i+1, err))
			continue
		}
		out = append(out, p)
	}
	return out, errors.Join(errs...)
}
