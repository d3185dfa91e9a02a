package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/Lutefd/currency-data/internal/model"
)

// Entry is one top-level element of an add payload, still undecoded. Key is
// the object key, or the index when the payload is an array.
type Entry struct {
	Key string
	Raw json.RawMessage
}

// DecodePayload splits a JSON object or array into entries, keeping the
// order in which they appear in the input.
func DecodePayload(r io.Reader) ([]Entry, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidPayload, err)
	}
	delim, ok := tok.(json.Delim)
	if !ok || (delim != '{' && delim != '[') {
		return nil, fmt.Errorf("%w: expected a JSON object or array", model.ErrInvalidPayload)
	}

	entries := []Entry{}
	for i := 0; dec.More(); i++ {
		key := strconv.Itoa(i)
		if delim == '{' {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, fmt.Errorf("%w: %v", model.ErrInvalidPayload, err)
			}
			key, _ = keyTok.(string)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: entry %s: %v", model.ErrInvalidPayload, key, err)
		}
		entries = append(entries, Entry{Key: key, Raw: raw})
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidPayload, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: unexpected data after payload", model.ErrInvalidPayload)
	}

	return entries, nil
}
