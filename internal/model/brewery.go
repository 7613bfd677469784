// Package model defines the records that move through a sync run.
package model

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
)

// Brewery is one entry from the Open Brewery DB directory listing. Only ID
// and Name are guaranteed; every other field may be empty.
type Brewery struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	BreweryType string      `json:"brewery_type"`
	Street      LooseString `json:"street"`
	City        LooseString `json:"city"`
	State       LooseString `json:"state"`
	PostalCode  LooseString `json:"postal_code"`
	Phone       LooseString `json:"phone"`
	WebsiteURL  LooseString `json:"website_url"`
	Latitude    LooseString `json:"latitude"`
	Longitude   LooseString `json:"longitude"`
}

// LooseString decodes a JSON string, number, boolean or null into a string.
// The directory has served coordinates both as strings and as numbers.
type LooseString string

// UnmarshalJSON implements json.Unmarshaler.
func (s *LooseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return eris.Wrap(err, "model: decode loose string")
		}
		*s = LooseString(v)
		return nil
	}
	if data[0] == '{' || data[0] == '[' {
		return eris.Errorf("model: cannot decode %s into a string", string(data))
	}
	*s = LooseString(string(data))
	return nil
}

// String returns the trimmed value.
func (s LooseString) String() string {
	return strings.TrimSpace(string(s))
}
