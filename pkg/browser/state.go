package browser

import (
	"encoding/json"
	"errors"
)

// State mirrors the Playwright storage state file format.
type State struct {
	Cookies []Cookie `json:"cookies"`
	Origins []Origin `json:"origins"`
}

type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite,omitempty"`
}

type Origin struct {
	Origin       string      `json:"origin"`
	LocalStorage []NameValue `json:"localStorage"`
}

type NameValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ParseState decodes a storage state blob.
func ParseState(data []byte) (*State, error) {
	if len(data) == 0 {
		return nil, ErrInvalidState
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Join(ErrInvalidState, err)
	}
	return &s, nil
}

// Encode serializes the state in the Playwright file format.
func (s *State) Encode() ([]byte, error) {
	if s.Cookies == nil {
		s.Cookies = []Cookie{}
	}
	if s.Origins == nil {
		s.Origins = []Origin{}
	}
	return json.Marshal(s)
}

// Empty reports whether the state carries no cookies and no local storage.
func (s *State) Empty() bool {
	if len(s.Cookies) > 0 {
		return false
	}
	for _, o := range s.Origins {
		if len(o.LocalStorage) > 0 {
			return false
		}
	}
	return true
}
