package mailbox

import (
	"fmt"
	"strings"

	"github.com/dmitrymomot/inboxshot/pkg/browser"
)

// Client is a webmail provider.
type Client string

const (
	Gmail   Client = "gmail"
	Outlook Client = "outlook"
	Yahoo   Client = "yahoo"
	AOL     Client = "aol"
	ICloud  Client = "icloud"
)

func (c Client) String() string { return string(c) }

// Clients returns every supported provider.
func Clients() []Client {
	return []Client{Gmail, Outlook, Yahoo, AOL, ICloud}
}

// ParseClient validates a provider name.
func ParseClient(s string) (Client, error) {
	c := Client(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Clients() {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownClient, s)
}

// Engine is a browser rendering engine.
type Engine = browser.Engine

const (
	Chromium = browser.Chromium
	Firefox  = browser.Firefox
	WebKit   = browser.WebKit
)

// Engines returns every supported engine.
func Engines() []Engine {
	return []Engine{Chromium, Firefox, WebKit}
}

// ParseEngine validates an engine name.
func ParseEngine(s string) (Engine, error) {
	e, err := browser.ParseEngine(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownEngine, s)
	}
	return e, nil
}

// Combination is one (client, engine) pair.
type Combination struct {
	Client Client
	Engine Engine
}

func (c Combination) String() string {
	return fmt.Sprintf("%s-%s", c.Client, c.Engine)
}

// Combinations returns the cross product of clients and engines. Empty inputs mean all.
func Combinations(clients []Client, engines []Engine) []Combination {
	if len(clients) == 0 {
		clients = Clients()
	}
	if len(engines) == 0 {
		engines = Engines()
	}
	out := make([]Combination, 0, len(clients)*len(engines))
	for _, c := range clients {
		for _, e := range engines {
			out = append(out, Combination{Client: c, Engine: e})
		}
	}
	return out
}
