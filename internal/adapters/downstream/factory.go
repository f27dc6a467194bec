package downstream

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"time"
)

var ErrUnknownEndpoint = errors.New("unknown downstream endpoint")

const (
	InventoryEndpoint = "inventory-downstream"
	UsersEndpoint     = "users-downstream"
)

// Endpoint is a named, pre-configured transport handle.
type Endpoint struct {
	Name string
	URL  string
	HTTP *http.Client
}

type ClientFactory interface {
	Endpoint(name string) (Endpoint, error)
}

type EndpointConfig struct {
	URL     string
	Timeout time.Duration
}

// Factory hands out one *http.Client per configured endpoint. All clients
// share a single connection pool.
type Factory struct {
	endpoints map[string]Endpoint
}

func NewFactory(cfg map[string]EndpointConfig) (*Factory, error) {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: time.Second,
	}

	f := &Factory{endpoints: make(map[string]Endpoint, len(cfg))}
	for name, c := range cfg {
		if c.URL == "" {
			return nil, fmt.Errorf("downstream %q: url is required", name)
		}
		timeout := c.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		f.endpoints[name] = Endpoint{
			Name: name,
			URL:  c.URL,
			HTTP: &http.Client{Transport: transport, Timeout: timeout},
		}
	}
	return f, nil
}

func (f *Factory) Endpoint(name string) (Endpoint, error) {
	ep, ok := f.endpoints[name]
	if !ok {
		return Endpoint{}, fmt.Errorf("%w: %s", ErrUnknownEndpoint, name)
	}
	return ep, nil
}

func (f *Factory) Names() []string {
	out := make([]string, 0, len(f.endpoints))
	for name := range f.endpoints {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
