package downstream

// Envelope is the request body posted to a downstream GraphQL endpoint.
type Envelope struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type RemoteError struct {
	Message string `json:"message"`
	Path    []any  `json:"path,omitempty"`
}

// Response is the reply body. A nil Data means the remote sent null or
// omitted the field.
type Response[T any] struct {
	Data   *T            `json:"data"`
	Errors []RemoteError `json:"errors"`
}

func (r Response[T]) messages() []string {
	out := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		out = append(out, e.Message)
	}
	return out
}
