package errors

import (
	"encoding/json"
	"net/http"
)

// ProblemContentType is the RFC 7807 media type
const ProblemContentType = "application/problem+json"

// ProblemDetails is an RFC 7807 problem. Extensions are written as
// top-level members next to the standard ones.
type ProblemDetails struct {
	Type     string
	Title    string
	Status   int
	Detail   string
	Instance string

	Extensions map[string]interface{}
}

func NewProblemDetails(status int, problemType, title, detail, instance string) *ProblemDetails {
	return &ProblemDetails{
		Type:     problemType,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: instance,
	}
}

// WithExtension sets an extension member and returns pd for chaining
func (pd *ProblemDetails) WithExtension(key string, value interface{}) *ProblemDetails {
	if pd.Extensions == nil {
		pd.Extensions = make(map[string]interface{})
	}
	pd.Extensions[key] = value
	return pd
}

func (pd *ProblemDetails) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(pd.Extensions)+5)
	for k, v := range pd.Extensions {
		out[k] = v
	}
	// standard members win over extensions of the same name
	out["type"] = pd.Type
	out["title"] = pd.Title
	out["status"] = pd.Status
	if pd.Detail != "" {
		out["detail"] = pd.Detail
	}
	if pd.Instance != "" {
		out["instance"] = pd.Instance
	}
	return json.Marshal(out)
}

// Write sends the problem with its status and media type
func (pd *ProblemDetails) Write(w http.ResponseWriter) error {
	body, err := json.Marshal(pd)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", ProblemContentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(pd.Status)
	_, err = w.Write(append(body, '\n'))
	return err
}
