package models

import (
	"encoding/json"
	"strings"
)

// Keys under which deferred-operation references are exposed. Header names
// are lowercased by the API client.
const (
	OperationKey = "x-operation"
	ResourceKey  = "x-resource"
)

// Response is a parsed API body, or the exposed headers of an empty-bodied
// 201/202 response.
type Response map[string]interface{}

func (r Response) OperationEndpoint() string {
	endpoint, _ := r[OperationKey].(string)
	return strings.TrimSpace(endpoint)
}

func (r Response) Resource() json.RawMessage {
	value, ok := r[ResourceKey]
	if !ok || value == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil
	}
	return raw
}

// ErrorMessages collects errors[].message entries.
func (r Response) ErrorMessages() []string {
	list, ok := r["errors"].([]interface{})
	if !ok {
		return nil
	}

	var messages []string
	for _, item := range list {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		if message, ok := entry["message"].(string); ok {
			messages = append(messages, message)
		}
	}
	return messages
}

func (r Response) StatusCode() int {
	switch v := r["statusCode"].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// Decode converts the response into a typed value.
func (r Response) Decode(v interface{}) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
