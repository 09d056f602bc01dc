package http

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var rawSpec []byte

//go:embed index.html
var indexHTML []byte

var (
	specOnce sync.Once
	specDoc  *openapi3.T
	specErr  error
)

// GetSwagger returns the parsed and validated API document.
func GetSwagger() (*openapi3.T, error) {
	specOnce.Do(func() {
		loader := openapi3.NewLoader()
		doc, err := loader.LoadFromData(rawSpec)
		if err != nil {
			specErr = fmt.Errorf("load openapi document: %w", err)
			return
		}
		if err := doc.Validate(context.Background()); err != nil {
			specErr = fmt.Errorf("invalid openapi document: %w", err)
			return
		}
		specDoc = doc
	})
	return specDoc, specErr
}

// validateBody checks a raw JSON request body against the operation's schema.
func validateBody(path, method string, body []byte) error {
	doc, err := GetSwagger()
	if err != nil {
		return err
	}

	item := doc.Paths.Find(path)
	if item == nil {
		return fmt.Errorf("no such path %q in the API document", path)
	}
	op := item.GetOperation(method)
	if op == nil || op.RequestBody == nil || op.RequestBody.Value == nil {
		return nil
	}
	media := op.RequestBody.Value.Content.Get("application/json")
	if media == nil || media.Schema == nil || media.Schema.Value == nil {
		return nil
	}

	var value any
	if err := json.Unmarshal(body, &value); err != nil {
		return fmt.Errorf("malformed JSON: %w", err)
	}
	return media.Schema.Value.VisitJSON(value)
}

// validateSessionID checks a session id against the shared path parameter schema.
func validateSessionID(id string) error {
	doc, err := GetSwagger()
	if err != nil {
		return err
	}
	param, ok := doc.Components.Parameters["SessionID"]
	if !ok || param.Value == nil || param.Value.Schema == nil {
		return nil
	}
	return param.Value.Schema.Value.VisitJSON(id)
}
