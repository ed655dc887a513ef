package validation

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed site.schema.json
var siteSchemaJSON []byte

const siteSchemaURL = "site.schema.json"

var (
	ErrSchemaInvalid    = errors.New("validation: site schema does not compile")
	ErrSchemaValidation = errors.New("validation: document does not match the site schema")

	loadSiteSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource(siteSchemaURL, bytes.NewReader(siteSchemaJSON)); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
		}
		schema, err := compiler.Compile(siteSchemaURL)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
		}
		return schema, nil
	})
)

// ValidationIssue points at one problem inside the document. Location is a
// JSON pointer such as /pages/0/sections/2.
type ValidationIssue struct {
	Location string `json:"location"`
	Message  string `json:"message"`
}

// PayloadValidationError carries every blocking issue of a rejected document.
type PayloadValidationError struct {
	Issues []ValidationIssue
	Cause  error
}

func (e *PayloadValidationError) Error() string {
	if len(e.Issues) == 0 {
		if e.Cause != nil {
			return e.Cause.Error()
		}
		return ErrSchemaValidation.Error()
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		location := issue.Location
		if location == "" {
			location = "/"
		}
		if issue.Message == "" {
			parts = append(parts, location)
			continue
		}
		parts = append(parts, location+": "+issue.Message)
	}
	return strings.Join(parts, "; ")
}

func (e *PayloadValidationError) Unwrap() error {
	return ErrSchemaValidation
}

// SiteSchema returns the compiled document schema.
func SiteSchema() (*jsonschema.Schema, error) {
	return loadSiteSchema()
}

// Issues flattens err into issues. Errors that carry no location become a
// single issue holding the message.
func Issues(err error) []ValidationIssue {
	if err == nil {
		return nil
	}
	var payloadErr *PayloadValidationError
	if errors.As(err, &payloadErr) {
		return payloadErr.Issues
	}
	var schemaErr *jsonschema.ValidationError
	if errors.As(err, &schemaErr) {
		return schemaIssues(schemaErr)
	}
	return []ValidationIssue{{Message: err.Error()}}
}

func validateCompiled(schema *jsonschema.Schema, doc map[string]any) error {
	if err := schema.Validate(doc); err != nil {
		return &PayloadValidationError{Issues: Issues(err), Cause: err}
	}
	return nil
}

// schemaIssues keeps the leaf causes, ordered by location.
func schemaIssues(root *jsonschema.ValidationError) []ValidationIssue {
	var issues []ValidationIssue
	stack := []*jsonschema.ValidationError{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if len(node.Causes) == 0 {
			issues = append(issues, ValidationIssue{
				Location: strings.TrimSpace(node.InstanceLocation),
				Message:  strings.TrimSpace(node.Message),
			})
			continue
		}
		stack = append(stack, node.Causes...)
	}
	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].Location < issues[j].Location
	})
	return issues
}
