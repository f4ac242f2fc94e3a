// Package patch applies RFC 6902 JSON Patch documents to a project through
// its serialized form. A patch either applies completely or not at all.
package patch

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"gopkg.in/yaml.v3"

	"github.com/ivlev/compositor/internal/document"
	"github.com/ivlev/compositor/internal/project"
)

var (
	ErrInvalidPath      = errors.New("invalid patch path")
	ErrTestFailed       = errors.New("patch test failed")
	ErrInvalidOperation = errors.New("invalid patch operation")
)

// Operation is one patch step. Value is kept raw so that an explicit null
// can be told apart from a missing value.
type Operation struct {
	Op    string          `json:"op"`
	Path  string          `json:"path"`
	From  string          `json:"from,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
}

type Patch []Operation

// Parse decodes a JSON patch document.
func Parse(data []byte) (Patch, error) {
	var p Patch
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOperation, err)
	}
	return p, nil
}

// ReadFile loads a patch from path. Files ending in .yaml or .yml are
// decoded as YAML, everything else as JSON.
func ReadFile(path string) (Patch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var tree any
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidOperation, err)
		}
		if data, err = json.Marshal(tree); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidOperation, err)
		}
	}
	return Parse(data)
}

// Apply patches the project's serialized form and syncs the result back.
// Components are matched by id, so only components whose media reference
// changed reload their media. On any error the project is unchanged.
func Apply(p *project.Project, ops Patch) error {
	raw, err := json.Marshal(document.FromProject(p))
	if err != nil {
		return err
	}
	out, err := ops.ApplyJSON(raw)
	if err != nil {
		return err
	}
	doc, err := document.Decode(out, document.JSON)
	if err != nil {
		return err
	}
	return doc.ApplyTo(p)
}

// ApplyJSON applies the patch to a JSON document and returns the result.
func (ops Patch) ApplyJSON(data []byte) ([]byte, error) {
	for i, op := range ops {
		if err := op.check(); err != nil {
			return nil, fmt.Errorf("operation %d (%s %s): %w", i, op.Op, op.Path, err)
		}
	}
	raw, err := json.Marshal(ops)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOperation, err)
	}
	jp, err := jsonpatch.DecodePatch(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOperation, err)
	}

	opts := jsonpatch.NewApplyOptions()
	opts.SupportNegativeIndices = false
	opts.EnsurePathExistsOnAdd = false
	out, err := jp.ApplyWithOptions(data, opts)
	if err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// classify maps json-patch failures onto this package's sentinels while
// keeping the library's message.
func classify(err error) error {
	switch {
	case errors.Is(err, jsonpatch.ErrTestFailed):
		return fmt.Errorf("%w: %v", ErrTestFailed, err)
	case errors.Is(err, jsonpatch.ErrMissing), errors.Is(err, jsonpatch.ErrInvalidIndex):
		return fmt.Errorf("%w: %v", ErrInvalidPath, err)
	default:
		return fmt.Errorf("%w: %v", ErrInvalidOperation, err)
	}
}
