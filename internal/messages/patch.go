package messages

import (
	"errors"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"
)

// ErrInvalidPatch is returned for patch documents that cannot be decoded or
// applied.
var ErrInvalidPatch = errors.New("invalid patch")

type PatchType string

const (
	PatchMerge     PatchType = "merge"     // RFC 7386
	PatchJSONPatch PatchType = "jsonpatch" // RFC 6902
)

// Patch applies a patch document to the JSON form of base and returns the
// result as a new validated instance. A nil base patches the default
// instance of t.
func (t *MessageType) Patch(base *Instance, typ PatchType, patch []byte) (*Instance, error) {
	if base == nil {
		base = t.New()
	}
	if base.typ != t {
		return nil, fmt.Errorf("%w: cannot patch %s as %s", ErrTypeMismatch, typeName(base), t.Name())
	}
	current, err := base.MarshalJSON()
	if err != nil {
		return nil, err
	}

	var patched []byte
	switch typ {
	case PatchMerge, "":
		patched, err = jsonpatch.MergePatch(current, patch)
	case PatchJSONPatch:
		var p jsonpatch.Patch
		p, err = jsonpatch.DecodePatch(patch)
		if err == nil {
			patched, err = p.Apply(current)
		}
	default:
		return nil, fmt.Errorf("%w: unknown patch type %q", ErrInvalidPatch, typ)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	return t.DecodeJSON(patched)
}
