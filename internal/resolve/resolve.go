// Package resolve turns raw front-end inputs into a validated
// types.GenerationRequest. Apart from the custom-path existence check,
// validation is pure.
package resolve

import (
	"fmt"
	"strings"

	"hidream/internal/common/fsutil"
	"hidream/pkg/types"
)

// Registry is the subset of the model catalog the resolver needs.
type Registry interface {
	IsKnown(kind string) bool
}

// Resolve validates raw inputs. Rules are applied in order: model selection
// (custom path first), resolution, seed, prompt. The first failure wins.
func Resolve(raw types.RawRequest, reg Registry) (types.GenerationRequest, error) {
	var req types.GenerationRequest

	desc, err := ResolveModel(raw.ModelKind, raw.CustomPath, reg)
	if err != nil {
		return req, err
	}
	res, err := ParseResolution(raw.Resolution)
	if err != nil {
		return req, err
	}
	seed, err := ParseSeed(raw.Seed)
	if err != nil {
		return req, err
	}
	if strings.TrimSpace(raw.Prompt) == "" {
		return req, &ValidationError{Code: CodeEmptyPrompt, Field: "prompt", Message: "prompt must not be empty"}
	}

	req.Model = desc
	req.Prompt = raw.Prompt
	req.Resolution = res
	req.Seed = seed
	return req, nil
}

// ResolveModel picks the model descriptor: a non-blank custom path wins over
// kind and must exist on disk; otherwise kind must be in the catalog.
func ResolveModel(kind, customPath string, reg Registry) (types.ModelDescriptor, error) {
	if p := strings.TrimSpace(customPath); p != "" {
		expanded, err := fsutil.ExpandHome(p)
		if err != nil {
			return types.ModelDescriptor{}, &ValidationError{Code: CodePathNotFound, Field: "custom_path", Value: p, Message: err.Error()}
		}
		if !fsutil.PathExists(expanded) {
			return types.ModelDescriptor{}, &ValidationError{
				Code:    CodePathNotFound,
				Field:   "custom_path",
				Value:   p,
				Message: fmt.Sprintf("custom model path %q does not exist", p),
			}
		}
		return types.Custom(expanded), nil
	}
	if reg == nil || !reg.IsKnown(kind) {
		return types.ModelDescriptor{}, &ValidationError{
			Code:    CodeUnknownModel,
			Field:   "model",
			Value:   kind,
			Message: fmt.Sprintf("unknown model %q", kind),
		}
	}
	return types.Predefined(kind), nil
}
