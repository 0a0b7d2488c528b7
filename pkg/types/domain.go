package types

import (
	"strconv"
	"time"
)

// Model kinds. KindCustom is synthetic: it is never listed as a predefined
// choice but is always a valid target when a model directory is supplied.
const (
	KindDev    = "dev"
	KindFull   = "full"
	KindFast   = "fast"
	KindCustom = "custom"
)

// ModelDescriptor identifies a loadable model.
type ModelDescriptor struct {
	// Kind is one of the predefined kinds or "custom".
	// example: fast
	Kind string `json:"kind" example:"fast"`
	// Path to the model directory; set only when Kind is "custom".
	// example: /models/hidream-custom
	Path string `json:"path,omitempty" example:"/models/hidream-custom"`
}

// Predefined returns a descriptor for a predefined kind.
func Predefined(kind string) ModelDescriptor { return ModelDescriptor{Kind: kind} }

// Custom returns a descriptor for a model directory.
func Custom(path string) ModelDescriptor { return ModelDescriptor{Kind: KindCustom, Path: path} }

// IsCustom reports whether d targets a user-supplied model directory.
func (d ModelDescriptor) IsCustom() bool { return d.Kind == KindCustom }

// Equal reports whether d and o refer to the same loaded instance.
// Paths only matter for custom descriptors and compare case-sensitively.
func (d ModelDescriptor) Equal(o ModelDescriptor) bool {
	if d.Kind != o.Kind {
		return false
	}
	if d.IsCustom() {
		return d.Path == o.Path
	}
	return true
}

func (d ModelDescriptor) String() string {
	if d.IsCustom() {
		return KindCustom + ":" + d.Path
	}
	return d.Kind
}

// Resolution is an ordered (height, width) pair in pixels.
type Resolution struct {
	Height int `json:"height" example:"1024"`
	Width  int `json:"width" example:"1024"`
}

// String renders the canonical "HxW" form accepted by the resolver.
func (r Resolution) String() string {
	return strconv.Itoa(r.Height) + "x" + strconv.Itoa(r.Width)
}

// Seed is either a specific non-negative value or unspecified, in which case
// a random seed is drawn at generation time and reported back.
type Seed struct {
	value int64
	set   bool
}

func SpecifiedSeed(n int64) Seed { return Seed{value: n, set: true} }

func UnspecifiedSeed() Seed { return Seed{} }

// Value returns the seed and whether it was specified.
func (s Seed) Value() (int64, bool) { return s.value, s.set }

func (s Seed) IsSpecified() bool { return s.set }

func (s Seed) String() string {
	if !s.set {
		return "random"
	}
	return strconv.FormatInt(s.value, 10)
}

// RawRequest carries unvalidated front-end inputs.
type RawRequest struct {
	ModelKind  string
	CustomPath string
	Prompt     string
	Resolution string
	// Seed is the decimal seed as typed by the user; empty or "-1" means random.
	Seed string
}

// GenerationRequest is the validated, canonical form of one user action.
type GenerationRequest struct {
	Model      ModelDescriptor
	Prompt     string
	Resolution Resolution
	Seed       Seed
}

// GenerationResult is a successful generation.
type GenerationResult struct {
	ID         string
	Image      []byte // PNG
	Seed       int64
	Model      ModelDescriptor
	Resolution Resolution
	Duration   time.Duration
}

// ModelInfo describes a predefined model for listings.
type ModelInfo struct {
	// Predefined kind.
	// example: fast
	Kind string `json:"kind" example:"fast"`
	// Weights repository.
	// example: azaneko/HiDream-I1-Fast-nf4
	Repo string `json:"repo" example:"azaneko/HiDream-I1-Fast-nf4"`
	// Quantization profile.
	// example: nf4
	Quant string `json:"quant" example:"nf4"`
	// Sampler used by the pipeline.
	// example: FlashFlowMatchEulerDiscreteScheduler
	Scheduler string `json:"scheduler" example:"FlashFlowMatchEulerDiscreteScheduler"`
	// Number of inference steps.
	// example: 16
	Steps int `json:"steps" example:"16"`
	// Classifier-free guidance scale.
	// example: 0
	GuidanceScale float64 `json:"guidance_scale" example:"0"`
	// Flow shift.
	// example: 3
	Shift float64 `json:"shift" example:"3"`
}
