package resolve

import (
	"os"
	"path/filepath"
	"testing"

	"hidream/internal/registry"
	"hidream/pkg/types"
)

func raw(kind, path, prompt, res, seed string) types.RawRequest {
	return types.RawRequest{ModelKind: kind, CustomPath: path, Prompt: prompt, Resolution: res, Seed: seed}
}

func mustCode(t *testing.T, err error, want Code) {
	t.Helper()
	got, ok := CodeOf(err)
	if !ok {
		t.Fatalf("expected validation error %s, got %v", want, err)
	}
	if got != want {
		t.Fatalf("expected code %s, got %s (%v)", want, got, err)
	}
}

func TestResolvePredefined(t *testing.T) {
	req, err := Resolve(raw("fast", "", "a red bicycle", "1024x1024", "-1"), registry.Default())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !req.Model.Equal(types.Predefined("fast")) {
		t.Fatalf("model=%v", req.Model)
	}
	if req.Resolution != (types.Resolution{Height: 1024, Width: 1024}) {
		t.Fatalf("resolution=%v", req.Resolution)
	}
	if req.Seed.IsSpecified() {
		t.Fatalf("seed should be unspecified")
	}
	if req.Prompt != "a red bicycle" {
		t.Fatalf("prompt=%q", req.Prompt)
	}
}

func TestResolveUnknownModel(t *testing.T) {
	_, err := Resolve(raw("turbo", "", "x", "1024x1024", ""), registry.Default())
	mustCode(t, err, CodeUnknownModel)
	// custom is not a predefined kind
	_, err = Resolve(raw("custom", "", "x", "1024x1024", ""), registry.Default())
	mustCode(t, err, CodeUnknownModel)
}

func TestResolveCustomPathWins(t *testing.T) {
	dir := t.TempDir()
	req, err := Resolve(raw("turbo", dir, "p", "832x1248", "7"), registry.Default())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if req.Model.Kind != types.KindCustom || req.Model.Path != dir {
		t.Fatalf("model=%+v", req.Model)
	}
}

func TestResolveCustomPathMissing(t *testing.T) {
	_, err := Resolve(raw("fast", "/nonexistent/hidream-model", "p", "1024x1024", ""), registry.Default())
	mustCode(t, err, CodePathNotFound)
}

func TestResolveCustomPathCheckedFresh(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "model")
	r := raw("", dir, "p", "1024x1024", "")
	if _, err := Resolve(r, registry.Default()); err == nil {
		t.Fatalf("expected path_not_found before mkdir")
	}
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if _, err := Resolve(r, registry.Default()); err != nil {
		t.Fatalf("expected success after mkdir, got %v", err)
	}
	if err := os.Remove(dir); err != nil {
		t.Fatalf("remove: %v", err)
	}
	_, err := Resolve(r, registry.Default())
	mustCode(t, err, CodePathNotFound)
}

func TestResolveBlankCustomPathFallsBack(t *testing.T) {
	req, err := Resolve(raw("dev", "   ", "p", "1024x1024", ""), registry.Default())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if req.Model.Kind != "dev" {
		t.Fatalf("model=%+v", req.Model)
	}
}

func TestResolveAcceptsAllSupportedResolutions(t *testing.T) {
	for _, r := range []string{"1024x1024", "768x1360", "1360x768", "880x1168", "1168x880", "1248x832", "832x1248"} {
		req, err := Resolve(raw("fast", "", "p", r, ""), registry.Default())
		if err != nil {
			t.Fatalf("%s: %v", r, err)
		}
		if req.Resolution.String() != r {
			t.Fatalf("%s round-trips as %s", r, req.Resolution)
		}
	}
	if n := len(SupportedResolutions()); n != 7 {
		t.Fatalf("expected 7 supported resolutions, got %d", n)
	}
}

func TestResolveRejectsOtherResolutions(t *testing.T) {
	cases := []string{
		"", "1024", "1024x", "x1024", "1024X1024", "1024×1024", "1024 x 1024",
		"1024x1024x1", "512x512", "1024x768", "-1024x1024", "+1024x1024",
		"0x0", "abcxdef", "1024 × 1024 (Square)",
	}
	for _, c := range cases {
		_, err := Resolve(raw("fast", "", "p", c, ""), registry.Default())
		mustCode(t, err, CodeUnsupportedResolution)
	}
}

func TestResolveSeed(t *testing.T) {
	req, err := Resolve(raw("fast", "", "p", "1024x1024", "-1"), registry.Default())
	if err != nil || req.Seed.IsSpecified() {
		t.Fatalf("-1 should be unspecified: %+v %v", req.Seed, err)
	}
	req, err = Resolve(raw("fast", "", "p", "1024x1024", "7"), registry.Default())
	if err != nil {
		t.Fatalf("7: %v", err)
	}
	if v, ok := req.Seed.Value(); !ok || v != 7 {
		t.Fatalf("expected specified 7, got %v", req.Seed)
	}
	req, err = Resolve(raw("fast", "", "p", "1024x1024", "0"), registry.Default())
	if v, ok := req.Seed.Value(); err != nil || !ok || v != 0 {
		t.Fatalf("0 is a legitimate seed: %v %v", req.Seed, err)
	}
	for _, bad := range []string{"-5", "-2", "1.5", "seven", "0x10"} {
		_, err := Resolve(raw("fast", "", "p", "1024x1024", bad), registry.Default())
		mustCode(t, err, CodeInvalidSeed)
	}
}

func TestResolveEmptyPrompt(t *testing.T) {
	for _, p := range []string{"", "   ", "\n\t"} {
		_, err := Resolve(raw("fast", "", p, "1024x1024", ""), registry.Default())
		mustCode(t, err, CodeEmptyPrompt)
	}
}

func TestResolveRuleOrder(t *testing.T) {
	// Every input is bad; the model rule is checked first.
	_, err := Resolve(raw("turbo", "", "", "bad", "-9"), registry.Default())
	mustCode(t, err, CodeUnknownModel)
	_, err = Resolve(raw("fast", "", "", "bad", "-9"), registry.Default())
	mustCode(t, err, CodeUnsupportedResolution)
	_, err = Resolve(raw("fast", "", "", "1024x1024", "-9"), registry.Default())
	mustCode(t, err, CodeInvalidSeed)
}

func TestLabel(t *testing.T) {
	if got := Label(types.Resolution{Height: 1024, Width: 1024}); got != "1024 × 1024 (Square)" {
		t.Fatalf("label=%q", got)
	}
	if got := Label(types.Resolution{Height: 1, Width: 2}); got != "1x2" {
		t.Fatalf("fallback label=%q", got)
	}
}
