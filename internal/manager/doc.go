// Package manager owns the single resident diffusion pipeline and coordinates
// loading, teardown, and generation against it. It is structured into small
// files by concern:
//
//   - manager.go: core Manager type, constructor, simple getters.
//   - config.go: ManagerConfig and package defaults; NewWithConfig applies defaults.
//   - types.go: runtime seam (Runtime, Pipeline, LoadedConfig) and state types.
//   - errors.go: LoadError, GenerationError and helpers (IsTooBusy, Kind).
//   - admission.go: the resident slot; one ensure+generate pair at a time.
//   - residency.go: the reload decision (needsReload).
//   - ensure.go: Ensure and the teardown-then-load transition.
//   - unload.go: explicit teardown and Close.
//   - invoke.go: Generate entry point, seed resolution and fault capture.
//   - image.go: output validation.
//   - status_report.go: Snapshot/Status reporting.
//   - ops.go: background model switch.
//   - sanity.go: runtime preflight.
//
// The pipeline handle never leaves this package: front ends submit a
// types.GenerationRequest and receive a types.GenerationResult or an error.
//
// Residency rules:
//
//   - Identical consecutive requests never reload.
//   - A different descriptor unloads the resident pipeline before loading the
//     new one; two pipelines are never resident at once.
//   - A failed load leaves no model resident.
//   - A failed generation leaves the resident model untouched.
package manager
