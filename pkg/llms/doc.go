// Package llms defines the interface and types for text generation adapters.
//
// It contains:
//   - [Generator] interface and the [Result]/[Generation] output shape shared
//     by all adapters
//   - per-call options ([CallOption]) that layer sampling overrides on top of
//     an adapter's configured defaults
//
// This package contains no backend-specific code — concrete adapters live in
// sub-packages that import llms.
package llms
