package arbor

// Version is the library version, overridable at build time via
// -ldflags "-X github.com/arborflow/arbor.Version=...".
var Version = "0.1.0"
