package types

// Version is the canonical project version.
// The CLI and the Lambda entrypoint share this version.
const Version = "0.2.0"
