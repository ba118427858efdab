package types

// Version is the canonical build version, reported by `testpool version`.
const Version = "0.1.0"
