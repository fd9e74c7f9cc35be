package loglens

// Version is the release version of the loglens-go library.
const Version = "0.3.0"

// defaultUserAgent identifies the library in outgoing requests unless
// overridden with [WithUserAgent].
const defaultUserAgent = "loglens-go/" + Version
