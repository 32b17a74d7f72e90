// Package auth provides the shared-secret guard for the signal API.
//
// New(header, secret) builds a Guard once at process start. With an empty
// secret the guard is disabled and Wrap returns the handler unchanged (useful
// for local development). Otherwise the request header must match the secret
// exactly; a missing or wrong key gets 401 with a JSON error body.
//
// The guard has no runtime transitions: reloading the config file does not
// enable, disable or rotate it.
package auth
