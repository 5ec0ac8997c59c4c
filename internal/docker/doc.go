// Package docker handles the toolkit image lifecycle: build, push and
// interactive run.
//
// The Docker Engine SDK is used for daemon connectivity (socket
// autodetection, ping preflight) and for querying local images before
// push and run. The build, push and run operations themselves shell out
// to the docker CLI — they stream progress output and accept the same
// flags operators already use, which the SDK's request/response API does
// not give us for free.
package docker
