// Package compute is the registry of Lambda handlers backing the image API.
//
// The set of operations is closed: GetImage and PostImage are the only values
// of Operation, and each resolves to a fixed runtime profile.
package compute

import (
	"fmt"
	"path"
	"time"
)

// Operation identifies one logical API operation.
type Operation int

const (
	// GetImage fetches and transforms a stored image.
	GetImage Operation = iota
	// PostImage ingests a new image.
	PostImage
)

// ArtifactRoot is where cargo-lambda writes one directory per handler binary.
const ArtifactRoot = "functions/image-processing/target/lambda"

// Profile is the runtime configuration shared by every handler.
type Profile struct {
	MemoryMB         int
	Timeout          time.Duration
	Tracing          bool
	LogRetentionDays int
}

// Target is a deployable handler: its artifact, entry point and profile.
type Target struct {
	Operation Operation
	// Artifact is the local directory holding the built bootstrap binary.
	Artifact string
	Handler  string
	Runtime  string
	Profile  Profile
}

var defaultProfile = Profile{
	MemoryMB:         128,
	Timeout:          3 * time.Minute,
	Tracing:          true,
	LogRetentionDays: 5,
}

var names = [...]string{
	GetImage:  "get_image",
	PostImage: "post_image",
}

// Operations returns every operation in declaration order.
func Operations() []Operation {
	return []Operation{GetImage, PostImage}
}

// String returns the handler binary name (get_image, post_image).
func (o Operation) String() string {
	if o < 0 || int(o) >= len(names) {
		return fmt.Sprintf("Operation(%d)", int(o))
	}
	return names[o]
}

// Resolve returns the immutable target for op.
// Resolve panics if op was produced by converting an arbitrary integer.
func Resolve(op Operation) Target {
	if op < 0 || int(op) >= len(names) {
		panic(fmt.Sprintf("compute: unknown operation %d", int(op)))
	}
	return Target{
		Operation: op,
		Artifact:  path.Join(ArtifactRoot, op.String()),
		Handler:   "bootstrap",
		Runtime:   "provided.al2",
		Profile:   defaultProfile,
	}
}

// TimeoutSeconds returns the profile timeout in whole seconds, the unit Lambda expects.
func (p Profile) TimeoutSeconds() int {
	return int(p.Timeout / time.Second)
}

// ArtifactKey is the S3 object key the packaged artifact is uploaded under.
func (t Target) ArtifactKey() string {
	return "image-processing/" + t.Operation.String() + ".zip"
}
