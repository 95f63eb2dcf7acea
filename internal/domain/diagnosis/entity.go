package diagnosis

import (
	"strings"
	"time"
)

// Confidence is the score reported with every analysis. It is a fixed
// value and is never parsed out of the model output.
const Confidence = 88

// Shape selects which deployment a request came from. Both run the same
// pipeline; they differ in query template and researcher instructions.
type Shape string

const (
	ShapeAPI   Shape = "api"
	ShapeShell Shape = "shell"
)

// Credential is the caller's provider key. It is opaque: never validated
// locally and never logged.
type Credential string

// String hides the value so a credential cannot leak through %v.
func (c Credential) String() string {
	if c == "" {
		return ""
	}
	return "****"
}

// Focus is the ordered set of free-text labels the caller wants examined.
type Focus []string

// Joined returns the labels as they are embedded into prompts.
func (f Focus) Joined() string { return strings.Join(f, ", ") }

// Primary is the first label, used as the region in summaries and PDFs.
func (f Focus) Primary() string {
	if len(f) == 0 {
		return ""
	}
	return f[0]
}

// Result is everything one request produces.
type Result struct {
	Report      string    `json:"report"`
	Confidence  int       `json:"confidence"`
	PDF         []byte    `json:"-"`
	Focus       Focus     `json:"focus"`
	ModelID     string    `json:"model_id"`
	GeneratedAt time.Time `json:"generated_at"`
}
