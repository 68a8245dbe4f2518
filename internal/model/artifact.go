package model

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Artifact is one concretized output unit, ready to be written.
type Artifact struct {
	// Key is the dedup key of the match that produced the artifact.
	Key    string
	Family string

	// Name is the unit name, without extension.
	Name string
	HDL  HDL

	Content []byte
}

// FileName is the name the artifact is written under in the output
// directory.
func (a *Artifact) FileName() string {
	return a.Name + a.HDL.Ext()
}

// DerivedName builds the stable unit name for a non-top artifact: the family
// name plus a short content hash of the canonical bindings. Instances that
// bind the same parameters share a name, instances that differ get distinct
// ones, and the name never depends on request order.
func DerivedName(family, bindingsKey string) string {
	sum := blake3.Sum256([]byte(family + "|" + bindingsKey))
	return fmt.Sprintf("%s_%s", family, hex.EncodeToString(sum[:6]))
}
