package strategy

import (
	"fmt"
	"strings"

	"github.com/dbops-engineering/autoscaler/autoscaler/structs"
	"github.com/dbops-engineering/autoscaler/logging"
)

// DefaultMethod is the scaling method substituted whenever a snapshot names
// a method the registry does not know.
const DefaultMethod = "STEPWISE"

// Sizer is the contract a sizing strategy implements. Suggest is a pure,
// total function of the snapshot and must return a size clamped to the
// snapshot's [MinSize, MaxSize] range.
type Sizer interface {
	Suggest(snap *structs.InstanceSnapshot) int64
}

// DeprecatedSizer is the legacy sizing contract. Strategies exposing only
// this operation are still honored, with a deprecation warning logged on
// every use.
type DeprecatedSizer interface {
	CalculateSuggestedSize(snap *structs.InstanceSnapshot) int64
}

// Registry holds the closed mapping of method names to sizing strategies.
type Registry struct {
	methods map[string]interface{}
}

// NewRegistry returns a registry pre-populated with the built-in sizing
// strategies.
func NewRegistry() *Registry {
	r := &Registry{methods: make(map[string]interface{})}

	r.Register("STEPWISE", &Stepwise{})
	r.Register("LINEAR", &Linear{})
	r.Register("DIRECT", &Direct{})

	return r
}

// Register adds a sizing strategy to the registry under the given name. The
// name is normalized in the same way lookups are.
func (r *Registry) Register(name string, method interface{}) {
	r.methods[Normalize(name)] = method
}

// Resolve returns the strategy named by the snapshot's scaling method. On a
// miss the default strategy is substituted and the snapshot's method field
// is rewritten so all downstream logging and state reflect the strategy
// actually used.
func (r *Registry) Resolve(snap *structs.InstanceSnapshot) interface{} {
	if method, ok := r.methods[Normalize(snap.ScalingMethod)]; ok {
		return method
	}

	logging.Warning("strategy/strategy: unknown scaling method %q requested "+
		"for instance %s, substituting the default method %s",
		snap.ScalingMethod, snap.Key(), DefaultMethod)

	snap.ScalingMethod = DefaultMethod
	return r.methods[Normalize(DefaultMethod)]
}

// Suggest invokes the sizing operation on a resolved strategy, preferring
// the current contract and falling back to the deprecated one with a
// warning. An error is returned when the strategy exposes neither.
func Suggest(method interface{}, snap *structs.InstanceSnapshot) (int64, error) {
	switch m := method.(type) {
	case Sizer:
		return m.Suggest(snap), nil
	case DeprecatedSizer:
		logging.Warning("strategy/strategy: scaling method %s only implements "+
			"the deprecated CalculateSuggestedSize operation and should be "+
			"updated to implement Suggest", snap.ScalingMethod)
		return m.CalculateSuggestedSize(snap), nil
	}

	return 0, fmt.Errorf("strategy/strategy: scaling method %s exposes no "+
		"known sizing operation", snap.ScalingMethod)
}

// Normalize converts a method name into a safe lookup identifier. Path
// separators and traversal sequences are stripped so a hostile method name
// cannot escape the strategy namespace, and the result is lowercased.
func Normalize(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, "..", "")

	var b strings.Builder
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '_', c == '-':
			b.WriteRune(c)
		}
	}

	return b.String()
}
