package nn

import (
	"fmt"
	"sort"

	"github.com/born-ml/deepnet/internal/document"
)

// Decoder rebuilds an operator from its document node.
type Decoder func(n document.Node) (Operator, error)

// Registry maps operator type tags to decoders.
type Registry struct {
	decoders map[string]Decoder
}

// NewRegistry creates a registry with the four built-in operator kinds.
func NewRegistry() *Registry {
	r := &Registry{decoders: make(map[string]Decoder)}
	r.Register(KindConvolution.String(), decodeConvolution)
	r.Register(KindPooling.String(), decodePooling)
	r.Register(KindDense.String(), decodeDense)
	r.Register(KindNonlinearity.String(), decodeNonlinearity)
	return r
}

// Register adds or replaces the decoder for a type tag.
func (r *Registry) Register(tag string, decoder Decoder) {
	r.decoders[tag] = decoder
}

// Decode reads the "type" tag of n and dispatches to its decoder.
func (r *Registry) Decode(n document.Node) (Operator, error) {
	tag, err := n.String("type")
	if err != nil {
		return nil, err
	}
	decoder, ok := r.decoders[tag]
	if !ok {
		return nil, &document.FieldError{
			Key:    "type",
			Reason: fmt.Sprintf("%q", tag),
			Err:    ErrUnknownOperator,
		}
	}
	return decoder(n)
}

// Tags returns the registered type tags in sorted order.
func (r *Registry) Tags() []string {
	tags := make([]string, 0, len(r.decoders))
	for tag := range r.decoders {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

var defaultRegistry = NewRegistry()

// Decode rebuilds a built-in operator from its document node.
func Decode(n document.Node) (Operator, error) {
	return defaultRegistry.Decode(n)
}
