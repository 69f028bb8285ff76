package network

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/born-ml/deepnet/internal/document"
	"github.com/born-ml/deepnet/internal/nn"
	"github.com/born-ml/deepnet/internal/tensor"
)

// DocumentKind is the envelope kind of a saved network.
const DocumentKind = "network"

// Encode returns the input document.
func (in *Input) Encode() document.Node {
	return document.Node{
		"id":    in.id,
		"shape": []int(in.shape.Clone()),
	}
}

// Encode returns the channel document, operators included.
func (c *Channel) Encode() document.Node {
	return document.Node{
		"id":        c.id,
		"sources":   c.Sources(),
		"operators": lo.Map(c.ops, func(op nn.Operator, _ int) document.Node { return op.Encode() }),
	}
}

// Encode returns the layer document.
func (l *Layer) Encode() document.Node {
	return document.Node{
		"id":       l.id,
		"channels": lo.Map(l.channels, func(c *Channel, _ int) document.Node { return c.Encode() }),
	}
}

// Encode returns the network document without an envelope.
func (n *Network) Encode() document.Node {
	return document.Node{
		"inputs": lo.Map(n.inputs, func(in *Input, _ int) document.Node { return in.Encode() }),
		"layers": lo.Map(n.layers, func(l *Layer, _ int) document.Node { return l.Encode() }),
	}
}

// Save writes the network with a versioned envelope to path. The format
// follows the file extension.
func (n *Network) Save(path string) error {
	return document.WriteFile(path, document.Envelope(DocumentKind, n.Encode()))
}

// Load reads a network saved with Save.
func Load(path string, cfg Config) (*Network, error) {
	node, err := document.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := document.CheckEnvelope(node, DocumentKind); err != nil {
		return nil, errors.WithMessage(err, path)
	}
	net, err := Decode(node, cfg)
	if err != nil {
		return nil, errors.WithMessage(err, path)
	}
	return net, nil
}

// Decode rebuilds a network from its document. A document carrying an
// envelope has it checked first. Decoded parameters are kept: the network is
// only reinitialized on validation when some Dense operator was saved before
// its weights were allocated.
func Decode(node document.Node, cfg Config) (*Network, error) {
	if node.Has(document.KeyFormatVersion) {
		if err := document.CheckEnvelope(node, DocumentKind); err != nil {
			return nil, err
		}
	}

	net := New(cfg)

	inputs, err := node.Nodes("inputs")
	if err != nil {
		return nil, err
	}
	for i, in := range inputs {
		id, shape, err := decodeInput(in)
		if err != nil {
			return nil, document.WithPath(err, fmt.Sprintf("inputs[%d]", i))
		}
		net.AddInput(id, shape)
	}

	layers, err := node.Nodes("layers")
	if err != nil {
		return nil, err
	}
	for i, ln := range layers {
		l, err := DecodeLayer(ln)
		if err != nil {
			return nil, document.WithPath(err, fmt.Sprintf("layers[%d]", i))
		}
		net.AddLayer(l)
	}

	net.initialized = lo.EveryBy(net.operators(), func(op nn.Operator) bool {
		d, ok := op.(*nn.Dense)
		return !ok || d.Inputs() > 0
	})
	return net, nil
}

func decodeInput(node document.Node) (string, tensor.Shape, error) {
	id, err := node.String("id")
	if err != nil {
		return "", nil, err
	}
	dims, err := node.Ints("shape")
	if err != nil {
		return "", nil, err
	}
	return id, tensor.Shape(dims), nil
}

// DecodeLayer rebuilds a layer from its document.
func DecodeLayer(node document.Node) (*Layer, error) {
	id, err := node.String("id")
	if err != nil {
		return nil, err
	}
	channels, err := node.Nodes("channels")
	if err != nil {
		return nil, err
	}
	l := NewLayer(id)
	for i, cn := range channels {
		c, err := DecodeChannel(cn)
		if err != nil {
			return nil, document.WithPath(err, fmt.Sprintf("channels[%d]", i))
		}
		l.AddChannel(c)
	}
	return l, nil
}

// DecodeChannel rebuilds a channel and its operators from its document.
func DecodeChannel(node document.Node) (*Channel, error) {
	id, err := node.String("id")
	if err != nil {
		return nil, err
	}
	sources, err := node.Strings("sources")
	if err != nil {
		return nil, err
	}
	c := NewChannel(id, sources...)

	if !node.Has("operators") {
		return c, nil
	}
	ops, err := node.Nodes("operators")
	if err != nil {
		return nil, err
	}
	for i, on := range ops {
		op, err := nn.Decode(on)
		if err != nil {
			return nil, document.WithPath(err, fmt.Sprintf("operators[%d]", i))
		}
		c.AddOperator(op)
	}
	return c, nil
}
