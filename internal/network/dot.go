package network

import (
	"fmt"
	"strings"

	"github.com/awalterschulze/gographviz"
	"github.com/pkg/errors"
)

const (
	dotGraph  = "network"
	dotOutput = "__output__"
)

// ToDot renders the topology as a Graphviz digraph: one box per input, one
// cluster per layer with a node per channel listing its operators, and an
// edge for every source reference.
func (n *Network) ToDot() (string, error) {
	g := gographviz.NewEscape()
	if err := g.SetName(dotGraph); err != nil {
		return "", errors.Wrap(err, "dot")
	}
	if err := g.SetDir(true); err != nil {
		return "", errors.Wrap(err, "dot")
	}
	if err := g.AddAttr(dotGraph, "rankdir", "LR"); err != nil {
		return "", errors.Wrap(err, "dot")
	}

	for _, in := range n.inputs {
		attrs := map[string]string{
			"shape": "box",
			"label": fmt.Sprintf("%s\\n%v", in.id, in.shape),
		}
		if err := g.AddNode(dotGraph, in.id, attrs); err != nil {
			return "", errors.Wrapf(err, "dot: input %s", in.id)
		}
	}

	for _, l := range n.layers {
		cluster := "cluster_" + l.id
		if err := g.AddSubGraph(dotGraph, cluster, map[string]string{"label": l.id}); err != nil {
			return "", errors.Wrapf(err, "dot: layer %s", l.id)
		}
		for _, c := range l.channels {
			lines := []string{c.id}
			for _, op := range c.ops {
				lines = append(lines, op.String())
			}
			attrs := map[string]string{
				"shape": "box",
				"style": "rounded",
				"label": strings.Join(lines, "\\n"),
			}
			if err := g.AddNode(cluster, c.id, attrs); err != nil {
				return "", errors.Wrapf(err, "dot: channel %s", c.id)
			}
			for _, src := range c.sources {
				if err := g.AddEdge(src, c.id, true, nil); err != nil {
					return "", errors.Wrapf(err, "dot: edge %s -> %s", src, c.id)
				}
			}
		}
	}

	if len(n.layers) > 0 {
		if err := g.AddNode(dotGraph, dotOutput, map[string]string{"shape": "doublecircle", "label": "output"}); err != nil {
			return "", errors.Wrap(err, "dot: output")
		}
		for _, c := range n.layers[len(n.layers)-1].channels {
			if err := g.AddEdge(c.id, dotOutput, true, nil); err != nil {
				return "", errors.Wrapf(err, "dot: edge %s -> output", c.id)
			}
		}
	}
	return g.String(), nil
}
