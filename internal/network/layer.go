package network

import (
	"slices"

	"github.com/pkg/errors"

	"github.com/born-ml/deepnet/internal/parallel"
)

// Layer is a set of channels that run concurrently and are joined before the
// next layer starts. Channels keep their declaration order, which is also the
// order their outputs are concatenated in when the layer is the last one.
type Layer struct {
	id       string
	channels []*Channel
	network  *Network
}

// NewLayer creates a layer holding the given channels.
func NewLayer(id string, channels ...*Channel) *Layer {
	l := &Layer{id: id}
	for _, c := range channels {
		l.AddChannel(c)
	}
	return l
}

// ID returns the layer identifier.
func (l *Layer) ID() string {
	return l.id
}

// Len returns the number of channels.
func (l *Layer) Len() int {
	return len(l.channels)
}

// Channels returns the channels in declaration order.
func (l *Layer) Channels() []*Channel {
	return slices.Clone(l.channels)
}

// Channel returns the channel with the given id.
func (l *Layer) Channel(id string) (*Channel, bool) {
	i := l.indexOf(id)
	if i < 0 {
		return nil, false
	}
	return l.channels[i], true
}

// AddChannel appends c and returns the layer for chaining.
func (l *Layer) AddChannel(c *Channel) *Layer {
	c.layer = l
	l.channels = append(l.channels, c)
	l.invalidate()
	return l
}

// RemoveChannel deletes the channel with the given id.
func (l *Layer) RemoveChannel(id string) error {
	i := l.indexOf(id)
	if i < 0 {
		return errors.Wrapf(ErrUnknownChannel, "layer %s: %q", l.id, id)
	}
	l.channels[i].layer = nil
	l.channels = slices.Delete(l.channels, i, i+1)
	l.invalidate()
	return nil
}

// ReplaceChannel swaps the channel with the given id for c, keeping its
// position.
func (l *Layer) ReplaceChannel(id string, c *Channel) error {
	i := l.indexOf(id)
	if i < 0 {
		return errors.Wrapf(ErrUnknownChannel, "layer %s: %q", l.id, id)
	}
	l.channels[i].layer = nil
	c.layer = l
	l.channels[i] = c
	l.invalidate()
	return nil
}

func (l *Layer) indexOf(id string) int {
	return slices.IndexFunc(l.channels, func(c *Channel) bool { return c.id == id })
}

func (l *Layer) invalidate() {
	if l.network != nil {
		l.network.Invalidate()
	}
}

// each runs fn on every channel through s and joins.
func (l *Layer) each(s parallel.Scheduler, fn func(c *Channel) error) error {
	return s.Run(len(l.channels), func(i int) error {
		return fn(l.channels[i])
	})
}
