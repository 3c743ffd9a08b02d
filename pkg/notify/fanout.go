package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Delivery summarizes how one event was handled across the fanout.
type Delivery struct {
	Kind      string `json:"kind"`
	Delivered int    `json:"delivered"`
	Failed    int    `json:"failed"`
	Skipped   int    `json:"skipped"`
}

// Fanout dispatches events to the configured notifiers subscribed to the
// event kind.
type Fanout struct {
	notifiers []Notifier
}

// NewFanout builds a dispatcher that fans out events across notifiers.
func NewFanout(ns []Notifier) *Fanout {
	cp := make([]Notifier, 0, len(ns))
	for _, n := range ns {
		if n == nil {
			continue
		}
		cp = append(cp, n)
	}
	return &Fanout{notifiers: cp}
}

// Notify forwards the event to every notifier that accepts its kind.
func (f *Fanout) Notify(ctx context.Context, evt Event) (Delivery, error) {
	out := Delivery{Kind: evt.Kind}
	if f == nil || len(f.notifiers) == 0 {
		return out, nil
	}

	var errs []error
	for _, n := range f.notifiers {
		if !accepts(n, evt.Kind) {
			out.Skipped++
			continue
		}
		if err := n.Notify(ctx, evt); err != nil {
			out.Failed++
			errs = append(errs, fmt.Errorf("%s notifier[%s]: %w", n.Type(), n.ID(), err))
			continue
		}
		out.Delivered++
	}
	return out, errors.Join(errs...)
}

// Size returns the number of active notifiers.
func (f *Fanout) Size() int {
	if f == nil {
		return 0
	}
	return len(f.notifiers)
}

// Close releases notifiers that hold connections.
func (f *Fanout) Close() error {
	if f == nil {
		return nil
	}
	var errs []error
	for _, n := range f.notifiers {
		if c, ok := n.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s notifier[%s]: %w", n.Type(), n.ID(), err))
			}
		}
	}
	return errors.Join(errs...)
}

func accepts(n Notifier, kind string) bool {
	if s, ok := n.(interface{ Accepts(kind string) bool }); ok {
		return s.Accepts(kind)
	}
	return true
}

// kindFilter limits a notifier to the event kinds listed in its config.
type kindFilter struct {
	Notifier
	kinds map[string]struct{}
}

func subscribe(n Notifier, kinds []string) Notifier {
	if len(kinds) == 0 {
		return n
	}
	set := make(map[string]struct{}, len(kinds))
	for _, k := range kinds {
		set[k] = struct{}{}
	}
	return kindFilter{Notifier: n, kinds: set}
}

func (k kindFilter) Accepts(kind string) bool {
	_, ok := k.kinds[kind]
	return ok
}

func (k kindFilter) Close() error {
	if c, ok := k.Notifier.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
