// Copyright (C) 2025 George Dekermenjian
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See <https://www.gnu.org/licenses/agpl-3.0.html> for the full license text.

package brainlog

import "context"

// collectorKey is the unexported context key for the request's collector.
// Using a private type prevents collisions with other packages' keys.
type collectorKey struct{}

// WithCollector returns a context carrying the given collector. The
// association is request-scoped: it lives exactly as long as the derived
// context and never leaks into another request.
func WithCollector(ctx context.Context, c *Collector) context.Context {
	return context.WithValue(ctx, collectorKey{}, c)
}

// FromContext returns the collector carried by ctx, or nil if none is
// established. Callers must tolerate nil; every consumer in this codebase
// degrades to a no-op without a collector.
func FromContext(ctx context.Context) *Collector {
	c, _ := ctx.Value(collectorKey{}).(*Collector)
	return c
}
