// Copyright 2025 Patrick J. Scruggs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package slogrotate

import "context"

type contextKey int

const (
	sinkContextKey contextKey = iota
)

// ContextWithSink returns a child context that carries sink so code further
// down the call chain can log to it or open scopes on it.
func ContextWithSink(ctx context.Context, sink *Sink) context.Context {
	if ctx == nil || sink == nil {
		return ctx
	}
	return context.WithValue(ctx, sinkContextKey, sink)
}

// SinkFromContext returns the sink stored by ContextWithSink.
func SinkFromContext(ctx context.Context) (*Sink, bool) {
	if ctx == nil {
		return nil, false
	}
	sink, ok := ctx.Value(sinkContextKey).(*Sink)
	return sink, ok && sink != nil
}
