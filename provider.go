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

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Provider owns the sinks of a process. It creates one Sink per configured
// name on first use and closes them all together.
type Provider struct {
	source ConfigSource
	opts   []Option

	mu     sync.Mutex
	sinks  map[string]*Sink
	closed bool
}

// NewProvider returns a Provider resolving configuration from source, which
// defaults to an empty Registry. opts apply to every sink it creates.
func NewProvider(source ConfigSource, opts ...Option) *Provider {
	if source == nil {
		source = NewRegistry()
	}
	return &Provider{
		source: source,
		opts:   opts,
		sinks:  make(map[string]*Sink),
	}
}

// Sink returns the sink for name, starting it on first use. A name without
// configuration resolves to the DefaultSinkName sink.
func (p *Provider) Sink(name string) (*Sink, error) {
	cfg, ok := p.source.Configuration(name)
	if !ok {
		name = DefaultSinkName
	}
	key, display := normalizeName(name)
	if ok && cfg.Name != "" {
		display = cfg.Name
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrClosed
	}
	if s, ok := p.sinks[key]; ok {
		return s, nil
	}
	s := NewSink(display, p.source, p.opts...)
	p.sinks[key] = s
	return s, nil
}

// Logger returns a slog.Logger writing to the sink for name.
func (p *Provider) Logger(name string) (*slog.Logger, error) {
	s, err := p.Sink(name)
	if err != nil {
		return nil, err
	}
	return slog.New(NewHandler(s)), nil
}

// Close closes every sink in parallel and waits for all of them. Failures
// are joined into a single error naming each sink.
func (p *Provider) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	sinks := make([]*Sink, 0, len(p.sinks))
	for _, s := range p.sinks {
		sinks = append(sinks, s)
	}
	p.mu.Unlock()

	errs := make([]error, len(sinks))
	var wg sync.WaitGroup
	for i, s := range sinks {
		wg.Go(func() {
			if err := s.Close(ctx); err != nil {
				errs[i] = fmt.Errorf("sink %q: %w", s.Name(), err)
			}
		})
	}
	wg.Wait()
	return errors.Join(errs...)
}
