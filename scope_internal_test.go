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
	"errors"
	"fmt"
	"testing"
)

type stringer struct{}

func (stringer) String() string { return "from-stringer" }

func TestScopeChainPrefix(t *testing.T) {
	t.Parallel()

	var chain scopeChain
	if got := chain.prefix(); got != "" {
		t.Fatalf("prefix() on empty chain = %q, want empty", got)
	}

	a := &Scope{id: "a"}
	b := &Scope{id: "b"}
	a2 := &Scope{id: "a"}
	chain.add(a)
	chain.add(b)
	chain.add(a2)
	if got, want := chain.prefix(), "[a:b] "; got != want {
		t.Fatalf("prefix() = %q, want %q", got, want)
	}

	chain.remove(a)
	if got, want := chain.prefix(), "[b:a] "; got != want {
		t.Fatalf("prefix() after removing first = %q, want %q", got, want)
	}
	chain.remove(a)
	chain.closeAll()
	if got := chain.prefix(); got != "" {
		t.Fatalf("prefix() after closeAll = %q, want empty", got)
	}
	if !b.closed.Load() || !a2.closed.Load() {
		t.Fatalf("closeAll left scopes open")
	}
}

func TestScopeChainBlankIDs(t *testing.T) {
	t.Parallel()

	var chain scopeChain
	chain.add(&Scope{id: " "})
	if got := chain.prefix(); got != "" {
		t.Fatalf("prefix() = %q, want empty for blank ids", got)
	}
}

func TestStringifyState(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state any
		want  string
	}{
		{nil, ""},
		{"text", "text"},
		{errors.New("failure"), "failure"},
		{stringer{}, "from-stringer"},
		{42, "42"},
		{[]int{1, 2}, fmt.Sprint([]int{1, 2})},
	}
	for _, tt := range tests {
		if got := stringifyState(tt.state); got != tt.want {
			t.Errorf("stringifyState(%#v) = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestNilScopeIsSafe(t *testing.T) {
	t.Parallel()

	var s *Scope
	if err := s.Close(); err != nil {
		t.Fatalf("Close() on nil scope returned %v", err)
	}
	s.Log(LevelError, EventID{}, "ignored", nil, nil)
}
