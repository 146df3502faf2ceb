// Copyright 2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package jsonwire

// Replay is a [Source] over tokens that were previously captured with
// [Capture].
type Replay struct {
	toks []Token
	pos  int
}

// NewReplay returns a [Replay] that yields toks in order.
func NewReplay(toks []Token) *Replay {
	return &Replay{toks: toks}
}

// Peek implements [Source].
func (r *Replay) Peek() (Kind, error) {
	if r.pos >= len(r.toks) {
		return EOF, nil
	}
	return r.toks[r.pos].Kind, nil
}

// Next implements [Source].
func (r *Replay) Next() (Token, error) {
	if r.pos >= len(r.toks) {
		return Token{Kind: EOF}, nil
	}
	tok := r.toks[r.pos]
	r.pos++
	return tok, nil
}

// Members returns the index of the key token of each top-level member of
// the captured object toks, or nil if toks is not an object.
func Members(toks []Token) []int {
	if len(toks) == 0 || toks[0].Kind != ObjectStart {
		return nil
	}
	var (
		out   []int
		depth int
	)
	for i, tok := range toks {
		switch tok.Kind {
		case ObjectStart, ArrayStart:
			depth++
		case ObjectEnd, ArrayEnd:
			depth--
		case Name:
			if depth == 1 {
				out = append(out, i)
			}
		}
	}
	return out
}

// Without returns a copy of the captured object toks with the member whose
// key is at index key removed.
func Without(toks []Token, key int) []Token {
	end := key + 1
	depth := 0
	for ; end < len(toks); end++ {
		switch toks[end].Kind {
		case ObjectStart, ArrayStart:
			depth++
		case ObjectEnd, ArrayEnd:
			depth--
		}
		if depth == 0 {
			end++
			break
		}
	}

	out := make([]Token, 0, len(toks)-(end-key))
	out = append(out, toks[:key]...)
	return append(out, toks[end:]...)
}
