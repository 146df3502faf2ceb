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

package vm

import (
	"encoding/base64"
	"errors"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// maxExponent bounds the exponent of integers spelled in exponent form, so
// that expanding them stays cheap. Anything larger is out of range anyway.
const maxExponent = 400

// ParseInt parses a signed integer of the given bit size.
//
// Besides plain decimal integers, this accepts any JSON number with an
// integral value, such as 1e5 or 1.000.
func ParseInt(text string, bits int) (int64, error) {
	if !IsNumber(text) {
		return 0, ErrBadNumber
	}
	if n, err := strconv.ParseInt(text, 10, bits); err == nil {
		return n, nil
	} else if errors.Is(err, strconv.ErrRange) {
		return 0, ErrOutOfRange
	}

	r, err := parseRat(text)
	if err != nil {
		return 0, err
	}
	n := r.Num()
	if !n.IsInt64() {
		return 0, ErrOutOfRange
	}
	v := n.Int64()
	if bits == 32 && (v < math.MinInt32 || v > math.MaxInt32) {
		return 0, ErrOutOfRange
	}
	return v, nil
}

// ParseUint parses an unsigned integer of the given bit size, with the same
// spellings as [ParseInt].
func ParseUint(text string, bits int) (uint64, error) {
	if !IsNumber(text) {
		return 0, ErrBadNumber
	}
	if n, err := strconv.ParseUint(text, 10, bits); err == nil {
		return n, nil
	} else if errors.Is(err, strconv.ErrRange) {
		return 0, ErrOutOfRange
	}

	r, err := parseRat(text)
	if err != nil {
		return 0, err
	}
	n := r.Num()
	if n.Sign() < 0 || !n.IsUint64() {
		return 0, ErrOutOfRange
	}
	v := n.Uint64()
	if bits == 32 && v > math.MaxUint32 {
		return 0, ErrOutOfRange
	}
	return v, nil
}

// parseRat parses a JSON number exactly, requiring it to be integral.
func parseRat(text string) (*big.Rat, error) {
	if !IsNumber(text) {
		return nil, ErrBadNumber
	}
	if i := strings.IndexAny(text, "eE"); i >= 0 {
		exp, err := strconv.Atoi(strings.TrimPrefix(text[i+1:], "+"))
		if err != nil || exp > maxExponent || exp < -maxExponent {
			return nil, ErrOutOfRange
		}
	}

	r, ok := new(big.Rat).SetString(text)
	if !ok {
		return nil, ErrBadNumber
	}
	if !r.IsInt() {
		return nil, ErrNotIntegral
	}
	return r, nil
}

// ParseFloat parses a float of the given bit size. If quoted is set, the
// text came from a JSON string, and may also be one of "NaN", "Infinity" or
// "-Infinity".
func ParseFloat(text string, quoted bool, bits int) (float64, error) {
	if quoted {
		switch text {
		case "NaN":
			return math.NaN(), nil
		case "Infinity":
			return math.Inf(1), nil
		case "-Infinity":
			return math.Inf(-1), nil
		}
	}
	if !IsNumber(text) {
		return 0, ErrBadNumber
	}

	f, err := strconv.ParseFloat(text, bits)
	if err != nil {
		return 0, ErrOutOfRange
	}
	return f, nil
}

// ParseBytes decodes base64 in either the standard or the URL-safe alphabet,
// with or without padding.
func ParseBytes(text string) ([]byte, error) {
	enc := base64.StdEncoding
	if strings.ContainsAny(text, "-_") {
		enc = base64.URLEncoding
	}
	if len(text)%4 != 0 {
		enc = enc.WithPadding(base64.NoPadding)
	}

	b, err := enc.DecodeString(text)
	if err != nil {
		return nil, ErrBadBase64
	}
	return b, nil
}

// IsNumber reports whether text is a number in JSON syntax.
func IsNumber(text string) bool {
	i := 0
	if i < len(text) && text[i] == '-' {
		i++
	}

	switch {
	case i < len(text) && text[i] == '0':
		i++
	case i < len(text) && text[i] >= '1' && text[i] <= '9':
		i = digits(text, i)
	default:
		return false
	}

	if i < len(text) && text[i] == '.' {
		j := digits(text, i+1)
		if j == i+1 {
			return false
		}
		i = j
	}

	if i < len(text) && (text[i] == 'e' || text[i] == 'E') {
		i++
		if i < len(text) && (text[i] == '+' || text[i] == '-') {
			i++
		}
		j := digits(text, i)
		if j == i {
			return false
		}
		i = j
	}

	return i == len(text)
}

func digits(text string, i int) int {
	for i < len(text) && text[i] >= '0' && text[i] <= '9' {
		i++
	}
	return i
}
