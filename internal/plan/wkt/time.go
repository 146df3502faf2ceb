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
package wkt

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"google.golang.org/protobuf/reflect/protoreflect"

	"buf.build/go/hyperjson/internal/jsonwire"
	"buf.build/go/hyperjson/internal/plan"
	"buf.build/go/hyperjson/internal/plan/vm"
)

// Field numbers shared by Timestamp and Duration.
const (
	secondsField protoreflect.FieldNumber = 1
	nanosField   protoreflect.FieldNumber = 2
)

const (
	// 0001-01-01T00:00:00Z and 9999-12-31T23:59:59Z.
	minTimestamp = -62135596800
	maxTimestamp = 253402300799

	// 10000 years of 365.25 days.
	maxDuration = 315576000000
)

// FormatTimestamp formats a timestamp as RFC 3339 in UTC, with 0, 3, 6 or 9
// fractional digits.
func FormatTimestamp(secs int64, nanos int32) (string, error) {
	if secs < minTimestamp || secs > maxTimestamp {
		return "", fmt.Errorf("%w: seconds out of range", vm.ErrBadTimestamp)
	}
	if nanos < 0 || nanos >= 1e9 {
		return "", fmt.Errorf("%w: nanos out of range", vm.ErrBadTimestamp)
	}

	x := time.Unix(secs, int64(nanos)).UTC().Format("2006-01-02T15:04:05.000000000")
	x = trimFraction(x)
	return x + "Z", nil
}

// ParseTimestamp parses an RFC 3339 timestamp with any offset.
func ParseTimestamp(s string) (secs int64, nanos int32, err error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", vm.ErrBadTimestamp, err)
	}

	secs = t.Unix()
	if secs < minTimestamp || secs > maxTimestamp {
		return 0, 0, fmt.Errorf("%w: seconds out of range", vm.ErrBadTimestamp)
	}

	// time.Parse accepts any number of fractional digits.
	i := strings.LastIndexByte(s, '.')
	j := strings.LastIndexAny(s, "Zz+-")
	if i >= 0 && j >= i && j-i > len(".999999999") {
		return 0, 0, fmt.Errorf("%w: too many fractional digits", vm.ErrBadTimestamp)
	}
	return secs, int32(t.Nanosecond()), nil
}

// FormatDuration formats a duration as decimal seconds with an "s" suffix,
// with 0, 3, 6 or 9 fractional digits.
func FormatDuration(secs int64, nanos int32) (string, error) {
	if secs < -maxDuration || secs > maxDuration {
		return "", fmt.Errorf("%w: seconds out of range", vm.ErrBadDuration)
	}
	if nanos <= -1e9 || nanos >= 1e9 {
		return "", fmt.Errorf("%w: nanos out of range", vm.ErrBadDuration)
	}
	if (secs > 0 && nanos < 0) || (secs < 0 && nanos > 0) {
		return "", fmt.Errorf("%w: seconds and nanos have different signs", vm.ErrBadDuration)
	}

	var sign string
	if secs < 0 || nanos < 0 {
		sign, secs, nanos = "-", -secs, -nanos
	}
	x := fmt.Sprintf("%s%d.%09d", sign, secs, nanos)
	return trimFraction(x) + "s", nil
}

// ParseDuration parses the output of [FormatDuration], allowing any number
// of fractional digits up to nine.
func ParseDuration(s string) (secs int64, nanos int32, err error) {
	bad := func(why string) (int64, int32, error) {
		return 0, 0, fmt.Errorf("%w: %s", vm.ErrBadDuration, why)
	}

	body, ok := strings.CutSuffix(s, "s")
	if !ok {
		return bad("missing \"s\" suffix")
	}
	body, neg := strings.CutPrefix(body, "-")
	whole, frac, dot := strings.Cut(body, ".")
	if whole == "" || !isDigits(whole) || (dot && (frac == "" || !isDigits(frac))) {
		return bad("not a decimal number")
	}
	if len(frac) > 9 {
		return bad("too many fractional digits")
	}

	secs, err = strconv.ParseInt(whole, 10, 64)
	if err != nil || secs > maxDuration {
		return bad("seconds out of range")
	}
	if frac != "" {
		n, _ := strconv.Atoi(frac + strings.Repeat("0", 9-len(frac)))
		nanos = int32(n)
	}
	if neg {
		secs, nanos = -secs, -nanos
	}
	return secs, nanos, nil
}

func trimFraction(x string) string {
	x = strings.TrimSuffix(x, "000")
	x = strings.TrimSuffix(x, "000")
	return strings.TrimSuffix(x, ".000")
}

func isDigits(s string) bool {
	for i := range len(s) {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func encodeTimestamp(e *vm.Encoder, v protoreflect.Value, r *plan.Rule) error {
	m := v.Message()
	secs := m.Get(field(m, secondsField)).Int()
	nanos := m.Get(field(m, nanosField)).Int()
	s, err := FormatTimestamp(secs, int32(nanos))
	if err != nil {
		return vm.Malformed(r.Name, fmt.Sprintf("%d.%09d", secs, nanos), err)
	}
	e.String(s)
	return nil
}

func decodeTimestamp(d *vm.Decoder, v protoreflect.Value, r *plan.Rule) (protoreflect.Value, error) {
	tok, err := d.Expect(r.Name, jsonwire.String)
	if err != nil {
		return protoreflect.Value{}, err
	}
	secs, nanos, err := ParseTimestamp(tok.Text)
	if err != nil {
		return protoreflect.Value{}, vm.Malformed(r.Name, tok.Text, err)
	}
	setTime(v.Message(), secs, nanos)
	return v, nil
}

func encodeDuration(e *vm.Encoder, v protoreflect.Value, r *plan.Rule) error {
	m := v.Message()
	secs := m.Get(field(m, secondsField)).Int()
	nanos := m.Get(field(m, nanosField)).Int()
	s, err := FormatDuration(secs, int32(nanos))
	if err != nil {
		return vm.Malformed(r.Name, fmt.Sprintf("%ds %dns", secs, nanos), err)
	}
	e.String(s)
	return nil
}

func decodeDuration(d *vm.Decoder, v protoreflect.Value, r *plan.Rule) (protoreflect.Value, error) {
	tok, err := d.Expect(r.Name, jsonwire.String)
	if err != nil {
		return protoreflect.Value{}, err
	}
	secs, nanos, err := ParseDuration(tok.Text)
	if err != nil {
		return protoreflect.Value{}, vm.Malformed(r.Name, tok.Text, err)
	}
	setTime(v.Message(), secs, nanos)
	return v, nil
}

func setTime(m protoreflect.Message, secs int64, nanos int32) {
	m.Set(field(m, secondsField), protoreflect.ValueOfInt64(secs))
	m.Set(field(m, nanosField), protoreflect.ValueOfInt32(nanos))
}
