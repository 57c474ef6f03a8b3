/*
 * evmcodec - Decoding and encoding of EVM state and calldata
 *
 * Copyright Dapper Labs, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *   http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package format

import (
	"encoding/hex"
	"math/big"
	"strconv"
	"strings"
)

func PadLeft(value string, separator rune, minLength uint) string {
	length := uint(len(value))
	if length >= minLength {
		return value
	}
	n := int(minLength - length)

	var builder strings.Builder
	builder.Grow(n)
	for i := 0; i < n; i++ {
		builder.WriteRune(separator)
	}
	builder.WriteString(value)
	return builder.String()
}

func String(s string) string {
	return strconv.Quote(s)
}

// Bytes formats the given bytes as a 0x-prefixed hex string.
func Bytes(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

func Bool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// Fixed formats the raw integer value of a fixed point number
// with the given number of decimal places.
func Fixed(raw *big.Int, places uint) string {
	if places == 0 {
		return raw.String()
	}

	abs := new(big.Int).Abs(raw)
	digits := PadLeft(abs.String(), '0', places+1)
	split := uint(len(digits)) - places

	var builder strings.Builder
	if raw.Sign() < 0 {
		builder.WriteByte('-')
	}
	builder.WriteString(digits[:split])
	builder.WriteByte('.')
	builder.WriteString(digits[split:])
	return builder.String()
}

func Array(elements []string) string {
	var builder strings.Builder
	builder.WriteByte('[')
	for i, element := range elements {
		if i > 0 {
			builder.WriteString(", ")
		}
		builder.WriteString(element)
	}
	builder.WriteByte(']')
	return builder.String()
}

type Member struct {
	Name  string
	Value string
}

// Composite formats a struct-like value, e.g. `S(a: 1, b: 2)`.
// Unnamed members are rendered positionally.
func Composite(typeName string, members []Member) string {
	var builder strings.Builder
	builder.WriteString(typeName)
	builder.WriteByte('(')
	for i, member := range members {
		if i > 0 {
			builder.WriteString(", ")
		}
		if member.Name != "" {
			builder.WriteString(member.Name)
			builder.WriteString(": ")
		}
		builder.WriteString(member.Value)
	}
	builder.WriteByte(')')
	return builder.String()
}

type Entry struct {
	Key   string
	Value string
}

func Mapping(entries []Entry) string {
	var builder strings.Builder
	builder.WriteByte('{')
	for i, entry := range entries {
		if i > 0 {
			builder.WriteString(", ")
		}
		builder.WriteString(entry.Key)
		builder.WriteString(": ")
		builder.WriteString(entry.Value)
	}
	builder.WriteByte('}')
	return builder.String()
}
