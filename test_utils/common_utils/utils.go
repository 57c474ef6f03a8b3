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

package common_utils

import (
	"strings"
	"testing"

	"github.com/k0kubun/pp/v3"
	"github.com/kr/pretty"

	"github.com/onflow/evmcodec"
)

func init() {
	pp.Default.SetColoringEnabled(false)
}

// AssertEqualWithDiff asserts that two objects are deeply equal,
// and reports a field by field diff if they are not.
func AssertEqualWithDiff(t testing.TB, expected, actual any) {
	t.Helper()

	diff := pretty.Diff(expected, actual)
	if len(diff) == 0 {
		return
	}

	t.Errorf(
		"Not equal: \n"+
			"expected: %s\n"+
			"actual  : %s\n\n"+
			"%s",
		pp.Sprint(expected),
		pp.Sprint(actual),
		formatDiff(diff),
	)
}

// AssertEqualValue asserts that a decoded value has the expected type and contents.
// Values of different types are reported by their type IDs only.
func AssertEqualValue(t testing.TB, expected, actual evmcodec.Value) {
	t.Helper()

	if actual == nil {
		t.Errorf("expected %s value %s, got nil", expected.Type().ID(), expected)
		return
	}

	if !expected.Type().Equal(actual.Type()) {
		t.Errorf(
			"Type not equal: \n"+
				"expected: %s\n"+
				"actual  : %s (%s)",
			expected.Type().ID(),
			actual.Type().ID(),
			actual,
		)
		return
	}

	AssertEqualWithDiff(t, expected, actual)
}

func formatDiff(diff []string) string {
	var builder strings.Builder
	for i, d := range diff {
		if i == 0 {
			builder.WriteString("diff    : ")
		} else {
			builder.WriteString("          ")
		}
		builder.WriteString(d)
		builder.WriteByte('\n')
	}
	return builder.String()
}
