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

package abi

import (
	"fmt"

	"github.com/onflow/evmcodec"
)

// UnsupportedValueError is returned for a value that cannot be encoded,
// e.g. an error value, or a mapping.
type UnsupportedValueError struct {
	Value evmcodec.Value
	Usage string
}

func (*UnsupportedValueError) IsUserError() {}

func (e *UnsupportedValueError) Error() string {
	return fmt.Sprintf("cannot encode %s value as %s", evmcodec.TypeHint(e.Value), e.Usage)
}

// ValueOutOfRangeError is returned for a numeric value that does not fit its type.
type ValueOutOfRangeError struct {
	Value evmcodec.Value
}

func (*ValueOutOfRangeError) IsUserError() {}

func (e *ValueOutOfRangeError) Error() string {
	return fmt.Sprintf("value %s is out of range for %s", e.Value, e.Value.Type().ID())
}
