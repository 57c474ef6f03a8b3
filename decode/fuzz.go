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

package decode

import (
	"github.com/onflow/evmcodec"
	"github.com/onflow/evmcodec/allocate"
	"github.com/onflow/evmcodec/compilation"
	"github.com/onflow/evmcodec/read"
)

var fuzzFunction = &compilation.Function{
	Name: "fuzz",
	Inputs: []compilation.Parameter{
		{Name: "amount", Type: evmcodec.UintType{Bits: 256}},
		{Name: "data", Type: evmcodec.NewDynamicBytesType(evmcodec.DataLocationMemory)},
		{
			Name: "names",
			Type: evmcodec.NewDynamicArrayType(
				evmcodec.StringType{Location: evmcodec.DataLocationMemory},
				evmcodec.DataLocationMemory,
			),
		},
		{
			Name: "pairs",
			Type: evmcodec.NewStaticArrayType(
				evmcodec.NewTupleType([]evmcodec.NameTypePair{
					{Name: "flag", Type: evmcodec.TheBoolType},
					{Name: "text", Type: evmcodec.StringType{Location: evmcodec.DataLocationMemory}},
				}),
				2,
				evmcodec.DataLocationMemory,
			),
		},
	},
}

// Fuzz decodes the given data as the arguments of a call,
// and returns 1 if the decoding ran to completion.
func Fuzz(data []byte) int {
	function, err := allocate.AllocateFunction(fuzzFunction, evmcodec.TypeDefinitions{})
	if err != nil {
		return 0
	}

	calldata := make([]byte, 0, allocate.SelectorSize+len(data))
	calldata = append(calldata, function.Selector[:]...)
	calldata = append(calldata, data...)

	info := &Info{
		State: &read.State{Calldata: calldata},
		Options: Options{
			Strict:         true,
			StrictBooleans: true,
		},
	}

	allocations := &allocate.CalldataAllocations{
		Functions: map[[4]byte]*allocate.FunctionAllocation{
			function.Selector: function,
		},
	}

	_, err = DecodeCalldata(info, allocations, false)
	if err != nil {
		return 0
	}

	return 1
}
