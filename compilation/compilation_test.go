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

package compilation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onflow/evmcodec"
)

func TestParseABIType(t *testing.T) {

	t.Parallel()

	memory := evmcodec.DataLocationMemory

	tests := map[string]evmcodec.Type{
		"bool":          evmcodec.TheBoolType,
		"address":       evmcodec.AddressType{},
		"uint":          evmcodec.UintType{Bits: 256},
		"uint8":         evmcodec.UintType{Bits: 8},
		"int128":        evmcodec.IntType{Bits: 128},
		"bytes":         evmcodec.NewDynamicBytesType(memory),
		"bytes32":       evmcodec.NewStaticBytesType(32),
		"byte":          evmcodec.NewStaticBytesType(1),
		"string":        evmcodec.StringType{Location: memory},
		"fixed":         evmcodec.FixedType{Bits: 128, Places: 18},
		"ufixed64x10":   evmcodec.UfixedType{Bits: 64, Places: 10},
		"function":      evmcodec.TheGeneralExternalFunctionType,
		"uint256[]":     evmcodec.NewDynamicArrayType(evmcodec.UintType{Bits: 256}, memory),
		"bytes4[3]":     evmcodec.NewStaticArrayType(evmcodec.NewStaticBytesType(4), 3, memory),
		"string[2][]":   evmcodec.NewDynamicArrayType(evmcodec.NewStaticArrayType(evmcodec.StringType{Location: memory}, 2, memory), memory),
		"address[][12]": evmcodec.NewStaticArrayType(evmcodec.NewDynamicArrayType(evmcodec.AddressType{}, memory), 12, memory),
	}

	for typeName, expected := range tests {
		typeName, expected := typeName, expected
		t.Run(typeName, func(t *testing.T) {
			t.Parallel()

			actual, err := ParseABIType(typeName, nil)
			require.NoError(t, err)
			assert.True(t,
				expected.Equal(actual),
				"expected %s, got %s", expected.ID(), actual.ID(),
			)
		})
	}

	for _, typeName := range []string{"uint7", "int264", "bytes0", "bytes33", "foo", "fixed8x81", "uint256[x]"} {
		typeName := typeName
		t.Run(typeName, func(t *testing.T) {
			t.Parallel()

			_, err := ParseABIType(typeName, nil)
			var invalidErr *InvalidABITypeError
			require.ErrorAs(t, err, &invalidErr)
		})
	}
}

func TestParseABI(t *testing.T) {

	t.Parallel()

	const abiJSON = `[
      {
        "type": "constructor",
        "inputs": [{"name": "owner", "type": "address"}],
        "stateMutability": "nonpayable"
      },
      {
        "type": "function",
        "name": "fill",
        "inputs": [
          {
            "name": "orders",
            "type": "tuple[]",
            "internalType": "struct Exchange.Order[]",
            "components": [
              {"name": "maker", "type": "address"},
              {"name": "amount", "type": "uint256"}
            ]
          },
          {"name": "token", "type": "address", "internalType": "contract IERC20"}
        ],
        "outputs": [{"name": "", "type": "bool"}],
        "stateMutability": "nonpayable"
      },
      {
        "type": "event",
        "name": "Filled",
        "inputs": [
          {"name": "maker", "type": "address", "indexed": true},
          {"name": "amount", "type": "uint256", "indexed": false}
        ],
        "anonymous": false
      },
      {"type": "error", "name": "Expired", "inputs": []},
      {"type": "fallback"}
    ]`

	parsed, err := ParseABI([]byte(abiJSON))
	require.NoError(t, err)

	require.NotNil(t, parsed.Constructor)
	require.Len(t, parsed.Constructor.Inputs, 1)
	assert.Equal(t, "owner", parsed.Constructor.Inputs[0].Name)

	require.Len(t, parsed.Functions, 1)
	fill := parsed.Functions[0]
	assert.Equal(t, "fill", fill.Name)
	require.Len(t, fill.Inputs, 2)

	orders, ok := fill.Inputs[0].Type.(*evmcodec.ArrayType)
	require.True(t, ok)
	assert.True(t, orders.Dynamic)
	tuple, ok := orders.Element.(*evmcodec.TupleType)
	require.True(t, ok)
	require.Len(t, tuple.Members, 2)
	assert.Equal(t, "maker", tuple.Members[0].Name)
	assert.Equal(t, evmcodec.UintType{Bits: 256}, tuple.Members[1].Type)

	token, ok := fill.Inputs[1].Type.(*evmcodec.ContractType)
	require.True(t, ok)
	assert.Equal(t, "IERC20", token.Name)
	assert.Equal(t, evmcodec.ContractTypeKindForeign, token.Kind)

	require.Len(t, parsed.Events, 1)
	filled := parsed.Events[0]
	assert.False(t, filled.Anonymous)
	assert.True(t, filled.Inputs[0].Indexed)
	assert.False(t, filled.Inputs[1].Indexed)
}

func TestBytecode(t *testing.T) {

	t.Parallel()

	bytecode := Bytecode{
		Binary: "0x6080__$0123456789abcdef0123456789abcdef01$__00",
	}
	assert.Equal(t, uint64(23), bytecode.Length())

	bytes := bytecode.Bytes()
	require.Len(t, bytes, 23)
	assert.Equal(t, byte(0x60), bytes[0])
	assert.Equal(t, byte(0x80), bytes[1])
	// placeholders are zeroed
	assert.Equal(t, byte(0), bytes[2])
}

func TestCompilation(t *testing.T) {

	t.Parallel()

	base := &Contract{ID: "1", Name: "Base"}
	derived := &Contract{ID: "2", Name: "Derived", LinearizedBaseContracts: []string{"2", "1"}}
	compilation := &Compilation{
		ID:        "c",
		Contracts: []*Contract{base, derived},
	}

	assert.Same(t, derived, compilation.Contract("2"))
	assert.Same(t, base, compilation.ContractByName("Base"))
	assert.Nil(t, compilation.Contract("3"))
	assert.Len(t, compilation.ContractsByID(), 2)

	contractType := derived.Type()
	assert.Equal(t, evmcodec.ContractTypeKindNative, contractType.Kind)
	assert.Equal(t, "Derived", contractType.Name)
}
