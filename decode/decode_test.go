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
	"bytes"
	"encoding/binary"
	"math/big"
	"reflect"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onflow/evmcodec"
	"github.com/onflow/evmcodec/allocate"
	evmcommon "github.com/onflow/evmcodec/common"
	"github.com/onflow/evmcodec/compilation"
	"github.com/onflow/evmcodec/encoding/abi"
	"github.com/onflow/evmcodec/pointer"
	"github.com/onflow/evmcodec/read"
	"github.com/onflow/evmcodec/test_utils/common_utils"
)

func uintWord(value uint64) []byte {
	word := make([]byte, evmcommon.WordSize)
	binary.BigEndian.PutUint64(word[evmcommon.WordSize-8:], value)
	return word
}

func slotHash(offset uint64) common.Hash {
	return common.BytesToHash(uintWord(offset))
}

func keccakHash(data ...[]byte) common.Hash {
	return common.BytesToHash(evmcommon.Keccak256(data...))
}

func hashPlus(hash common.Hash, words uint64) common.Hash {
	address := new(uint256.Int).SetBytes(hash[:])
	address.AddUint64(address, words)
	return common.Hash(address.Bytes32())
}

func testDefinitions() evmcodec.TypeDefinitions {
	definitions := evmcodec.TypeDefinitions{}
	definitions.Add(&evmcodec.StructDefinition{
		TypeID: "1",
		Name:   "Packed",
		Members: []evmcodec.NameTypePair{
			{Name: "a", Type: evmcodec.UintType{Bits: 8}},
			{Name: "b", Type: evmcodec.UintType{Bits: 8}},
			{Name: "c", Type: uint256Type},
		},
	})
	definitions.Add(&evmcodec.EnumDefinition{
		TypeID:  "2",
		Name:    "Color",
		Options: []string{"Red", "Green"},
	})
	return definitions
}

func decodeValue(t *testing.T, info *Info, typ evmcodec.Type, p pointer.Pointer) evmcodec.Value {
	t.Helper()

	value, err := DecodeVariable(info, typ, p)
	require.NoError(t, err)
	return value
}

func requireDecodingError[E evmcodec.DecodingError](t *testing.T, value evmcodec.Value) E {
	t.Helper()

	require.IsType(t, evmcodec.ErrorValue{}, value)
	var err E
	require.ErrorAs(t, value.(evmcodec.ErrorValue).Error, &err)
	return err
}

func TestDecodeABIRoundTrip(t *testing.T) {

	t.Parallel()

	decodeReturndata := func(value evmcodec.Value) evmcodec.Value {
		encoded, err := abi.Encode(value)
		if err != nil {
			return nil
		}
		decoded, err := DecodeVariable(
			&Info{
				State:   &read.State{Returndata: encoded},
				Options: Options{Strict: true, StrictBooleans: true},
			},
			value.Type(),
			pointer.ReturndataPointer{Start: 0, Length: evmcommon.WordSize},
		)
		if err != nil {
			return nil
		}
		return decoded
	}

	properties := gopter.NewProperties(nil)

	properties.Property("unsigned integers", prop.ForAll(
		func(value uint64) bool {
			decoded, ok := decodeReturndata(evmcodec.NewUintValue(64, new(big.Int).SetUint64(value))).(evmcodec.UintValue)
			return ok && decoded.Value.Uint64() == value
		},
		gen.UInt64(),
	))

	properties.Property("signed integers", prop.ForAll(
		func(value int64) bool {
			decoded, ok := decodeReturndata(evmcodec.NewIntValue(64, big.NewInt(value))).(evmcodec.IntValue)
			return ok && decoded.Value.Int64() == value
		},
		gen.Int64(),
	))

	properties.Property("booleans", prop.ForAll(
		func(value bool) bool {
			decoded, ok := decodeReturndata(evmcodec.BoolValue(value)).(evmcodec.BoolValue)
			return ok && bool(decoded) == value
		},
		gen.Bool(),
	))

	properties.Property("addresses", prop.ForAll(
		func(value []byte) bool {
			address := common.BytesToAddress(value)
			decoded, ok := decodeReturndata(evmcodec.AddressValue{Value: address}).(evmcodec.AddressValue)
			return ok && decoded.Value == address
		},
		gen.SliceOfN(20, gen.UInt8()),
	))

	properties.Property("static bytes", prop.ForAll(
		func(value []byte) bool {
			bytesType := evmcodec.NewStaticBytesType(uint(len(value)))
			decoded, ok := decodeReturndata(evmcodec.BytesValue{
				BytesType: bytesType,
				Value:     value,
			}).(evmcodec.BytesValue)
			return ok && bytes.Equal(decoded.Value, value)
		},
		gen.IntRange(1, 32).FlatMap(
			func(length any) gopter.Gen {
				return gen.SliceOfN(length.(int), gen.UInt8())
			},
			reflect.TypeOf([]byte{}),
		),
	))

	properties.TestingRun(t)
}

func TestDecodeElementary(t *testing.T) {

	t.Parallel()

	definitions := testDefinitions()

	decodeLiteral := func(t *testing.T, typ evmcodec.Type, literal []byte, options Options) evmcodec.Value {
		return decodeValue(
			t,
			&Info{Definitions: definitions, Options: options},
			typ,
			pointer.StackLiteralPointer{Literal: literal},
		)
	}

	t.Run("bool", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, evmcodec.BoolValue(true), decodeLiteral(t, evmcodec.TheBoolType, []byte{1}, Options{}))
		assert.Equal(t, evmcodec.BoolValue(false), decodeLiteral(t, evmcodec.TheBoolType, []byte{0}, Options{}))
		assert.Equal(t, evmcodec.BoolValue(true), decodeLiteral(t, evmcodec.TheBoolType, []byte{2}, Options{}))
	})

	t.Run("strict bool", func(t *testing.T) {
		t.Parallel()

		value := decodeLiteral(t, evmcodec.TheBoolType, []byte{2}, Options{StrictBooleans: true})
		requireDecodingError[*evmcodec.BoolOutOfRangeError](t, value)

		value = decodeLiteral(t, evmcodec.TheBoolType, []byte{1, 0}, Options{StrictBooleans: true})
		requireDecodingError[*evmcodec.BoolOutOfRangeError](t, value)

		value = decodeLiteral(t, evmcodec.TheBoolType, []byte{1}, Options{StrictBooleans: true})
		assert.Equal(t, evmcodec.BoolValue(true), value)
	})

	t.Run("strict bool, calldata", func(t *testing.T) {
		t.Parallel()

		word := make([]byte, evmcommon.WordSize)
		word[evmcommon.WordSize-2] = 1

		value := decodeValue(
			t,
			&Info{
				Definitions: definitions,
				State:       &read.State{Calldata: word},
				Options:     Options{StrictBooleans: true},
			},
			evmcodec.TheBoolType,
			pointer.CalldataPointer{Start: 0, Length: evmcommon.WordSize},
		)
		requireDecodingError[*evmcodec.BoolOutOfRangeError](t, value)

		value = decodeValue(
			t,
			&Info{
				Definitions: definitions,
				State:       &read.State{Calldata: word},
			},
			evmcodec.TheBoolType,
			pointer.CalldataPointer{Start: 0, Length: evmcommon.WordSize},
		)
		assert.Equal(t, evmcodec.BoolValue(true), value)
	})

	t.Run("negative int", func(t *testing.T) {
		t.Parallel()

		value := decodeLiteral(t, evmcodec.IntType{Bits: 16}, bytes.Repeat([]byte{0xff}, 32), Options{})
		require.IsType(t, evmcodec.IntValue{}, value)
		assert.Equal(t, int64(-1), value.(evmcodec.IntValue).Value.Int64())
	})

	t.Run("enum", func(t *testing.T) {
		t.Parallel()

		enumType := &evmcodec.EnumType{TypeID: "2", Name: "Color"}

		value := decodeLiteral(t, enumType, []byte{1}, Options{})
		require.IsType(t, evmcodec.EnumValue{}, value)
		assert.Equal(t, "Green", value.(evmcodec.EnumValue).Name)

		value = decodeLiteral(t, enumType, []byte{2}, Options{})
		requireDecodingError[*evmcodec.EnumOutOfRangeError](t, value)
	})

	t.Run("internal function", func(t *testing.T) {
		t.Parallel()

		functionType := &evmcodec.FunctionType{Visibility: evmcodec.FunctionVisibilityInternal}
		value := decodeLiteral(t, functionType, []byte{0, 0, 0, 0x10, 0, 0, 0, 0x20}, Options{})
		require.IsType(t, evmcodec.FunctionInternalValue{}, value)
		function := value.(evmcodec.FunctionInternalValue)
		assert.Equal(t, uint32(0x10), function.ConstructorPC)
		assert.Equal(t, uint32(0x20), function.DeployedPC)
	})
}

func TestDecodeSharedInfo(t *testing.T) {

	t.Parallel()

	info := &Info{
		Definitions: testDefinitions(),
		State:       &read.State{Calldata: uintWord(42)},
	}

	const count = 8

	values := make([]evmcodec.Value, count)
	errs := make([]error, count)

	var wg sync.WaitGroup
	for i := 0; i < count; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			values[i], errs[i] = DecodeVariable(
				info,
				uint256Type,
				pointer.CalldataPointer{Start: 0, Length: evmcommon.WordSize},
			)
		}(i)
	}
	wg.Wait()

	for i := 0; i < count; i++ {
		require.NoError(t, errs[i])
		require.IsType(t, evmcodec.UintValue{}, values[i])
		assert.Equal(t, uint64(42), values[i].(evmcodec.UintValue).Value.Uint64())
	}

	// Computed allocations stay with the decoder
	assert.Nil(t, info.Allocations)
}

func TestDecodeStorage(t *testing.T) {

	t.Parallel()

	definitions := testDefinitions()

	decodeStorage := func(
		t *testing.T,
		storage map[common.Hash]common.Hash,
		typ evmcodec.Type,
		slot *pointer.Slot,
		words uint64,
		mappingKeys ...*pointer.Slot,
	) evmcodec.Value {
		return decodeValue(
			t,
			&Info{
				State:       &read.State{Storage: storage},
				Definitions: definitions,
				MappingKeys: mappingKeys,
			},
			typ,
			pointer.StoragePointer{Range: pointer.RangeFromWords(slot, words)},
		)
	}

	stringType := evmcodec.StringType{Location: evmcodec.DataLocationStorage}

	t.Run("short string", func(t *testing.T) {
		t.Parallel()

		word := make([]byte, evmcommon.WordSize)
		copy(word, "abc")
		word[pointer.LastIndex] = 3 * 2

		value := decodeStorage(
			t,
			map[common.Hash]common.Hash{slotHash(0): common.BytesToHash(word)},
			stringType,
			pointer.NewSlot(0),
			1,
		)
		require.IsType(t, evmcodec.StringValue{}, value)
		assert.Equal(t, "abc", value.(evmcodec.StringValue).Value)
	})

	t.Run("long string", func(t *testing.T) {
		t.Parallel()

		contents := "0123456789012345678901234567890123456789"
		data := keccakHash(slotHash(0).Bytes())

		storage := map[common.Hash]common.Hash{
			slotHash(0):       common.BytesToHash(uintWord(uint64(len(contents))*2 + 1)),
			data:              common.BytesToHash([]byte(contents[:32])),
			hashPlus(data, 1): common.BytesToHash(evmcommon.PadRight([]byte(contents[32:]), 32)),
		}

		value := decodeStorage(t, storage, stringType, pointer.NewSlot(0), 1)
		require.IsType(t, evmcodec.StringValue{}, value)
		assert.Equal(t, contents, value.(evmcodec.StringValue).Value)
	})

	t.Run("dynamic array", func(t *testing.T) {
		t.Parallel()

		data := keccakHash(slotHash(1).Bytes())

		first := make([]byte, evmcommon.WordSize)
		first[15] = 0x22
		first[31] = 0x11

		storage := map[common.Hash]common.Hash{
			slotHash(1):       common.BytesToHash(uintWord(3)),
			data:              common.BytesToHash(first),
			hashPlus(data, 1): common.BytesToHash(uintWord(0x33)),
		}

		arrayType := evmcodec.NewDynamicArrayType(evmcodec.UintType{Bits: 128}, evmcodec.DataLocationStorage)
		value := decodeStorage(t, storage, arrayType, pointer.NewSlot(1), 1)
		require.IsType(t, evmcodec.ArrayValue{}, value)

		elements := value.(evmcodec.ArrayValue).Elements
		require.Len(t, elements, 3)
		for i, expected := range []uint64{0x11, 0x22, 0x33} {
			require.IsType(t, evmcodec.UintValue{}, elements[i])
			assert.Equal(t, expected, elements[i].(evmcodec.UintValue).Value.Uint64())
		}
	})

	t.Run("packed struct", func(t *testing.T) {
		t.Parallel()

		packed := make([]byte, evmcommon.WordSize)
		packed[31] = 1
		packed[30] = 2

		storage := map[common.Hash]common.Hash{
			slotHash(2): common.BytesToHash(packed),
			slotHash(3): common.BytesToHash(uintWord(3)),
		}

		structType := &evmcodec.StructType{
			TypeID:   "1",
			Name:     "Packed",
			Location: evmcodec.DataLocationStorage,
		}
		value := decodeStorage(t, storage, structType, pointer.NewSlot(2), 2)
		require.IsType(t, evmcodec.StructValue{}, value)

		common_utils.AssertEqualValue(t,
			evmcodec.StructValue{
				StructType: structType,
				Members: []evmcodec.NameValuePair{
					{Name: "a", Value: evmcodec.NewUintValue(8, big.NewInt(1))},
					{Name: "b", Value: evmcodec.NewUintValue(8, big.NewInt(2))},
					{Name: "c", Value: evmcodec.NewUintValue(256, big.NewInt(3))},
				},
			},
			value,
		)
	})

	t.Run("mapping", func(t *testing.T) {
		t.Parallel()

		key := evmcodec.NewUintValue(256, big.NewInt(7))
		entry := keccakHash(uintWord(7), uintWord(5))

		storage := map[common.Hash]common.Hash{
			entry: common.BytesToHash(uintWord(42)),
		}

		mappingType := evmcodec.NewMappingType(uint256Type, uint256Type)
		value := decodeStorage(
			t,
			storage,
			mappingType,
			pointer.NewSlot(5),
			1,
			pointer.NewMappingSlot(pointer.NewSlot(5), key),
			// Duplicate
			pointer.NewMappingSlot(pointer.NewSlot(5), key),
			// Other mapping
			pointer.NewMappingSlot(pointer.NewSlot(6), key),
		)
		require.IsType(t, evmcodec.MappingValue{}, value)

		entries := value.(evmcodec.MappingValue).Entries
		require.Len(t, entries, 1)
		assert.Equal(t, key, entries[0].Key)
		require.IsType(t, evmcodec.UintValue{}, entries[0].Value)
		assert.Equal(t, uint64(42), entries[0].Value.(evmcodec.UintValue).Value.Uint64())
	})

	t.Run("missing", func(t *testing.T) {
		t.Parallel()

		value := decodeStorage(t, nil, uint256Type, pointer.NewSlot(0), 1)
		err := requireDecodingError[*evmcodec.MissingStorageError](t, value)
		assert.Equal(t, slotHash(0).Hex(), err.Slot)
	})
}

func TestDecodeMemory(t *testing.T) {

	t.Parallel()

	stringType := evmcodec.StringType{Location: evmcodec.DataLocationMemory}

	t.Run("string", func(t *testing.T) {
		t.Parallel()

		memory := append(uintWord(0x20), uintWord(3)...)
		memory = append(memory, evmcommon.PadRight([]byte("abc"), 32)...)

		value := decodeValue(
			t,
			&Info{State: &read.State{Memory: memory}},
			stringType,
			pointer.MemoryPointer{Start: 0, Length: evmcommon.WordSize},
		)
		require.IsType(t, evmcodec.StringValue{}, value)
		assert.Equal(t, "abc", value.(evmcodec.StringValue).Value)
	})

	t.Run("overlong", func(t *testing.T) {
		t.Parallel()

		memory := append(uintWord(0x20), uintWord(1000)...)

		value := decodeValue(
			t,
			&Info{State: &read.State{Memory: memory}},
			stringType,
			pointer.MemoryPointer{Start: 0, Length: evmcommon.WordSize},
		)
		requireDecodingError[*evmcodec.ReadOutOfRangeError](t, value)
	})
}

func TestDecodeStack(t *testing.T) {

	t.Parallel()

	t.Run("value", func(t *testing.T) {
		t.Parallel()

		value := decodeValue(
			t,
			&Info{State: &read.State{Stack: []uint256.Int{*uint256.NewInt(5)}}},
			evmcodec.UintType{Bits: 8},
			pointer.StackPointer{From: 0, To: 0},
		)
		require.IsType(t, evmcodec.UintValue{}, value)
		assert.Equal(t, uint64(5), value.(evmcodec.UintValue).Value.Uint64())
	})

	t.Run("storage reference", func(t *testing.T) {
		t.Parallel()

		word := make([]byte, evmcommon.WordSize)
		copy(word, "abc")
		word[pointer.LastIndex] = 3 * 2

		value := decodeValue(
			t,
			&Info{
				State: &read.State{
					Stack:   []uint256.Int{*uint256.NewInt(4)},
					Storage: map[common.Hash]common.Hash{slotHash(4): common.BytesToHash(word)},
				},
			},
			evmcodec.StringType{Location: evmcodec.DataLocationStorage},
			pointer.StackPointer{From: 0, To: 0},
		)
		require.IsType(t, evmcodec.StringValue{}, value)
		assert.Equal(t, "abc", value.(evmcodec.StringValue).Value)
	})

	t.Run("calldata reference", func(t *testing.T) {
		t.Parallel()

		calldata := append([]byte{1, 2, 3, 4}, evmcommon.PadRight([]byte("hello"), 32)...)

		value := decodeValue(
			t,
			&Info{
				State: &read.State{
					Stack:    []uint256.Int{*uint256.NewInt(4), *uint256.NewInt(5)},
					Calldata: calldata,
				},
			},
			evmcodec.NewDynamicBytesType(evmcodec.DataLocationCalldata),
			pointer.StackPointer{From: 0, To: 1},
		)
		require.IsType(t, evmcodec.BytesValue{}, value)
		assert.Equal(t, []byte("hello"), value.(evmcodec.BytesValue).Value)
	})

	t.Run("external function", func(t *testing.T) {
		t.Parallel()

		address := common.HexToAddress("0x00000000000000000000000000000000000000aa")

		value := decodeValue(
			t,
			&Info{
				State: &read.State{
					Stack: []uint256.Int{
						*new(uint256.Int).SetBytes(address.Bytes()),
						*uint256.NewInt(0xa9059cbb),
					},
				},
			},
			&evmcodec.FunctionType{Visibility: evmcodec.FunctionVisibilityExternal},
			pointer.StackPointer{From: 0, To: 1},
		)
		require.IsType(t, evmcodec.FunctionExternalValue{}, value)
		function := value.(evmcodec.FunctionExternalValue)
		assert.Equal(t, address, function.Address)
		assert.Equal(t, [4]byte{0xa9, 0x05, 0x9c, 0xbb}, function.Selector)
		assert.Nil(t, function.Class)
	})
}

func TestDecodeDefinition(t *testing.T) {

	t.Parallel()

	definition := func(kind pointer.DefinitionKind, literal string) pointer.Pointer {
		return pointer.DefinitionPointer{
			Definition: &pointer.Definition{Name: "C", Kind: kind, Value: literal},
		}
	}

	info := &Info{}

	value := decodeValue(t, info, uint256Type, definition(pointer.DefinitionKindNumber, "1e3"))
	require.IsType(t, evmcodec.UintValue{}, value)
	assert.Equal(t, uint64(1000), value.(evmcodec.UintValue).Value.Uint64())

	value = decodeValue(t, info, evmcodec.NewStaticBytesType(4), definition(pointer.DefinitionKindNumber, "0x12345678"))
	require.IsType(t, evmcodec.BytesValue{}, value)
	assert.Equal(t, []byte{0x12, 0x34, 0x56, 0x78}, value.(evmcodec.BytesValue).Value)

	value = decodeValue(t, info, evmcodec.StringType{}, definition(pointer.DefinitionKindString, "hi"))
	require.IsType(t, evmcodec.StringValue{}, value)
	assert.Equal(t, "hi", value.(evmcodec.StringValue).Value)

	value = decodeValue(t, info, evmcodec.TheBoolType, definition(pointer.DefinitionKindBool, "true"))
	assert.Equal(t, evmcodec.BoolValue(true), value)

	value = decodeValue(t, info, evmcodec.NewStaticBytesType(2), definition(pointer.DefinitionKindNumber, "0x123456"))
	requireDecodingError[*evmcodec.InvalidDefinitionError](t, value)
}

func TestDecodeMagic(t *testing.T) {

	t.Parallel()

	sender := common.HexToAddress("0x00000000000000000000000000000000000000bb")
	calldata := []byte{0xa9, 0x05, 0x9c, 0xbb, 0x01}

	value := decodeValue(
		t,
		&Info{
			State: &read.State{
				Calldata: calldata,
				Specials: map[string][]byte{
					"sender": sender.Bytes(),
					"value":  uintWord(7),
				},
			},
		},
		&evmcodec.MagicType{Variable: evmcodec.MagicVariableMessage},
		pointer.SpecialPointer{Special: "msg"},
	)
	require.IsType(t, evmcodec.MagicValue{}, value)
	magic := value.(evmcodec.MagicValue)

	data := magic.Member("data")
	require.IsType(t, evmcodec.BytesValue{}, data)
	assert.Equal(t, calldata, data.(evmcodec.BytesValue).Value)

	sig := magic.Member("sig")
	require.IsType(t, evmcodec.BytesValue{}, sig)
	assert.Equal(t, calldata[:4], sig.(evmcodec.BytesValue).Value)

	senderValue := magic.Member("sender")
	require.IsType(t, evmcodec.AddressValue{}, senderValue)
	assert.Equal(t, sender, senderValue.(evmcodec.AddressValue).Value)

	amount := magic.Member("value")
	require.IsType(t, evmcodec.UintValue{}, amount)
	assert.Equal(t, uint64(7), amount.(evmcodec.UintValue).Value.Uint64())
}

func testCalldataAllocations(t *testing.T, functions ...*compilation.Function) *allocate.CalldataAllocations {
	t.Helper()

	allocations := &allocate.CalldataAllocations{
		Functions: map[[4]byte]*allocate.FunctionAllocation{},
	}
	for _, function := range functions {
		allocation, err := allocate.AllocateFunction(function, nil)
		require.NoError(t, err)
		allocations.Functions[allocation.Selector] = allocation
	}
	return allocations
}

func TestDecodeCalldata(t *testing.T) {

	t.Parallel()

	bytesFunction := &compilation.Function{
		Name: "store",
		Inputs: []compilation.Parameter{
			{Name: "data", Type: evmcodec.NewDynamicBytesType(evmcodec.DataLocationMemory)},
		},
	}
	bytesSelector := abi.Selector("store(bytes)")

	mixedFunction := &compilation.Function{
		Name: "mixed",
		Inputs: []compilation.Parameter{
			{Name: "a", Type: uint256Type},
			{Name: "s", Type: evmcodec.StringType{Location: evmcodec.DataLocationMemory}},
			{Name: "xs", Type: evmcodec.NewDynamicArrayType(evmcodec.UintType{Bits: 8}, evmcodec.DataLocationMemory)},
		},
	}

	smallFunction := &compilation.Function{
		Name: "small",
		Inputs: []compilation.Parameter{
			{Name: "x", Type: evmcodec.UintType{Bits: 8}},
		},
	}

	allocations := testCalldataAllocations(t, bytesFunction, mixedFunction, smallFunction)

	decodeCalldata := func(calldata []byte, options Options) (*CallDecoding, error) {
		return DecodeCalldata(
			&Info{
				State:   &read.State{Calldata: calldata},
				Options: options,
			},
			allocations,
			false,
		)
	}

	bytesCalldata := func(offset uint64, length uint64, data []byte) []byte {
		calldata := append(bytesSelector[:], uintWord(offset)...)
		calldata = append(calldata, uintWord(length)...)
		return append(calldata, data...)
	}

	t.Run("bytes", func(t *testing.T) {
		t.Parallel()

		data := []byte("hello")
		calldata := bytesCalldata(0x20, uint64(len(data)), evmcommon.PadRight(data, 32))
		// The data is followed by other data, which must not be read
		calldata[4+32+32+len(data)] = 0xff

		call, err := decodeCalldata(calldata, Options{})
		require.NoError(t, err)
		require.NotNil(t, call.Allocation)
		assert.Equal(t, "store(bytes)", call.Allocation.Signature)
		require.Len(t, call.Arguments, 1)

		value := call.Arguments[0].Value
		require.IsType(t, evmcodec.BytesValue{}, value)
		assert.Equal(t, data, value.(evmcodec.BytesValue).Value)
	})

	t.Run("overlong bytes", func(t *testing.T) {
		t.Parallel()

		calldata := bytesCalldata(0x20, 100, make([]byte, 32))

		call, err := decodeCalldata(calldata, Options{})
		require.NoError(t, err)
		require.Len(t, call.Arguments, 1)
		requireDecodingError[*evmcodec.ReadOutOfRangeError](t, call.Arguments[0].Value)
	})

	t.Run("overlong bytes, strict", func(t *testing.T) {
		t.Parallel()

		calldata := bytesCalldata(0x20, 100, make([]byte, 32))

		_, err := decodeCalldata(calldata, Options{Strict: true})
		var stopErr *StopDecodingError
		require.ErrorAs(t, err, &stopErr)
		var lengthErr *evmcodec.OverlargeLengthError
		require.ErrorAs(t, err, &lengthErr)
	})

	t.Run("offset out of range", func(t *testing.T) {
		t.Parallel()

		calldata := bytesCalldata(0x1000, 0, nil)

		_, err := decodeCalldata(calldata, Options{})
		var offsetErr *evmcodec.OffsetOutOfRangeError
		require.ErrorAs(t, err, &offsetErr)
		assert.Equal(t, "calldata", offsetErr.Location)
	})

	t.Run("mixed", func(t *testing.T) {
		t.Parallel()

		calldata, err := abi.EncodeCall(
			abi.Selector("mixed(uint256,string,uint8[])"),
			[]evmcodec.Value{
				evmcodec.NewUintValue(256, big.NewInt(5)),
				evmcodec.NewStringValue(evmcodec.StringType{}, []byte("hello")),
				evmcodec.ArrayValue{
					ArrayType: evmcodec.NewDynamicArrayType(evmcodec.UintType{Bits: 8}, evmcodec.DataLocationMemory),
					Elements: []evmcodec.Value{
						evmcodec.NewUintValue(8, big.NewInt(1)),
						evmcodec.NewUintValue(8, big.NewInt(2)),
					},
				},
			},
		)
		require.NoError(t, err)

		call, err := decodeCalldata(calldata, Options{Strict: true})
		require.NoError(t, err)
		require.NotNil(t, call.Allocation)
		require.Len(t, call.Arguments, 3)

		assert.Equal(t, "a", call.Arguments[0].Name)
		require.IsType(t, evmcodec.UintValue{}, call.Arguments[0].Value)
		assert.Equal(t, uint64(5), call.Arguments[0].Value.(evmcodec.UintValue).Value.Uint64())

		require.IsType(t, evmcodec.StringValue{}, call.Arguments[1].Value)
		assert.Equal(t, "hello", call.Arguments[1].Value.(evmcodec.StringValue).Value)

		require.IsType(t, evmcodec.ArrayValue{}, call.Arguments[2].Value)
		elements := call.Arguments[2].Value.(evmcodec.ArrayValue).Elements
		require.Len(t, elements, 2)
		assert.Equal(t, uint64(2), elements[1].(evmcodec.UintValue).Value.Uint64())
	})

	t.Run("dirty padding", func(t *testing.T) {
		t.Parallel()

		selector := abi.Selector("small(uint8)")
		word := uintWord(0x0107)
		calldata := append(selector[:], word...)

		call, err := decodeCalldata(calldata, Options{})
		require.NoError(t, err)
		require.IsType(t, evmcodec.UintValue{}, call.Arguments[0].Value)
		assert.Equal(t, uint64(7), call.Arguments[0].Value.(evmcodec.UintValue).Value.Uint64())

		call, err = decodeCalldata(calldata, Options{Strict: true})
		require.NoError(t, err)
		requireDecodingError[*evmcodec.PaddingError](t, call.Arguments[0].Value)
	})

	t.Run("unknown selector", func(t *testing.T) {
		t.Parallel()

		call, err := decodeCalldata([]byte{1, 2, 3, 4}, Options{})
		require.NoError(t, err)
		assert.Nil(t, call.Allocation)
		assert.Equal(t, [4]byte{1, 2, 3, 4}, call.Selector)

		call, err = decodeCalldata([]byte{1, 2}, Options{})
		require.NoError(t, err)
		assert.Nil(t, call.Allocation)
	})

	t.Run("constructor", func(t *testing.T) {
		t.Parallel()

		contract := &compilation.Contract{
			ID:   "C",
			Name: "C",
			Constructor: &compilation.Function{
				Inputs: []compilation.Parameter{
					{Name: "x", Type: uint256Type},
				},
			},
			Bytecode: compilation.Bytecode{Binary: "0x60806040"},
		}
		constructorAllocations, err := allocate.GetCalldataAllocations(contract, nil)
		require.NoError(t, err)

		calldata := append(contract.Bytecode.Bytes(), uintWord(9)...)
		assert.True(t, IsConstructorCall(contract.Bytecode.Bytes(), calldata))

		call, err := DecodeCalldata(
			&Info{State: &read.State{Calldata: calldata}},
			constructorAllocations,
			true,
		)
		require.NoError(t, err)
		require.Len(t, call.Arguments, 1)
		require.IsType(t, evmcodec.UintValue{}, call.Arguments[0].Value)
		assert.Equal(t, uint64(9), call.Arguments[0].Value.(evmcodec.UintValue).Value.Uint64())
	})

	t.Run("find function", func(t *testing.T) {
		t.Parallel()

		function, ok := FindFunction(allocations, bytesCalldata(0x20, 0, nil))
		require.True(t, ok)
		assert.Same(t, bytesFunction, function.Function)

		_, ok = FindFunction(allocations, nil)
		assert.False(t, ok)
	})
}

func TestDecodeReturndata(t *testing.T) {

	t.Parallel()

	function, err := allocate.AllocateFunction(
		&compilation.Function{
			Name: "get",
			Outputs: []compilation.Parameter{
				{Name: "amount", Type: uint256Type},
				{Name: "ok", Type: evmcodec.TheBoolType},
			},
		},
		nil,
	)
	require.NoError(t, err)

	returndata, err := abi.EncodeTuple([]evmcodec.Value{
		evmcodec.NewUintValue(256, big.NewInt(9)),
		evmcodec.BoolValue(true),
	})
	require.NoError(t, err)

	values, err := DecodeReturndata(&Info{State: &read.State{Returndata: returndata}}, function)
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.Equal(t, "amount", values[0].Name)
	assert.Equal(t, uint64(9), values[0].Value.(evmcodec.UintValue).Value.Uint64())
	assert.Equal(t, evmcodec.BoolValue(true), values[1].Value)
}

func TestDecodeEvent(t *testing.T) {

	t.Parallel()

	addressType := evmcodec.AddressType{}

	token := &compilation.Contract{
		ID:   "T",
		Name: "Token",
		Events: []compilation.Event{
			{
				Name: "Transfer",
				Inputs: []compilation.Parameter{
					{Name: "from", Type: addressType, Indexed: true},
					{Name: "to", Type: addressType, Indexed: true},
					{Name: "value", Type: uint256Type},
				},
			},
			{
				Name: "Named",
				Inputs: []compilation.Parameter{
					{Name: "key", Type: evmcodec.StringType{Location: evmcodec.DataLocationMemory}, Indexed: true},
					{Name: "name", Type: evmcodec.StringType{Location: evmcodec.DataLocationMemory}},
				},
			},
		},
	}

	allocations, err := allocate.GetEventAllocations([]*compilation.Contract{token}, nil)
	require.NoError(t, err)

	from := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	to := common.HexToAddress("0x00000000000000000000000000000000000000bb")

	decodeEvent := func(topics []common.Hash, data []byte) []*EventDecoding {
		decodings, err := DecodeEvent(
			&Info{
				State: &read.State{
					EventTopics: topics,
					EventData:   data,
				},
			},
			allocations,
		)
		require.NoError(t, err)
		return decodings
	}

	transferTopic := abi.EventTopic("Transfer(address,address,uint256)")

	t.Run("transfer", func(t *testing.T) {
		t.Parallel()

		decodings := decodeEvent(
			[]common.Hash{
				transferTopic,
				common.BytesToHash(from.Bytes()),
				common.BytesToHash(to.Bytes()),
			},
			uintWord(100),
		)
		require.Len(t, decodings, 1)

		decoding := decodings[0]
		assert.Equal(t, "T", decoding.Allocation.ContractID)
		require.Len(t, decoding.Arguments, 3)
		assert.Equal(t, from, decoding.Arguments[0].Value.(evmcodec.AddressValue).Value)
		assert.Equal(t, to, decoding.Arguments[1].Value.(evmcodec.AddressValue).Value)
		assert.Equal(t, uint64(100), decoding.Arguments[2].Value.(evmcodec.UintValue).Value.Uint64())
	})

	t.Run("topic count", func(t *testing.T) {
		t.Parallel()

		decodings := decodeEvent(
			[]common.Hash{transferTopic, common.BytesToHash(from.Bytes())},
			uintWord(100),
		)
		assert.Empty(t, decodings)
	})

	t.Run("indexed string", func(t *testing.T) {
		t.Parallel()

		data := append(uintWord(0x20), uintWord(2)...)
		data = append(data, evmcommon.PadRight([]byte("hi"), 32)...)

		keyHash := keccakHash([]byte("key"))
		decodings := decodeEvent(
			[]common.Hash{abi.EventTopic("Named(string,string)"), keyHash},
			data,
		)
		require.Len(t, decodings, 1)

		arguments := decodings[0].Arguments
		err := requireDecodingError[*evmcodec.IndexedReferenceTypeError](t, arguments[0].Value)
		assert.Equal(t, keyHash.Bytes(), err.Raw)
		assert.Equal(t, "hi", arguments[1].Value.(evmcodec.StringValue).Value)
	})

	t.Run("corrupt data", func(t *testing.T) {
		t.Parallel()

		decodings := decodeEvent(
			[]common.Hash{abi.EventTopic("Named(string,string)"), keccakHash([]byte("key"))},
			uintWord(0x1000),
		)
		assert.Empty(t, decodings)
	})
}

func TestDecodeState(t *testing.T) {

	t.Parallel()

	contract := &compilation.Contract{
		ID:                      "C",
		Name:                    "C",
		LinearizedBaseContracts: []string{"C"},
		StateVariables: []compilation.StateVariable{
			{ID: "1", Name: "x", Type: uint256Type},
			{
				ID:         "2",
				Name:       "y",
				Type:       uint256Type,
				Mutability: compilation.MutabilityConstant,
				Definition: &pointer.Definition{Name: "y", Kind: pointer.DefinitionKindNumber, Value: "5"},
			},
			{ID: "3", Name: "z", Type: uint256Type, Mutability: compilation.MutabilityImmutable},
		},
	}

	allocation, err := allocate.GetContractStateAllocation(
		contract,
		map[string]*compilation.Contract{contract.ID: contract},
		nil,
	)
	require.NoError(t, err)

	variables, err := DecodeState(
		&Info{
			State: &read.State{
				Storage: map[common.Hash]common.Hash{
					slotHash(0): common.BytesToHash(uintWord(9)),
				},
			},
		},
		allocation,
	)
	require.NoError(t, err)

	values := map[string]evmcodec.Value{}
	for _, variable := range variables {
		values[variable.Name] = variable.Value
	}

	assert.Equal(t, uint64(9), values["x"].(evmcodec.UintValue).Value.Uint64())
	assert.Equal(t, uint64(5), values["y"].(evmcodec.UintValue).Value.Uint64())
	// Immutable without code reference
	requireDecodingError[*evmcodec.UnsupportedPointerError](t, values["z"])
}
