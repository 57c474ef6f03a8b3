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
	"math/big"

	"github.com/onflow/evmcodec"
	"github.com/onflow/evmcodec/common"
)

// Encode returns the ABI encoding of the given value.
func Encode(value evmcodec.Value) ([]byte, error) {
	dynamic, err := isDynamic(value)
	if err != nil {
		return nil, err
	}
	if !dynamic {
		return encodeStatic(value)
	}
	// A dynamic value on its own is encoded like a one-element tuple
	return EncodeTuple([]evmcodec.Value{value})
}

// EncodeTuple returns the ABI encoding of the tuple of the given values,
// e.g. the arguments of a function call.
func EncodeTuple(values []evmcodec.Value) ([]byte, error) {
	heads := make([][]byte, len(values))
	tails := make([][]byte, len(values))

	var headLength uint64
	for i, value := range values {
		dynamic, err := isDynamic(value)
		if err != nil {
			return nil, err
		}

		if dynamic {
			tail, err := encodeDynamic(value)
			if err != nil {
				return nil, err
			}
			tails[i] = tail
			headLength += common.WordSize
		} else {
			head, err := encodeStatic(value)
			if err != nil {
				return nil, err
			}
			heads[i] = head
			headLength += uint64(len(head))
		}
	}

	result := make([]byte, 0, headLength)
	offset := headLength
	for i := range values {
		if tails[i] == nil {
			result = append(result, heads[i]...)
			continue
		}
		result = append(result, uint64Word(offset)...)
		offset += uint64(len(tails[i]))
	}
	for _, tail := range tails {
		result = append(result, tail...)
	}
	return result, nil
}

// EncodeCall returns the calldata for a call of the function with the given selector.
func EncodeCall(selector [4]byte, arguments []evmcodec.Value) ([]byte, error) {
	encoded, err := EncodeTuple(arguments)
	if err != nil {
		return nil, err
	}
	return append(selector[:], encoded...), nil
}

func isDynamic(value evmcodec.Value) (bool, error) {
	switch value := value.(type) {
	case evmcodec.BytesValue:
		return value.BytesType.Dynamic, nil

	case evmcodec.StringValue:
		return true, nil

	case evmcodec.ArrayValue:
		if value.ArrayType.Dynamic {
			return true, nil
		}
		return anyDynamic(value.Elements)

	case evmcodec.StructValue:
		return anyDynamicMember(value.Members)

	case evmcodec.TupleValue:
		return anyDynamicMember(value.Members)

	case evmcodec.MappingValue,
		evmcodec.ErrorValue,
		evmcodec.MagicValue,
		evmcodec.FunctionInternalValue:

		return false, &UnsupportedValueError{
			Value: value,
			Usage: "ABI",
		}
	}
	return false, nil
}

func anyDynamic(values []evmcodec.Value) (bool, error) {
	for _, element := range values {
		dynamic, err := isDynamic(element)
		if err != nil || dynamic {
			return dynamic, err
		}
	}
	return false, nil
}

func anyDynamicMember(members []evmcodec.NameValuePair) (bool, error) {
	for _, member := range members {
		dynamic, err := isDynamic(member.Value)
		if err != nil || dynamic {
			return dynamic, err
		}
	}
	return false, nil
}

func memberValues(members []evmcodec.NameValuePair) []evmcodec.Value {
	values := make([]evmcodec.Value, len(members))
	for i, member := range members {
		values[i] = member.Value
	}
	return values
}

func encodeStatic(value evmcodec.Value) ([]byte, error) {
	switch value := value.(type) {
	case evmcodec.ArrayValue:
		return EncodeTuple(value.Elements)

	case evmcodec.StructValue:
		return EncodeTuple(memberValues(value.Members))

	case evmcodec.TupleValue:
		return EncodeTuple(memberValues(value.Members))

	case evmcodec.FunctionExternalValue:
		word := make([]byte, 0, common.WordSize)
		word = append(word, value.Address.Bytes()...)
		word = append(word, value.Selector[:]...)
		return common.PadRight(word, common.WordSize), nil

	case evmcodec.UserDefinedValueTypeValue:
		return encodeStatic(value.Value)
	}

	return encodeWord(value)
}

// encodeDynamic returns the tail encoding of a dynamic value.
func encodeDynamic(value evmcodec.Value) ([]byte, error) {
	switch value := value.(type) {
	case evmcodec.BytesValue:
		return encodeLengthPrefixed(value.Value), nil

	case evmcodec.StringValue:
		return encodeLengthPrefixed(value.Bytes()), nil

	case evmcodec.ArrayValue:
		encoded, err := EncodeTuple(value.Elements)
		if err != nil {
			return nil, err
		}
		if !value.ArrayType.Dynamic {
			return encoded, nil
		}
		length := uint64Word(uint64(len(value.Elements)))
		return append(length, encoded...), nil

	case evmcodec.StructValue:
		return EncodeTuple(memberValues(value.Members))

	case evmcodec.TupleValue:
		return EncodeTuple(memberValues(value.Members))
	}

	return nil, &UnsupportedValueError{
		Value: value,
		Usage: "dynamic ABI",
	}
}

func encodeLengthPrefixed(data []byte) []byte {
	paddedLength := common.PaddedLength(uint64(len(data)))
	result := make([]byte, common.WordSize+paddedLength)
	copy(result, uint64Word(uint64(len(data))))
	copy(result[common.WordSize:], data)
	return result
}

func uint64Word(value uint64) []byte {
	word, _ := common.UnsignedBigIntToSizedBytes(new(big.Int).SetUint64(value), common.WordSize)
	return word
}

// encodeWord encodes an elementary value type as a single, padded word.
func encodeWord(value evmcodec.Value) ([]byte, error) {
	var word []byte
	var ok bool

	switch value := value.(type) {
	case evmcodec.UintValue:
		word, ok = unsignedWord(value.Value, value.UintType.Bits)

	case evmcodec.IntValue:
		word, ok = signedWord(value.Value, value.IntType.Bits)

	case evmcodec.UfixedValue:
		word, ok = unsignedWord(value.Raw, value.UfixedType.Bits)

	case evmcodec.FixedValue:
		word, ok = signedWord(value.Raw, value.FixedType.Bits)

	case evmcodec.EnumValue:
		word, ok = unsignedWord(value.Numeric, 256)

	case evmcodec.BoolValue:
		word = make([]byte, common.WordSize)
		if value {
			word[common.WordSize-1] = 1
		}
		ok = true

	case evmcodec.AddressValue:
		word, ok = common.PadLeft(value.Value.Bytes(), common.WordSize, 0), true

	case evmcodec.ContractValue:
		word, ok = common.PadLeft(value.Address.Bytes(), common.WordSize, 0), true

	case evmcodec.BytesValue:
		if value.BytesType.Dynamic || len(value.Value) > common.WordSize {
			return nil, &UnsupportedValueError{
				Value: value,
				Usage: "word",
			}
		}
		word, ok = common.PadRight(value.Value, common.WordSize), true

	default:
		return nil, &UnsupportedValueError{
			Value: value,
			Usage: "word",
		}
	}

	if !ok {
		return nil, &ValueOutOfRangeError{Value: value}
	}
	return word, nil
}

func unsignedWord(value *big.Int, bits uint) ([]byte, bool) {
	if value.Sign() < 0 || uint(value.BitLen()) > bits {
		return nil, false
	}
	return common.UnsignedBigIntToSizedBytes(value, common.WordSize)
}

func signedWord(value *big.Int, bits uint) ([]byte, bool) {
	bytes, ok := common.SignedBigIntToSizedBytes(value, int((bits+7)/8))
	if !ok {
		return nil, false
	}
	// Sign-extend to a full word
	var fill byte
	if value.Sign() < 0 {
		fill = 0xff
	}
	return common.PadLeft(bytes, common.WordSize, fill), true
}
