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

	"github.com/ethereum/go-ethereum/common"

	"github.com/onflow/evmcodec"
	evmcommon "github.com/onflow/evmcodec/common"
)

func isZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

func isAll(b []byte, value byte) bool {
	for _, c := range b {
		if c != value {
			return false
		}
	}
	return true
}

// decodeWord decodes a value type from a word.
// Numbers are aligned right, static bytes and external functions left.
// If checkPadding is set, the bytes outside the value must be clean.
func (d *Decoder) decodeWord(t evmcodec.Type, word []byte, checkPadding bool) evmcodec.Value {
	if len(word) != evmcommon.WordSize {
		word = evmcommon.PadLeft(word, evmcommon.WordSize, 0)
		if len(word) > evmcommon.WordSize {
			word = word[len(word)-evmcommon.WordSize:]
		}
	}

	paddingError := func() evmcodec.Value {
		return d.errorValue(t, &evmcodec.PaddingError{
			Type: t,
			Raw:  bytes.Clone(word),
		})
	}

	switch t := t.(type) {
	case evmcodec.UintType:
		size := int(t.Bits / 8)
		padding, raw := word[:evmcommon.WordSize-size], word[evmcommon.WordSize-size:]
		if checkPadding && !isZero(padding) {
			return paddingError()
		}
		return evmcodec.UintValue{
			UintType: t,
			Value:    evmcommon.BigEndianBytesToUnsignedBigInt(raw),
		}

	case evmcodec.IntType:
		raw, ok := signedBytes(word, int(t.Bits/8), checkPadding)
		if !ok {
			return paddingError()
		}
		return evmcodec.IntValue{
			IntType: t,
			Value:   evmcommon.BigEndianBytesToSignedBigInt(raw),
		}

	case evmcodec.UfixedType:
		size := int(t.Bits / 8)
		padding, raw := word[:evmcommon.WordSize-size], word[evmcommon.WordSize-size:]
		if checkPadding && !isZero(padding) {
			return paddingError()
		}
		return evmcodec.UfixedValue{
			UfixedType: t,
			Raw:        evmcommon.BigEndianBytesToUnsignedBigInt(raw),
		}

	case evmcodec.FixedType:
		raw, ok := signedBytes(word, int(t.Bits/8), checkPadding)
		if !ok {
			return paddingError()
		}
		return evmcodec.FixedValue{
			FixedType: t,
			Raw:       evmcommon.BigEndianBytesToSignedBigInt(raw),
		}

	case evmcodec.BoolType:
		last := word[evmcommon.WordSize-1]
		if checkPadding && !isZero(word[:evmcommon.WordSize-1]) {
			return paddingError()
		}
		if d.info.Options.StrictBooleans &&
			(last > 1 || !isZero(word[:evmcommon.WordSize-1])) {
			return d.errorValue(t, &evmcodec.BoolOutOfRangeError{
				Raw: bytes.Clone(word),
			})
		}
		return evmcodec.BoolValue(!isZero(word))

	case evmcodec.BytesType:
		if t.Dynamic {
			break
		}
		size := int(t.Length)
		if checkPadding && !isZero(word[size:]) {
			return paddingError()
		}
		return evmcodec.BytesValue{
			BytesType: t,
			Value:     bytes.Clone(word[:size]),
		}

	case evmcodec.AddressType:
		if checkPadding && !isZero(word[:12]) {
			return paddingError()
		}
		return evmcodec.AddressValue{
			AddressType: t,
			Value:       common.BytesToAddress(word[12:]),
		}

	case *evmcodec.ContractType:
		if checkPadding && !isZero(word[:12]) {
			return paddingError()
		}
		address := common.BytesToAddress(word[12:])
		return evmcodec.ContractValue{
			ContractType: t,
			Address:      address,
			Class:        d.contractClass(address),
		}

	case *evmcodec.EnumType:
		definition, err := d.info.Definitions.Enum(t.TypeID)
		if err != nil {
			return d.errorValue(t, err.(evmcodec.DecodingError))
		}
		// Enums have at most 256 options, so they occupy one byte
		if checkPadding && !isZero(word[:evmcommon.WordSize-1]) {
			return paddingError()
		}
		numeric := new(big.Int).SetBytes(word)
		if !numeric.IsUint64() || numeric.Uint64() >= uint64(len(definition.Options)) {
			return d.errorValue(t, &evmcodec.EnumOutOfRangeError{
				EnumType: t,
				Raw:      numeric,
			})
		}
		return evmcodec.EnumValue{
			EnumType: t,
			Numeric:  numeric,
			Name:     definition.Options[numeric.Uint64()],
		}

	case *evmcodec.UserDefinedValueType:
		definition, err := d.info.Definitions.UserDefinedValueType(t.TypeID)
		if err != nil {
			return d.errorValue(t, err.(evmcodec.DecodingError))
		}
		value := d.decodeWord(definition.Underlying, word, checkPadding)
		if _, ok := value.(evmcodec.ErrorValue); ok {
			return value
		}
		return evmcodec.UserDefinedValueTypeValue{
			UserDefinedValueType: t,
			Value:                value,
		}

	case *evmcodec.FunctionType:
		if t.Visibility == evmcodec.FunctionVisibilityExternal {
			if checkPadding && !isZero(word[24:]) {
				return paddingError()
			}
			return d.externalFunction(t, word[:20], word[20:24])
		}
		// The code offsets in the constructor code and in the deployed code
		if checkPadding && !isZero(word[:24]) {
			return paddingError()
		}
		return evmcodec.FunctionInternalValue{
			FunctionType:  t,
			ConstructorPC: binary.BigEndian.Uint32(word[24:28]),
			DeployedPC:    binary.BigEndian.Uint32(word[28:32]),
		}
	}

	return d.errorValue(t, &evmcodec.UnsupportedPointerError{
		Type:     t,
		Location: "word",
	})
}

func (d *Decoder) externalFunction(
	t *evmcodec.FunctionType,
	address []byte,
	selector []byte,
) evmcodec.FunctionExternalValue {
	value := evmcodec.FunctionExternalValue{
		FunctionType: t,
		Address:      common.BytesToAddress(address),
	}
	copy(value.Selector[:], selector)
	value.Class = d.contractClass(value.Address)
	return value
}

// signedBytes returns the low size bytes of a word.
// If checkPadding is set, the remaining bytes must be the sign extension.
func signedBytes(word []byte, size int, checkPadding bool) ([]byte, bool) {
	padding, raw := word[:evmcommon.WordSize-size], word[evmcommon.WordSize-size:]
	if checkPadding {
		var extension byte
		if raw[0]&0x80 != 0 {
			extension = 0xff
		}
		if !isAll(padding, extension) {
			return nil, false
		}
	}
	return raw, true
}
