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
	evmcommon "github.com/onflow/evmcodec/common"
	"github.com/onflow/evmcodec/pointer"
	"github.com/onflow/evmcodec/read"
)

// decodeCode decodes a value embedded in the deployed code, i.e. an immutable.
func (d *Decoder) decodeCode(t evmcodec.Type, p pointer.CodePointer) evmcodec.Value {
	raw, err := d.read(p)
	if err != nil {
		return d.errorValue(t, err)
	}
	return d.decodeWord(t, wordOf(t, raw), false)
}

// decodeTopic decodes an indexed event argument.
// Indexed reference types are only stored as their hash.
func (d *Decoder) decodeTopic(t evmcodec.Type, p pointer.EventTopicPointer) evmcodec.Value {
	raw, err := d.read(p)
	if err != nil {
		return d.errorValue(t, err)
	}

	if evmcodec.IsReference(t) {
		return d.errorValue(t, &evmcodec.IndexedReferenceTypeError{
			Type: t,
			Raw:  raw,
		})
	}

	return d.decodeWord(t, raw, d.info.Options.Strict)
}

// decodeDefinition decodes the value of a constant from its definition.
func (d *Decoder) decodeDefinition(t evmcodec.Type, p pointer.DefinitionPointer) evmcodec.Value {
	if p.Definition == nil {
		return d.errorValue(t, &evmcodec.UnsupportedPointerError{
			Type:     t,
			Location: pointer.LocationDefinition.String(),
		})
	}

	switch t := t.(type) {
	case evmcodec.StringType:
		raw, err := d.read(p)
		if err != nil {
			return d.errorValue(t, err)
		}
		return evmcodec.NewStringValue(t, raw)

	case evmcodec.BytesType:
		if t.Dynamic {
			raw, err := d.read(p)
			if err != nil {
				return d.errorValue(t, err)
			}
			return evmcodec.BytesValue{
				BytesType: t,
				Value:     raw,
			}
		}

		// Static bytes constants may be written as hex numbers,
		// whose bytes are aligned left like the bytes of the type
		var raw []byte
		switch p.Definition.Kind {
		case pointer.DefinitionKindNumber:
			value, ok := read.HexLiteralBytes(p.Definition.Value)
			if !ok {
				return d.errorValue(t, &evmcodec.InvalidDefinitionError{
					Name:    p.Definition.Name,
					Literal: p.Definition.Value,
				})
			}
			raw = value
		default:
			var err evmcodec.DecodingError
			raw, err = d.read(p)
			if err != nil {
				return d.errorValue(t, err)
			}
		}
		if len(raw) > int(t.Length) {
			return d.errorValue(t, &evmcodec.InvalidDefinitionError{
				Name:    p.Definition.Name,
				Literal: p.Definition.Value,
			})
		}
		return d.decodeWord(t, evmcommon.PadRight(raw, evmcommon.WordSize), false)
	}

	raw, err := d.read(p)
	if err != nil {
		return d.errorValue(t, err)
	}
	return d.decodeWord(t, wordOf(t, raw), false)
}

// decodeSpecial decodes an environment variable, e.g. msg.sender.
func (d *Decoder) decodeSpecial(t evmcodec.Type, p pointer.SpecialPointer) evmcodec.Value {
	if magicType, ok := t.(*evmcodec.MagicType); ok {
		return d.decodeMagic(magicType)
	}

	raw, err := d.read(p)
	if err != nil {
		return d.errorValue(t, err)
	}

	if bytesType, ok := t.(evmcodec.BytesType); ok && bytesType.Dynamic {
		return evmcodec.BytesValue{
			BytesType: bytesType,
			Value:     raw,
		}
	}

	return d.decodeWord(t, wordOf(t, raw), false)
}

type magicMember struct {
	name    string
	typ     evmcodec.Type
	pointer pointer.Pointer
}

var (
	uint256Type        = evmcodec.UintType{Bits: 256}
	addressType        = evmcodec.AddressType{Kind: evmcodec.AddressKindGeneral}
	payableAddressType = evmcodec.AddressType{Kind: evmcodec.AddressKindGeneral, Payable: true}
)

// magicMembers are the members of the built-in variables, and where their values are found.
var magicMembers = map[evmcodec.MagicVariable][]magicMember{
	evmcodec.MagicVariableMessage: {
		{
			name:    "data",
			typ:     evmcodec.NewDynamicBytesType(evmcodec.DataLocationCalldata),
			pointer: pointer.SpecialPointer{Special: "calldata"},
		},
		{
			name:    "sig",
			typ:     evmcodec.NewStaticBytesType(4),
			pointer: pointer.CalldataPointer{Start: 0, Length: 4},
		},
		{
			name:    "sender",
			typ:     payableAddressType,
			pointer: pointer.SpecialPointer{Special: "sender"},
		},
		{
			name:    "value",
			typ:     uint256Type,
			pointer: pointer.SpecialPointer{Special: "value"},
		},
	},
	evmcodec.MagicVariableBlock: {
		{
			name:    "coinbase",
			typ:     payableAddressType,
			pointer: pointer.SpecialPointer{Special: "coinbase"},
		},
		{
			name:    "difficulty",
			typ:     uint256Type,
			pointer: pointer.SpecialPointer{Special: "difficulty"},
		},
		{
			name:    "gaslimit",
			typ:     uint256Type,
			pointer: pointer.SpecialPointer{Special: "gaslimit"},
		},
		{
			name:    "number",
			typ:     uint256Type,
			pointer: pointer.SpecialPointer{Special: "number"},
		},
		{
			name:    "timestamp",
			typ:     uint256Type,
			pointer: pointer.SpecialPointer{Special: "timestamp"},
		},
		{
			name:    "chainid",
			typ:     uint256Type,
			pointer: pointer.SpecialPointer{Special: "chainid"},
		},
		{
			name:    "basefee",
			typ:     uint256Type,
			pointer: pointer.SpecialPointer{Special: "basefee"},
		},
	},
	evmcodec.MagicVariableTransaction: {
		{
			name:    "origin",
			typ:     addressType,
			pointer: pointer.SpecialPointer{Special: "origin"},
		},
		{
			name:    "gasprice",
			typ:     uint256Type,
			pointer: pointer.SpecialPointer{Special: "gasprice"},
		},
	},
}

// decodeMagic decodes one of the built-in variables msg, block or tx,
// from the calldata and the environment variables.
func (d *Decoder) decodeMagic(t *evmcodec.MagicType) evmcodec.Value {
	members := magicMembers[t.Variable]

	values := make([]evmcodec.NameValuePair, 0, len(members))
	for _, member := range members {
		var value evmcodec.Value
		switch p := member.pointer.(type) {
		case pointer.SpecialPointer:
			if p.Special == "calldata" {
				value = evmcodec.BytesValue{
					BytesType: member.typ.(evmcodec.BytesType),
					Value:     d.state.Calldata,
				}
				break
			}
			value = d.decodeSpecial(member.typ, p)
		default:
			raw, err := d.read(p)
			if err != nil {
				value = d.errorValue(member.typ, err)
				break
			}
			value = d.decodeWord(member.typ, wordOf(member.typ, raw), false)
		}

		values = append(values, evmcodec.NameValuePair{
			Name:  member.name,
			Value: value,
		})
	}

	return evmcodec.MagicValue{
		MagicType: t,
		Members:   values,
	}
}
