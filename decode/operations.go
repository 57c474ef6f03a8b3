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

	"github.com/onflow/evmcodec"
	"github.com/onflow/evmcodec/allocate"
	"github.com/onflow/evmcodec/pointer"
)

// Variable decodes a single value at the given pointer.
func Variable(t evmcodec.Type, p pointer.Pointer) Operation[evmcodec.Value] {
	return func(d *Decoder) evmcodec.Value {
		return d.Decode(t, p)
	}
}

// VariableDecoding is the decoded value of a state variable.
type VariableDecoding struct {
	Name             string
	DefiningContract string
	Value            evmcodec.Value
}

// State decodes all state variables of a contract.
func State(allocation *allocate.ContractAllocation) Operation[[]VariableDecoding] {
	return func(d *Decoder) []VariableDecoding {
		result := make([]VariableDecoding, 0, len(allocation.Variables))
		for _, variable := range allocation.Variables {
			var value evmcodec.Value
			if _, ok := variable.Pointer.(pointer.NowherePointer); ok {
				value = d.errorValue(variable.Type, &evmcodec.UnsupportedPointerError{
					Type:     variable.Type,
					Location: pointer.LocationNowhere.String(),
				})
			} else {
				value = d.Decode(variable.Type, variable.Pointer)
			}

			result = append(result, VariableDecoding{
				Name:             variable.Name,
				DefiningContract: variable.DefiningContract,
				Value:            value,
			})
		}
		return result
	}
}

// CallDecoding is a decoded function call or contract creation.
type CallDecoding struct {
	// Allocation is nil if the selector is unknown
	Allocation *allocate.FunctionAllocation
	Selector   [4]byte
	Arguments  []evmcodec.NameValuePair
}

// Calldata decodes the arguments of a function call,
// or, for a contract creation, the constructor arguments following the creation code.
func Calldata(allocations *allocate.CalldataAllocations, isConstructor bool) Operation[*CallDecoding] {
	return func(d *Decoder) *CallDecoding {
		calldata := d.state.Calldata

		result := &CallDecoding{}

		if isConstructor {
			result.Allocation = allocations.Constructor
		} else {
			if len(calldata) < allocate.SelectorSize {
				return result
			}
			copy(result.Selector[:], calldata[:allocate.SelectorSize])
			result.Allocation = allocations.Functions[result.Selector]
		}

		if result.Allocation == nil {
			return result
		}

		d.logger.Debug().
			Str("signature", result.Allocation.Signature).
			Bool("constructor", isConstructor).
			Msg("decoding calldata")

		result.Arguments = d.decodeArguments(
			result.Allocation.Arguments,
			pointer.LocationCalldata,
			result.Allocation.Offset,
		)
		return result
	}
}

// Returndata decodes the return values of the given function.
func Returndata(function *allocate.FunctionAllocation) Operation[[]evmcodec.NameValuePair] {
	return func(d *Decoder) []evmcodec.NameValuePair {
		if function.Outputs == nil {
			return nil
		}
		return d.decodeArguments(function.Outputs, pointer.LocationReturndata, 0)
	}
}

func (d *Decoder) decodeArguments(
	allocation *allocate.ABIAllocation,
	location pointer.Location,
	base uint64,
) []evmcodec.NameValuePair {
	arguments := make([]evmcodec.NameValuePair, 0, len(allocation.Members))
	for _, member := range allocation.Members {
		arguments = append(arguments, evmcodec.NameValuePair{
			Name:  member.Name,
			Value: d.decodeABI(member.Type, location, base+member.Pointer.Start, base),
		})
	}
	return arguments
}

// EventDecoding is an event log decoded as one of the possible events.
type EventDecoding struct {
	Allocation *allocate.EventAllocation
	Arguments  []evmcodec.NameValuePair
}

// Event decodes an event log, from the topics and the event data.
// A log may match several events, e.g. events of different contracts with the same signature,
// or anonymous events. All events for which the log can be decoded are returned.
func Event(allocations *allocate.EventAllocations) Operation[[]*EventDecoding] {
	return func(d *Decoder) []*EventDecoding {
		topics := d.state.EventTopics

		var candidates []*allocate.EventAllocation
		if len(topics) > 0 {
			candidates = append(candidates, allocations.ByTopic[topics[0]]...)
		}
		candidates = append(candidates, allocations.Anonymous...)

		var result []*EventDecoding
		for _, candidate := range candidates {
			if candidate.TopicCount() != len(topics) {
				continue
			}

			var decoding *EventDecoding
			err := d.attempt(func() {
				decoding = d.decodeEvent(candidate)
			})
			if err != nil {
				d.logger.Debug().
					Str("signature", candidate.Signature).
					Err(err).
					Msg("event does not match")
				continue
			}

			result = append(result, decoding)
		}
		return result
	}
}

func (d *Decoder) decodeEvent(allocation *allocate.EventAllocation) *EventDecoding {
	arguments := make([]evmcodec.NameValuePair, 0, len(allocation.Arguments))
	for _, argument := range allocation.Arguments {
		arguments = append(arguments, evmcodec.NameValuePair{
			Name:  argument.Name,
			Value: d.Decode(argument.Type, argument.Pointer),
		})
	}
	return &EventDecoding{
		Allocation: allocation,
		Arguments:  arguments,
	}
}

// attempt runs the given function, and returns the error if decoding stopped.
func (d *Decoder) attempt(f func()) (err *StopDecodingError) {
	defer func() {
		if r := recover(); r != nil {
			stopErr, ok := r.(*StopDecodingError)
			if !ok {
				panic(r)
			}
			err = stopErr
		}
	}()

	f()
	return nil
}

// FindFunction returns the allocation of the function called by the given calldata.
func FindFunction(allocations *allocate.CalldataAllocations, calldata []byte) (*allocate.FunctionAllocation, bool) {
	if len(calldata) < allocate.SelectorSize {
		return nil, false
	}
	var selector [4]byte
	copy(selector[:], calldata)
	allocation, ok := allocations.Functions[selector]
	return allocation, ok
}

// IsConstructorCall returns true if the given calldata starts with the creation code of a contract.
func IsConstructorCall(creationCode []byte, calldata []byte) bool {
	return len(creationCode) > 0 && bytes.HasPrefix(calldata, creationCode)
}

// DecodeVariable decodes a single value from the state snapshot alone.
func DecodeVariable(info *Info, t evmcodec.Type, p pointer.Pointer) (evmcodec.Value, error) {
	return Decode(info, Variable(t, p))
}

// DecodeState decodes all state variables of a contract from the state snapshot alone.
func DecodeState(info *Info, allocation *allocate.ContractAllocation) ([]VariableDecoding, error) {
	return Decode(info, State(allocation))
}

// DecodeCalldata decodes the calldata of the state snapshot.
func DecodeCalldata(
	info *Info,
	allocations *allocate.CalldataAllocations,
	isConstructor bool,
) (*CallDecoding, error) {
	return Decode(info, Calldata(allocations, isConstructor))
}

// DecodeReturndata decodes the returndata of the state snapshot.
func DecodeReturndata(info *Info, function *allocate.FunctionAllocation) ([]evmcodec.NameValuePair, error) {
	return Decode(info, Returndata(function))
}

// DecodeEvent decodes the event log of the state snapshot.
func DecodeEvent(info *Info, allocations *allocate.EventAllocations) ([]*EventDecoding, error) {
	return Decode(info, Event(allocations))
}
