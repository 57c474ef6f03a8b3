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

package allocate

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/onflow/evmcodec"
	"github.com/onflow/evmcodec/compilation"
	"github.com/onflow/evmcodec/encoding/abi"
	"github.com/onflow/evmcodec/pointer"
)

// SelectorSize is the size of a function selector at the start of calldata.
const SelectorSize = 4

// FunctionAllocation is the layout of the arguments of a function call,
// or of the constructor arguments appended to the creation code.
type FunctionAllocation struct {
	Function    *compilation.Function
	Constructor bool
	Signature   string
	Selector    [4]byte
	// Offset is the start of the arguments in calldata
	Offset    uint64
	Arguments *ABIAllocation
	// Outputs is the layout of the return data
	Outputs *ABIAllocation
}

// CalldataAllocations are the layouts of the calls of a contract's functions.
type CalldataAllocations struct {
	Functions   map[[4]byte]*FunctionAllocation
	Constructor *FunctionAllocation
}

// GetCalldataAllocations computes the layouts of the calls to all functions of the given contract,
// and of its constructor.
func GetCalldataAllocations(
	contract *compilation.Contract,
	definitions evmcodec.TypeDefinitions,
) (*CalldataAllocations, error) {

	allocations := &CalldataAllocations{
		Functions: make(map[[4]byte]*FunctionAllocation, len(contract.Functions)),
	}

	for i := range contract.Functions {
		function := &contract.Functions[i]

		allocation, err := AllocateFunction(function, definitions)
		if err != nil {
			return nil, err
		}
		allocations.Functions[allocation.Selector] = allocation
	}

	constructor := contract.Constructor
	if constructor == nil {
		// Default constructor
		constructor = &compilation.Function{}
	}

	arguments, err := AllocateParameters(constructor.Inputs, definitions)
	if err != nil {
		return nil, err
	}
	allocations.Constructor = &FunctionAllocation{
		Function:    constructor,
		Constructor: true,
		// Constructor arguments follow the creation code
		Offset:    contract.Bytecode.Length(),
		Arguments: arguments,
	}

	return allocations, nil
}

// AllocateFunction computes the layouts of the arguments and of the return data of a function.
func AllocateFunction(
	function *compilation.Function,
	definitions evmcodec.TypeDefinitions,
) (*FunctionAllocation, error) {

	signature, err := abi.Signature(
		function.Name,
		compilation.ParameterTypes(function.Inputs),
		definitions,
	)
	if err != nil {
		return nil, err
	}

	arguments, err := AllocateParameters(function.Inputs, definitions)
	if err != nil {
		return nil, err
	}

	outputs, err := AllocateParameters(function.Outputs, definitions)
	if err != nil {
		return nil, err
	}

	return &FunctionAllocation{
		Function:  function,
		Signature: signature,
		Selector:  abi.Selector(signature),
		Offset:    SelectorSize,
		Arguments: arguments,
		Outputs:   outputs,
	}, nil
}

// EventArgumentAllocation is the location of an event argument:
// indexed arguments are in topics, the others in the event data.
type EventArgumentAllocation struct {
	Name    string
	Type    evmcodec.Type
	Indexed bool
	Pointer pointer.Pointer
}

// EventAllocation is the layout of an event log.
type EventAllocation struct {
	Event      *compilation.Event
	ContractID string
	Signature  string
	// Topic is the first topic of non-anonymous events
	Topic     common.Hash
	Arguments []EventArgumentAllocation
}

// AllocateEvent computes the layout of the given event.
// The first topic of a non-anonymous event is the hash of its signature,
// the indexed arguments follow in the remaining topics.
func AllocateEvent(
	event *compilation.Event,
	definitions evmcodec.TypeDefinitions,
) (*EventAllocation, error) {

	signature, err := abi.Signature(
		event.Name,
		compilation.ParameterTypes(event.Inputs),
		definitions,
	)
	if err != nil {
		return nil, err
	}

	data, err := AllocateParameters(event.Inputs, definitions)
	if err != nil {
		return nil, err
	}

	allocation := &EventAllocation{
		Event:     event,
		Signature: signature,
		Arguments: make([]EventArgumentAllocation, 0, len(event.Inputs)),
	}

	topic := 0
	if !event.Anonymous {
		allocation.Topic = abi.EventTopic(signature)
		topic = 1
	}

	dataIndex := 0
	for _, input := range event.Inputs {
		argument := EventArgumentAllocation{
			Name:    input.Name,
			Type:    input.Type,
			Indexed: input.Indexed,
		}

		if input.Indexed {
			argument.Pointer = pointer.EventTopicPointer{Topic: topic}
			topic++
		} else {
			member := data.Members[dataIndex]
			dataIndex++
			argument.Pointer = member.Relocate(pointer.LocationEventData, 0)
		}

		allocation.Arguments = append(allocation.Arguments, argument)
	}

	return allocation, nil
}

// TopicCount returns the number of topics of a log of this event.
func (a *EventAllocation) TopicCount() int {
	count := 0
	if !a.Event.Anonymous {
		count++
	}
	for _, argument := range a.Arguments {
		if argument.Indexed {
			count++
		}
	}
	return count
}

// EventAllocations are the layouts of the events of a set of contracts.
type EventAllocations struct {
	ByTopic   map[common.Hash][]*EventAllocation
	Anonymous []*EventAllocation
}

// GetEventAllocations computes the layouts of all events of the given contracts.
func GetEventAllocations(
	contracts []*compilation.Contract,
	definitions evmcodec.TypeDefinitions,
) (*EventAllocations, error) {

	allocations := &EventAllocations{
		ByTopic: map[common.Hash][]*EventAllocation{},
	}

	for _, contract := range contracts {
		for i := range contract.Events {
			allocation, err := AllocateEvent(&contract.Events[i], definitions)
			if err != nil {
				return nil, err
			}
			allocation.ContractID = contract.ID

			if allocation.Event.Anonymous {
				allocations.Anonymous = append(allocations.Anonymous, allocation)
				continue
			}
			allocations.ByTopic[allocation.Topic] = append(
				allocations.ByTopic[allocation.Topic],
				allocation,
			)
		}
	}

	return allocations, nil
}
