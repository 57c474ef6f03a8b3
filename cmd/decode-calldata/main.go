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

// A utility program that decodes calldata from its hex-encoded representation,
// given the JSON ABI of the called contract.

package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/onflow/evmcodec"
	"github.com/onflow/evmcodec/allocate"
	"github.com/onflow/evmcodec/compilation"
	"github.com/onflow/evmcodec/decode"
	"github.com/onflow/evmcodec/errors"
	"github.com/onflow/evmcodec/read"
)

func parseHex(s string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(s, "0x"))
}

func decodeCalldata(allocations *allocate.CalldataAllocations, calldata []byte) (*decode.CallDecoding, error) {
	info := &decode.Info{
		State:       &read.State{Calldata: calldata},
		Definitions: evmcodec.TypeDefinitions{},
	}
	return decode.DecodeCalldata(info, allocations, false)
}

func printCall(call *decode.CallDecoding) {
	if call.Allocation == nil {
		fmt.Printf("unknown selector 0x%x\n", call.Selector)
		return
	}
	fmt.Println(call.Allocation.Signature)
	for _, argument := range call.Arguments {
		fmt.Printf("  %s: %s\n", argument.Name, argument.Value)
	}
}

const (
	exitDifferent = 1
	exitUsage     = 2
	exitInternal  = 3
	exitFailure   = 4
)

// exitCode reports input errors and implementation errors with distinct codes.
func exitCode(err error) int {
	switch {
	case errors.IsUserError(err):
		return exitUsage
	case errors.IsInternalError(err):
		return exitInternal
	default:
		return exitFailure
	}
}

func main() {
	equal, err := run(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
	if !equal {
		fmt.Println("Calls are different!")
		os.Exit(exitDifferent)
	}
}

// run decodes the given calldata and, if a second one is given, compares both.
func run(args []string) (bool, error) {
	if len(args) < 2 {
		return false, errors.NewDefaultUserError("usage: decode-calldata <abi-file> <calldata-hex> [<calldata-hex>]")
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return false, errors.NewDefaultUserError("failed to read ABI: %w", err)
	}

	contractABI, err := compilation.ParseABI(data)
	if err != nil {
		return false, errors.NewDefaultUserError("failed to parse ABI: %w", err)
	}

	contract := &compilation.Contract{
		Constructor: contractABI.Constructor,
		Functions:   contractABI.Functions,
		Events:      contractABI.Events,
	}

	allocations, err := allocate.GetCalldataAllocations(contract, evmcodec.TypeDefinitions{})
	if err != nil {
		return false, fmt.Errorf("failed to allocate calldata: %w", err)
	}

	calldata, err := parseHex(args[1])
	if err != nil {
		return false, errors.NewDefaultUserError("failed to parse calldata: %w", err)
	}

	call1, err := decodeCalldata(allocations, calldata)
	if err != nil {
		return false, fmt.Errorf("failed to decode calldata: %w", err)
	}

	printCall(call1)
	fmt.Println()

	if len(args) < 3 {
		return true, nil
	}

	calldata2, err := parseHex(args[2])
	if err != nil {
		return false, errors.NewDefaultUserError("failed to parse calldata 2: %w", err)
	}

	call2, err := decodeCalldata(allocations, calldata2)
	if err != nil {
		return false, fmt.Errorf("failed to decode calldata 2: %w", err)
	}

	printCall(call2)
	fmt.Println()

	return compareCalls(call1, call2), nil
}

// compareCalls prints the arguments which differ, and returns true if there are none.
func compareCalls(call1 *decode.CallDecoding, call2 *decode.CallDecoding) bool {

	if call1.Selector != call2.Selector {
		fmt.Printf("Different selector: 0x%x vs 0x%x\n", call1.Selector, call2.Selector)
		return false
	}

	equal := true
	for i, argument := range call1.Arguments {
		if i >= len(call2.Arguments) {
			break
		}
		value1 := argument.Value.String()
		value2 := call2.Arguments[i].Value.String()
		if value1 != value2 {
			fmt.Printf("Different %s: %s vs %s\n", argument.Name, value1, value2)
			equal = false
		}
	}
	return equal
}
