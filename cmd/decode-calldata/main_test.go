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

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onflow/evmcodec"
	"github.com/onflow/evmcodec/allocate"
	"github.com/onflow/evmcodec/compilation"
	"github.com/onflow/evmcodec/decode"
	"github.com/onflow/evmcodec/errors"
)

const transferABI = `[
  {
    "type": "function",
    "name": "transfer",
    "inputs": [
      {"name": "to", "type": "address"},
      {"name": "amount", "type": "uint256"}
    ],
    "outputs": [{"name": "", "type": "bool"}],
    "stateMutability": "nonpayable"
  }
]`

func transferCalldata(amount string) string {
	return "0xa9059cbb" +
		strings.Repeat("0", 24) + strings.Repeat("11", 20) +
		strings.Repeat("0", 64-len(amount)) + amount
}

func testAllocations(t *testing.T) *allocate.CalldataAllocations {
	t.Helper()

	contractABI, err := compilation.ParseABI([]byte(transferABI))
	require.NoError(t, err)

	allocations, err := allocate.GetCalldataAllocations(
		&compilation.Contract{Functions: contractABI.Functions},
		evmcodec.TypeDefinitions{},
	)
	require.NoError(t, err)
	return allocations
}

func TestDecodeCalldata(t *testing.T) {

	t.Parallel()

	allocations := testAllocations(t)

	calldata, err := parseHex(transferCalldata("2a"))
	require.NoError(t, err)

	call, err := decodeCalldata(allocations, calldata)
	require.NoError(t, err)
	require.NotNil(t, call.Allocation)
	assert.Equal(t, "transfer(address,uint256)", call.Allocation.Signature)

	require.Len(t, call.Arguments, 2)
	assert.Equal(t, "to", call.Arguments[0].Name)
	assert.Equal(t, "42", call.Arguments[1].Value.String())
}

func TestCompareCalls(t *testing.T) {

	t.Parallel()

	allocations := testAllocations(t)

	decodeAmount := func(amount string) *decode.CallDecoding {
		calldata, err := parseHex(transferCalldata(amount))
		require.NoError(t, err)
		call, err := decodeCalldata(allocations, calldata)
		require.NoError(t, err)
		return call
	}

	assert.True(t, compareCalls(decodeAmount("2a"), decodeAmount("2a")))
	assert.False(t, compareCalls(decodeAmount("2a"), decodeAmount("2b")))
}

func TestRun(t *testing.T) {

	t.Parallel()

	abiPath := filepath.Join(t.TempDir(), "transfer.json")
	require.NoError(t, os.WriteFile(abiPath, []byte(transferABI), 0o600))

	t.Run("equal", func(t *testing.T) {
		t.Parallel()

		equal, err := run([]string{abiPath, transferCalldata("2a"), transferCalldata("2a")})
		require.NoError(t, err)
		assert.True(t, equal)
	})

	t.Run("different", func(t *testing.T) {
		t.Parallel()

		equal, err := run([]string{abiPath, transferCalldata("2a"), transferCalldata("2b")})
		require.NoError(t, err)
		assert.False(t, equal)
	})

	t.Run("missing arguments", func(t *testing.T) {
		t.Parallel()

		_, err := run([]string{abiPath})
		require.Error(t, err)
		assert.Equal(t, exitUsage, exitCode(err))
	})

	t.Run("invalid hex", func(t *testing.T) {
		t.Parallel()

		_, err := run([]string{abiPath, "0xzz"})
		require.Error(t, err)
		assert.True(t, errors.IsUserError(err))
		assert.Equal(t, exitUsage, exitCode(err))
	})

	t.Run("missing ABI file", func(t *testing.T) {
		t.Parallel()

		_, err := run([]string{filepath.Join(t.TempDir(), "missing.json"), transferCalldata("2a")})
		require.Error(t, err)
		assert.Equal(t, exitUsage, exitCode(err))
	})
}

func TestExitCode(t *testing.T) {

	t.Parallel()

	assert.Equal(t, exitUsage, exitCode(errors.NewDefaultUserError("bad input")))
	assert.Equal(t, exitInternal, exitCode(errors.NewUnexpectedError("broken")))
	assert.Equal(t, exitInternal, exitCode(errors.NewUnreachableError()))
	assert.Equal(t, exitFailure, exitCode(os.ErrClosed))
}
