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

// Package decode decodes typed values from raw EVM state.
//
// Decoding suspends whenever it needs data that is not part of the state snapshot,
// i.e. storage words or the code of other contracts. Start returns a Task,
// which exposes the pending Request, and continues when the caller resumes it with the response.
// Run drives a task with a responder function,
// and Decode decodes from the snapshot alone.
package decode

import (
	"fmt"

	"github.com/onflow/evmcodec"
)

// StopDecodingError aborts a whole decoding.
// It is raised when data is too malformed to continue decoding, e.g. for an ABI offset out of range.
type StopDecodingError struct {
	Err evmcodec.DecodingError
}

var _ error = &StopDecodingError{}

func (*StopDecodingError) IsUserError() {}

func (e *StopDecodingError) Error() string {
	return fmt.Sprintf("decoding stopped: %s", e.Err)
}

func (e *StopDecodingError) Unwrap() error {
	return e.Err
}

// stop aborts the decoding with the given fatal error.
func stop(err evmcodec.DecodingError) {
	panic(&StopDecodingError{Err: err})
}

// TaskNotSuspendedError is returned when a task is resumed that is not waiting for a response.
type TaskNotSuspendedError struct{}

func (TaskNotSuspendedError) IsUserError() {}

func (TaskNotSuspendedError) Error() string {
	return "decoding task is not suspended"
}

// TaskNotFinishedError is returned for the result of a task that is still suspended.
type TaskNotFinishedError struct {
	Request Request
}

func (TaskNotFinishedError) IsUserError() {}

func (e TaskNotFinishedError) Error() string {
	return fmt.Sprintf("decoding task is suspended on %s", e.Request)
}

// TaskAbandonedError is the result of an abandoned task.
type TaskAbandonedError struct{}

func (TaskAbandonedError) IsUserError() {}

func (TaskAbandonedError) Error() string {
	return "decoding task was abandoned"
}
