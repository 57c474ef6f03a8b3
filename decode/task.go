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
	"context"
	"fmt"
	goRuntime "runtime"

	"github.com/ethereum/go-ethereum/common"

	"github.com/onflow/evmcodec/errors"
)

// Request is a request for data that a suspended task needs to continue.
type Request interface {
	isRequest()
	fmt.Stringer
}

// StorageRequest requests the storage word at the given slot of the given contract.
// The response is the 32 byte word.
type StorageRequest struct {
	Address common.Address
	Slot    common.Hash
}

var _ Request = StorageRequest{}

func (StorageRequest) isRequest() {}

func (r StorageRequest) String() string {
	return fmt.Sprintf("storage %s of %s", r.Slot.Hex(), r.Address.Hex())
}

// CodeRequest requests the deployed code of the given contract.
// The response is the code, empty if there is no contract at the address.
type CodeRequest struct {
	Address common.Address
}

var _ Request = CodeRequest{}

func (CodeRequest) isRequest() {}

func (r CodeRequest) String() string {
	return fmt.Sprintf("code of %s", r.Address.Hex())
}

// Operation is a decoding, e.g. of a variable, or of calldata.
type Operation[T any] func(d *Decoder) T

// abandonedSignal unwinds the goroutine of an abandoned task.
type abandonedSignal struct{}

// Task is a decoding which runs until it needs data that is not part of the state snapshot.
// A task is not safe for concurrent use.
type Task[T any] struct {
	requests  chan Request
	responses chan []byte
	abandoned chan struct{}
	done      chan struct{}

	request Request
	result  T
	err     error
	// panicValue is a panic which is not a decoding error,
	// re-raised in the goroutine of the caller
	panicValue any
	finished   bool
}

// Start starts the given decoding operation, and runs it until it finishes or suspends.
func Start[T any](info *Info, operation Operation[T]) *Task[T] {
	task := &Task[T]{
		requests:  make(chan Request),
		responses: make(chan []byte),
		abandoned: make(chan struct{}),
		done:      make(chan struct{}),
	}

	decoder := newDecoder(info, task)

	go func() {
		defer close(task.done)

		defer func() {
			r := recover()
			if r == nil {
				return
			}
			switch r := r.(type) {
			case abandonedSignal:
				task.err = TaskAbandonedError{}
			case *StopDecodingError:
				decoder.logger.Debug().Err(r).Msg("decoding stopped")
				task.err = r
			default:
				task.panicValue = r
			}
		}()

		task.result = operation(decoder)
	}()

	task.wait()

	return task
}

func (t *Task[T]) wait() {
	select {
	case request := <-t.requests:
		t.request = request

	case <-t.done:
		t.request = nil
		t.finished = true

		// Don't swallow Go errors, internal errors, or non-errors
		if t.panicValue != nil {
			panicValue := t.panicValue
			t.panicValue = nil
			panic(panicValue)
		}
	}
}

// suspend is called on the goroutine of the task.
// It hands the request to the caller and blocks until the response arrives.
func (t *Task[T]) suspend(request Request) []byte {
	select {
	case t.requests <- request:
	case <-t.abandoned:
		panic(abandonedSignal{})
	}

	select {
	case response := <-t.responses:
		return response
	case <-t.abandoned:
		panic(abandonedSignal{})
	}
}

// Request returns the request the task is suspended on, or nil if the task is finished.
func (t *Task[T]) Request() Request {
	return t.request
}

// Finished returns true if the task ran to completion, or was abandoned.
func (t *Task[T]) Finished() bool {
	return t.finished
}

// Resume continues a suspended task with the response to its request,
// and runs it until it finishes or suspends again.
func (t *Task[T]) Resume(response []byte) error {
	if t.request == nil {
		return TaskNotSuspendedError{}
	}
	t.request = nil
	t.responses <- response
	t.wait()
	return nil
}

// Result returns the result of a finished task.
// For a decoding that was stopped, the error is a *StopDecodingError.
func (t *Task[T]) Result() (T, error) {
	if !t.finished {
		var zero T
		return zero, TaskNotFinishedError{Request: t.request}
	}
	return t.result, t.err
}

// Abandon releases a suspended task. Abandoning a finished task has no effect.
func (t *Task[T]) Abandon() {
	if t.finished {
		return
	}
	close(t.abandoned)
	<-t.done
	t.request = nil
	t.finished = true
	t.panicValue = nil
	var zero T
	t.result = zero
	t.err = TaskAbandonedError{}
}

// Responder answers the requests of a task, e.g. by querying a node.
type Responder func(ctx context.Context, request Request) ([]byte, error)

// Run drives the given task to completion, answering its requests with the given responder.
// The task is abandoned if the context is done or the responder fails.
func Run[T any](ctx context.Context, task *Task[T], respond Responder) (T, error) {
	for {
		request := task.Request()
		if request == nil {
			return task.Result()
		}

		var zero T

		if err := ctx.Err(); err != nil {
			task.Abandon()
			return zero, err
		}

		response, err := respond(ctx, request)
		if err != nil {
			task.Abandon()
			return zero, fmt.Errorf("failed to respond to %s: %w", request, err)
		}

		err = task.Resume(response)
		if err != nil {
			// unreachable: the task has a request
			panic(errors.NewUnexpectedErrorFromCause(err))
		}
	}
}

// Decode runs the given operation on the state snapshot alone.
// Storage words missing from the snapshot decode as errors,
// and the code of other contracts is unknown.
func Decode[T any](info *Info, operation Operation[T]) (result T, err error) {
	decoder := newDecoder(info, nil)

	defer func() {
		if r := recover(); r != nil {
			// Don't recover Go errors, internal errors, or non-errors.
			switch r := r.(type) {
			case goRuntime.Error, errors.InternalError:
				panic(r)
			case *StopDecodingError:
				decoder.logger.Debug().Err(r).Msg("decoding stopped")
				err = r
			default:
				panic(r)
			}
		}
	}()

	return operation(decoder), nil
}
