// Copyright 2021 Optakt Labs OÜ
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not
// use this file except in compliance with the License. You may obtain a copy of
// the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations under
// the License.

package record

import (
	"errors"
	"fmt"
)

// Kind classifies why an input was rejected. Every Kind is itself an error, so
// callers can match any rejection with errors.Is(err, record.InvalidAmount).
type Kind uint8

// Rejection kinds for transactions, blocks and encoded records.
const (
	InvalidAddress Kind = iota + 1
	InvalidAmount
	InvalidSignature
	InvalidTimestamp
	InvalidMemo
	InvalidTransactionList
	InvalidTransactionEntry
	InvalidParentSlot
	InvalidHeaderField
	InvalidPoHInformation
	MalformedEncoding
)

var kindNames = map[Kind]string{
	InvalidAddress:          "invalid address",
	InvalidAmount:           "invalid amount",
	InvalidSignature:        "invalid signature",
	InvalidTimestamp:        "invalid timestamp",
	InvalidMemo:             "invalid memo",
	InvalidTransactionList:  "invalid transaction list",
	InvalidTransactionEntry: "invalid transaction entry",
	InvalidParentSlot:       "invalid parent slot",
	InvalidHeaderField:      "invalid header field",
	InvalidPoHInformation:   "invalid proof-of-history information",
	MalformedEncoding:       "malformed encoding",
}

// Kinds lists all rejection kinds in declaration order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(kindNames))
	for kind := InvalidAddress; kind <= MalformedEncoding; kind++ {
		kinds = append(kinds, kind)
	}
	return kinds
}

func (k Kind) String() string {
	name, ok := kindNames[k]
	if !ok {
		return fmt.Sprintf("unknown kind (%d)", uint8(k))
	}
	return name
}

func (k Kind) Error() string {
	return k.String()
}

// Error is returned whenever untrusted input is rejected. Field names the
// offending field using its external name, including the list position for
// fields nested in a block (for example "transactions[2].amount"). Index is
// the position within the enclosing list, or -1 for top-level fields.
type Error struct {
	Kind   Kind
	Field  string
	Index  int
	Reason string
	Err    error

	// inner is the transaction error a block entry error was derived from.
	inner *Error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Field)
	}
	if e.Reason != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Reason)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes the kind and the underlying cause. Errors of block entries
// also expose InvalidTransactionEntry and the transaction's own error.
func (e *Error) Unwrap() []error {
	errs := []error{e.Kind}
	if e.inner != nil {
		errs = append(errs, InvalidTransactionEntry, e.inner)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// KindOf returns the kind of the first record error in the chain of err.
func KindOf(err error) (Kind, bool) {
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr.Kind, true
	}
	var kind Kind
	if errors.As(err, &kind) {
		return kind, true
	}
	return 0, false
}

func fieldError(kind Kind, field string, reason string) *Error {
	return &Error{
		Kind:   kind,
		Field:  field,
		Index:  -1,
		Reason: reason,
	}
}

func entryError(kind Kind, list string, index int, reason string) *Error {
	return &Error{
		Kind:   kind,
		Field:  fmt.Sprintf("%s[%d]", list, index),
		Index:  index,
		Reason: reason,
	}
}

// nested places a transaction error at its position in the block's list. It
// keeps the kind of the transaction error and wraps it.
func nested(err *Error, list string, index int) *Error {
	field := fmt.Sprintf("%s[%d]", list, index)
	if err.Field != "" {
		field = fmt.Sprintf("%s.%s", field, err.Field)
	}
	return &Error{
		Kind:   err.Kind,
		Field:  field,
		Index:  index,
		Reason: err.Reason,
		Err:    err.Err,
		inner:  err,
	}
}

func malformed(reason string, err error) *Error {
	return &Error{
		Kind:   MalformedEncoding,
		Index:  -1,
		Reason: reason,
		Err:    err,
	}
}

// Malformed builds the error used for undecodable input.
func Malformed(reason string, err error) error {
	return malformed(reason, err)
}
