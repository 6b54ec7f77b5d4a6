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

// Lengths of the hex-encoded identifiers carried by a transaction.
const (
	AddressLength   = 64
	SignatureLength = 128
)

// External field names of a transaction.
const (
	FieldSender    = "sender"
	FieldRecipient = "recipient"
	FieldAmount    = "amount"
	FieldSignature = "signature"
	FieldTimestamp = "timestamp"
	FieldMemo      = "memo"
)

// Transaction is a validated transfer of value between two parties. It can only
// be obtained from a Validator, and it has no methods that modify it.
type Transaction struct {
	sender    string
	recipient string
	amount    uint64
	signature string
	timestamp uint64
	memo      string
}

// Sender is the 64-character address of the paying account.
func (t Transaction) Sender() string {
	return t.sender
}

// Recipient is the 64-character address of the receiving account.
func (t Transaction) Recipient() string {
	return t.recipient
}

// Amount is the transferred value in the smallest denomination. It is never zero.
func (t Transaction) Amount() uint64 {
	return t.amount
}

// Signature is the 128-character signature over the transaction's signing payload.
func (t Transaction) Signature() string {
	return t.signature
}

// Timestamp is the creation time in seconds since the Unix epoch. It is never zero.
func (t Transaction) Timestamp() uint64 {
	return t.timestamp
}

// Memo is free-form text, empty when none was given.
func (t Transaction) Memo() string {
	return t.memo
}

// Draft returns the fields of the transaction as a draft.
func (t Transaction) Draft() TransactionDraft {
	return TransactionDraft{
		Sender:    t.sender,
		Recipient: t.recipient,
		Amount:    t.amount,
		Signature: t.signature,
		Timestamp: t.timestamp,
		Memo:      t.memo,
	}
}

// Fields returns the transaction as an untyped record, in the shape accepted by
// Validator.Transaction.
func (t Transaction) Fields() Entry {
	return Entry{
		FieldSender:    t.sender,
		FieldRecipient: t.recipient,
		FieldAmount:    t.amount,
		FieldSignature: t.signature,
		FieldTimestamp: t.timestamp,
		FieldMemo:      t.memo,
	}
}

// TransactionDraft holds typed transaction fields that have not been validated
// yet. Field order is the order in which rules are applied.
type TransactionDraft struct {
	Sender    string `json:"sender" validate:"len=64,utf8text,hexdigits"`
	Recipient string `json:"recipient" validate:"len=64,utf8text,hexdigits"`
	Amount    uint64 `json:"amount" validate:"gt=0"`
	Signature string `json:"signature" validate:"len=128,utf8text,hexdigits"`
	Timestamp uint64 `json:"timestamp" validate:"gt=0"`
	Memo      string `json:"memo" validate:"utf8text"`
}
