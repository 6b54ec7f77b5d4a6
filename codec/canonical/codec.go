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

// Package canonical implements the canonical byte representation of Arcane
// Chain records, used for hashing, signing, storage and network transfer.
//
// Records are encoded as canonical CBOR (RFC 7049 section 3.9): integers use
// their shortest form, lengths are definite and map keys are sorted by length
// first, then bytewise. Each record is an array whose first element is its
// kind:
//
//	transaction:      [1, sender, recipient, amount, signature, timestamp, memo]
//	strict block:     [2, [tx...], parent_slot, previous_blockhash, timestamp, validator_address, [poh...]]
//	permissive block: [3, [map...], parent_slot, previous_blockhash, timestamp, validator_address, [poh...]]
//	signing payload:  [4, sender, recipient, amount, timestamp, memo]
//
// where tx is [sender, recipient, amount, signature, timestamp, memo]. Text is
// encoded as CBOR text strings, amounts, transaction timestamps and slots as
// unsigned integers and block timestamps as signed integers. Proof-of-history
// entries and opaque transactions are CBOR maps with text keys.
//
// Decoding only accepts input in exactly this form: any other encoding of the
// same values is rejected, so that a record has a single valid encoding.
package canonical

import (
	"bytes"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/minio/sha256-simd"

	"github.com/optakt/arcane/codec/zbor"
	"github.com/optakt/arcane/record"
)

// Validator builds records from decoded fields.
type Validator interface {
	CheckTransaction(draft record.TransactionDraft) (record.Transaction, error)
	CheckBlock(draft record.BlockDraft) (record.Block, error)
}

// Codec encodes records canonically and decodes them back, validating every
// decoded record. It is safe for concurrent use.
type Codec struct {
	validate Validator
	encoder  cbor.EncMode
	decoder  cbor.DecMode
}

// NewCodec creates a codec that validates decoded records with the given
// validator.
func NewCodec(validate Validator) *Codec {

	// We should never fail here if the options are valid, so use panic to keep
	// the function signature for the codec clean.
	encoder, err := zbor.EncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	decoder, err := zbor.DecOptions().DecMode()
	if err != nil {
		panic(err)
	}

	c := Codec{
		validate: validate,
		encoder:  encoder,
		decoder:  decoder,
	}

	return &c
}

// EncodeTransaction returns the canonical encoding of the transaction.
func (c *Codec) EncodeTransaction(tx record.Transaction) []byte {
	return c.mustEncode(fromTransaction(tx))
}

// EncodeBlock returns the canonical encoding of the block.
func (c *Codec) EncodeBlock(block record.Block) []byte {
	return c.mustEncode(fromBlock(block))
}

// SigningPayload returns the canonical encoding of everything a transaction's
// signature covers, which is every field except the signature itself.
func (c *Codec) SigningPayload(tx record.Transaction) []byte {
	w := signingWire{
		Kind:      KindSigningPayload,
		Sender:    tx.Sender(),
		Recipient: tx.Recipient(),
		Amount:    tx.Amount(),
		Timestamp: tx.Timestamp(),
		Memo:      tx.Memo(),
	}
	return c.mustEncode(w)
}

// TransactionID returns the digest of the transaction's canonical encoding.
func (c *Codec) TransactionID(tx record.Transaction) record.Identifier {
	return Hash(c.EncodeTransaction(tx))
}

// BlockID returns the digest of the block's canonical encoding.
func (c *Codec) BlockID(block record.Block) record.Identifier {
	return Hash(c.EncodeBlock(block))
}

// Hash returns the SHA-256 digest of encoded data.
func Hash(data []byte) record.Identifier {
	return record.Identifier(sha256.Sum256(data))
}

// Kind returns the kind of an encoded record without decoding the rest of it.
func (c *Codec) Kind(data []byte) (uint64, error) {

	var elements []cbor.RawMessage
	err := c.decoder.Unmarshal(data, &elements)
	if err != nil {
		return 0, record.Malformed("could not decode record", err)
	}
	if len(elements) == 0 {
		return 0, record.Malformed("record has no kind", nil)
	}

	var kind uint64
	err = c.decoder.Unmarshal(elements[0], &kind)
	if err != nil {
		return 0, record.Malformed("could not decode record kind", err)
	}

	return kind, nil
}

// DecodeTransaction decodes and validates a transaction.
func (c *Codec) DecodeTransaction(data []byte) (record.Transaction, error) {

	kind, err := c.Kind(data)
	if err != nil {
		return record.Transaction{}, err
	}
	if kind != KindTransaction {
		return record.Transaction{}, record.Malformed(fmt.Sprintf("unexpected record kind (have: %d, want: %d)", kind, KindTransaction), nil)
	}

	var w transactionWire
	err = c.decodeExact(data, &w)
	if err != nil {
		return record.Transaction{}, err
	}

	return c.validate.CheckTransaction(w.draft())
}

// DecodeBlock decodes and validates a block of either variant.
func (c *Codec) DecodeBlock(data []byte) (record.Block, error) {

	kind, err := c.Kind(data)
	if err != nil {
		return record.Block{}, err
	}

	var draft record.BlockDraft
	switch kind {

	case KindStrictBlock:
		var w strictBlockWire
		err = c.decodeExact(data, &w)
		if err != nil {
			return record.Block{}, err
		}
		if w.Transactions == nil || w.PoHInformation == nil {
			return record.Block{}, record.Malformed("block lists must not be null", nil)
		}
		draft = w.draft()

	case KindPermissiveBlock:
		var w permissiveBlockWire
		err = c.decodeExact(data, &w)
		if err != nil {
			return record.Block{}, err
		}
		if w.Transactions == nil || w.PoHInformation == nil {
			return record.Block{}, record.Malformed("block lists must not be null", nil)
		}
		draft = w.draft()

	default:
		return record.Block{}, record.Malformed(fmt.Sprintf("unexpected record kind (have: %d)", kind), nil)
	}

	return c.validate.CheckBlock(draft)
}

// Decode decodes and validates any record, returning either a
// record.Transaction or a record.Block.
func (c *Codec) Decode(data []byte) (interface{}, error) {

	kind, err := c.Kind(data)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindTransaction:
		return c.DecodeTransaction(data)
	case KindStrictBlock, KindPermissiveBlock:
		return c.DecodeBlock(data)
	default:
		return nil, record.Malformed(fmt.Sprintf("unknown record kind (%d)", kind), nil)
	}
}

// decodeExact decodes the data and makes sure that it is the canonical
// encoding of what was decoded.
func (c *Codec) decodeExact(data []byte, value interface{}) error {

	err := c.decoder.Unmarshal(data, value)
	if err != nil {
		return record.Malformed("could not decode record", err)
	}

	check, err := c.encoder.Marshal(value)
	if err != nil {
		return record.Malformed("could not re-encode record", err)
	}
	if !bytes.Equal(check, data) {
		return record.Malformed("record is not canonically encoded", nil)
	}

	return nil
}

// mustEncode encodes values built from valid records. Those only hold types
// that the encoder supports, so a failure means a broken invariant.
func (c *Codec) mustEncode(value interface{}) []byte {
	data, err := c.encoder.Marshal(value)
	if err != nil {
		panic(fmt.Sprintf("could not encode valid record: %v", err))
	}
	return data
}
