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

package canonical_test

import (
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optakt/arcane/codec/canonical"
	"github.com/optakt/arcane/codec/zbor"
	"github.com/optakt/arcane/record"
	"github.com/optakt/arcane/testing/mocks"
)

func encodeRaw(t *testing.T, value interface{}) []byte {
	t.Helper()
	enc, err := zbor.EncOptions().EncMode()
	require.NoError(t, err)
	data, err := enc.Marshal(value)
	require.NoError(t, err)
	return data
}

func TestCodec_Transaction(t *testing.T) {

	v := record.NewValidator()
	tx := mocks.GenericTransaction(t, 0)

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		c := canonical.NewCodec(v)
		data := c.EncodeTransaction(tx)

		got, err := c.DecodeTransaction(data)

		require.NoError(t, err)
		assert.Equal(t, tx, got)
	})

	t.Run("layout", func(t *testing.T) {
		t.Parallel()

		c := canonical.NewCodec(v)
		data := c.EncodeTransaction(tx)

		// Array of seven elements, then the kind.
		require.Greater(t, len(data), 2)
		assert.Equal(t, byte(0x87), data[0])
		assert.Equal(t, byte(canonical.KindTransaction), data[1])

		expected := encodeRaw(t, []interface{}{
			canonical.KindTransaction,
			tx.Sender(),
			tx.Recipient(),
			tx.Amount(),
			tx.Signature(),
			tx.Timestamp(),
			tx.Memo(),
		})
		assert.Equal(t, expected, data)
	})

	t.Run("deterministic", func(t *testing.T) {
		t.Parallel()

		c := canonical.NewCodec(v)
		again, err := v.CheckTransaction(tx.Draft())
		require.NoError(t, err)

		assert.Equal(t, c.EncodeTransaction(tx), c.EncodeTransaction(again))
		assert.Equal(t, c.TransactionID(tx), c.TransactionID(again))
		assert.Equal(t, canonical.Hash(c.EncodeTransaction(tx)), c.TransactionID(tx))
	})

	t.Run("identifiers differ", func(t *testing.T) {
		t.Parallel()

		c := canonical.NewCodec(v)
		other := mocks.GenericTransaction(t, 1)

		assert.NotEqual(t, c.TransactionID(tx), c.TransactionID(other))
		assert.NotEqual(t, record.ZeroID, c.TransactionID(tx))
	})

	t.Run("generic dispatch", func(t *testing.T) {
		t.Parallel()

		c := canonical.NewCodec(v)
		got, err := c.Decode(c.EncodeTransaction(tx))

		require.NoError(t, err)
		assert.Equal(t, tx, got)
	})

	t.Run("decoded fields are validated", func(t *testing.T) {
		t.Parallel()

		data := encodeRaw(t, []interface{}{
			canonical.KindTransaction,
			tx.Sender(),
			tx.Recipient(),
			uint64(0),
			tx.Signature(),
			tx.Timestamp(),
			"",
		})

		c := canonical.NewCodec(v)
		_, err := c.DecodeTransaction(data)

		assert.ErrorIs(t, err, record.InvalidAmount)
	})

	t.Run("decoded fields are validated with hex digits", func(t *testing.T) {
		t.Parallel()

		draft := tx.Draft()
		draft.Sender = strings.Repeat("x", record.AddressLength)
		loose, err := v.CheckTransaction(draft)
		require.NoError(t, err)

		c := canonical.NewCodec(record.NewValidator(record.WithHexDigits(true)))
		_, err = c.DecodeTransaction(canonical.NewCodec(v).EncodeTransaction(loose))

		assert.ErrorIs(t, err, record.InvalidAddress)
	})
}

func TestCodec_SigningPayload(t *testing.T) {
	v := record.NewValidator()
	c := canonical.NewCodec(v)
	tx := mocks.GenericTransaction(t, 0)

	payload := c.SigningPayload(tx)

	assert.Equal(t, byte(0x86), payload[0])
	assert.Equal(t, byte(canonical.KindSigningPayload), payload[1])
	assert.NotContains(t, string(payload), tx.Signature())
	assert.Contains(t, string(payload), tx.Sender())

	draft := tx.Draft()
	draft.Signature = strings.Repeat("f", record.SignatureLength)
	resigned, err := v.CheckTransaction(draft)
	require.NoError(t, err)

	assert.Equal(t, payload, c.SigningPayload(resigned))
	assert.NotEqual(t, c.TransactionID(tx), c.TransactionID(resigned))

	// Signing payloads are not records.
	_, err = c.Decode(payload)
	assert.ErrorIs(t, err, record.MalformedEncoding)
}

func TestCodec_Block(t *testing.T) {

	strict := record.NewValidator()
	permissive := record.NewValidator(record.WithMode(record.ModePermissive))

	t.Run("strict round trip", func(t *testing.T) {
		t.Parallel()

		block := mocks.GenericBlock(t, 3)
		c := canonical.NewCodec(strict)
		data := c.EncodeBlock(block)

		got, err := c.DecodeBlock(data)

		require.NoError(t, err)
		assert.Equal(t, block, got)
		assert.Equal(t, byte(canonical.KindStrictBlock), data[1])
	})

	t.Run("strict round trip without transactions", func(t *testing.T) {
		t.Parallel()

		block := mocks.GenericBlock(t, 0)
		c := canonical.NewCodec(strict)

		got, err := c.DecodeBlock(c.EncodeBlock(block))

		require.NoError(t, err)
		assert.Equal(t, block, got)
	})

	t.Run("permissive round trip", func(t *testing.T) {
		t.Parallel()

		block := mocks.GenericPermissiveBlock(t)
		c := canonical.NewCodec(permissive)
		data := c.EncodeBlock(block)

		got, err := c.DecodeBlock(data)

		require.NoError(t, err)
		assert.Equal(t, block, got)
		assert.Equal(t, byte(canonical.KindPermissiveBlock), data[1])
	})

	t.Run("strict block under permissive codec stays strict", func(t *testing.T) {
		t.Parallel()

		block := mocks.GenericBlock(t, 2)
		c := canonical.NewCodec(permissive)

		got, err := c.DecodeBlock(c.EncodeBlock(block))

		require.NoError(t, err)
		assert.Equal(t, record.ModeStrict, got.Mode())
		assert.Equal(t, block, got)
	})

	t.Run("permissive block with valid entries is upgraded", func(t *testing.T) {
		t.Parallel()

		tx := mocks.GenericTransaction(t, 0)
		raw := mocks.GenericBlockFields(t, 0)
		raw["transactions"] = []interface{}{tx.Fields()}
		block, err := permissive.Block(raw)
		require.NoError(t, err)

		c := canonical.NewCodec(strict)
		got, err := c.DecodeBlock(c.EncodeBlock(block))

		require.NoError(t, err)
		assert.Equal(t, record.ModeStrict, got.Mode())
		require.Len(t, got.Transactions(), 1)
		assert.Equal(t, tx, got.Transactions()[0])
	})

	t.Run("permissive block with opaque entries is rejected in strict mode", func(t *testing.T) {
		t.Parallel()

		block := mocks.GenericPermissiveBlock(t)
		c := canonical.NewCodec(strict)

		_, err := c.DecodeBlock(c.EncodeBlock(block))

		assert.ErrorIs(t, err, record.InvalidAddress)
	})

	t.Run("block identifiers", func(t *testing.T) {
		t.Parallel()

		c := canonical.NewCodec(strict)
		block := mocks.GenericBlock(t, 1)

		assert.Equal(t, canonical.Hash(c.EncodeBlock(block)), c.BlockID(block))
		assert.NotEqual(t, c.BlockID(block), c.BlockID(mocks.GenericBlock(t, 2)))
	})

	t.Run("generic dispatch", func(t *testing.T) {
		t.Parallel()

		c := canonical.NewCodec(strict)
		block := mocks.GenericBlock(t, 1)

		got, err := c.Decode(c.EncodeBlock(block))

		require.NoError(t, err)
		assert.Equal(t, block, got)
	})

	t.Run("null transaction list", func(t *testing.T) {
		t.Parallel()

		data := encodeRaw(t, []interface{}{
			canonical.KindStrictBlock,
			nil,
			uint64(1),
			"hash",
			int64(1),
			"validator",
			[]interface{}{},
		})

		c := canonical.NewCodec(strict)
		_, err := c.DecodeBlock(data)

		assert.ErrorIs(t, err, record.MalformedEncoding)
	})

	t.Run("invalid nested transaction", func(t *testing.T) {
		t.Parallel()

		tx := mocks.GenericTransaction(t, 0)
		data := encodeRaw(t, []interface{}{
			canonical.KindStrictBlock,
			[]interface{}{
				[]interface{}{tx.Sender(), tx.Recipient(), tx.Amount(), tx.Signature(), uint64(0), ""},
			},
			uint64(1),
			"hash",
			int64(1),
			"validator",
			[]interface{}{},
		})

		c := canonical.NewCodec(strict)
		_, err := c.DecodeBlock(data)

		assert.ErrorIs(t, err, record.InvalidTimestamp)
		var rerr *record.Error
		require.ErrorAs(t, err, &rerr)
		assert.Equal(t, 0, rerr.Index)
	})
}

func TestCodec_Malformed(t *testing.T) {

	v := record.NewValidator()
	c := canonical.NewCodec(v)
	tx := c.EncodeTransaction(mocks.GenericTransaction(t, 0))
	block := c.EncodeBlock(mocks.GenericBlock(t, 1))

	nonShortest := append([]byte{tx[0], 0x18, 0x01}, tx[2:]...)

	unsorted, err := cbor.EncOptions{Sort: cbor.SortNone}.EncMode()
	require.NoError(t, err)
	entry := struct {
		B string `cbor:"b"`
		A string `cbor:"a"`
	}{B: "b", A: "a"}
	unsortedEntries, err := unsorted.Marshal([]interface{}{
		canonical.KindPermissiveBlock,
		[]interface{}{entry},
		uint64(1),
		"hash",
		int64(1),
		"validator",
		[]interface{}{},
	})
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty input", data: []byte{}},
		{name: "not an array", data: []byte{0x01}},
		{name: "empty array", data: []byte{0x80}},
		{name: "truncated transaction", data: tx[:len(tx)-1]},
		{name: "trailing bytes", data: append(append([]byte{}, tx...), 0x00)},
		{name: "truncated block", data: block[:len(block)/2]},
		{name: "non-shortest integer", data: nonShortest},
		{name: "unsorted map keys", data: unsortedEntries},
		{name: "unknown kind", data: encodeRaw(t, []interface{}{uint64(9)})},
		{name: "missing fields", data: encodeRaw(t, []interface{}{canonical.KindTransaction, "a"})},
		{name: "wrong field type", data: encodeRaw(t, []interface{}{canonical.KindTransaction, 1, 2, 3, 4, 5, 6})},
		{name: "indefinite length", data: []byte{0x9f, 0x01, 0xff}},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			_, err := c.Decode(test.data)

			assert.ErrorIs(t, err, record.MalformedEncoding)
		})
	}

	t.Run("wrong kind for transaction", func(t *testing.T) {
		t.Parallel()

		_, err := c.DecodeTransaction(block)

		assert.ErrorIs(t, err, record.MalformedEncoding)
	})

	t.Run("wrong kind for block", func(t *testing.T) {
		t.Parallel()

		_, err := c.DecodeBlock(tx)

		assert.ErrorIs(t, err, record.MalformedEncoding)
	})
}

func TestCodec_Validation(t *testing.T) {

	t.Run("decoded drafts reach the validator", func(t *testing.T) {
		t.Parallel()

		tx := mocks.GenericTransaction(t, 1)
		block := mocks.GenericBlock(t, 2)

		validate := mocks.BaselineValidator(t)
		validate.CheckTransactionFunc = func(draft record.TransactionDraft) (record.Transaction, error) {
			assert.Equal(t, tx.Draft(), draft)
			return tx, nil
		}
		validate.CheckBlockFunc = func(draft record.BlockDraft) (record.Block, error) {
			assert.Equal(t, block.ParentSlot(), draft.ParentSlot)
			assert.Equal(t, block.ValidatorAddress(), draft.ValidatorAddress)
			assert.Len(t, draft.Transactions, block.Len())
			return block, nil
		}

		c := canonical.NewCodec(validate)

		gotTx, err := c.DecodeTransaction(c.EncodeTransaction(tx))
		require.NoError(t, err)
		assert.Equal(t, tx, gotTx)

		gotBlock, err := c.DecodeBlock(c.EncodeBlock(block))
		require.NoError(t, err)
		assert.Equal(t, block, gotBlock)
	})

	t.Run("validator errors are returned", func(t *testing.T) {
		t.Parallel()

		validate := mocks.BaselineValidator(t)
		validate.CheckTransactionFunc = func(record.TransactionDraft) (record.Transaction, error) {
			return record.Transaction{}, mocks.GenericError
		}
		validate.CheckBlockFunc = func(record.BlockDraft) (record.Block, error) {
			return record.Block{}, mocks.GenericError
		}

		c := canonical.NewCodec(validate)

		_, err := c.DecodeTransaction(c.EncodeTransaction(mocks.GenericTransaction(t, 0)))
		assert.ErrorIs(t, err, mocks.GenericError)

		_, err = c.Decode(c.EncodeBlock(mocks.GenericBlock(t, 1)))
		assert.ErrorIs(t, err, mocks.GenericError)
	})
}
