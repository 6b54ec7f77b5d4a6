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

package mocks

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"io"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/optakt/arcane/record"
)

// Global variables that can be used for testing. They are non-nil valid values for the types commonly needed
// to test record components.
var (
	NoopLogger = zerolog.New(io.Discard)

	GenericError = errors.New("dummy error")

	GenericSlot = uint64(42)

	GenericBytes = []byte(`test`)

	GenericAddress = "validator1"
)

func GenericIdentifiers(number int) []record.Identifier {
	// Ensure consistent deterministic results.
	random := rand.New(rand.NewSource(1))

	var ids []record.Identifier
	for i := 0; i < number; i++ {
		var id record.Identifier
		binary.BigEndian.PutUint64(id[0:], random.Uint64())
		binary.BigEndian.PutUint64(id[8:], random.Uint64())
		binary.BigEndian.PutUint64(id[16:], random.Uint64())
		binary.BigEndian.PutUint64(id[24:], random.Uint64())

		ids = append(ids, id)
	}

	return ids
}

func GenericIdentifier(index int) record.Identifier {
	return GenericIdentifiers(index + 1)[index]
}

// GenericTransactionFields returns untyped fields of valid transactions, with
// hexadecimal addresses and signatures.
func GenericTransactionFields(number int) []map[string]interface{} {
	// Ensure consistent deterministic results.
	random := rand.New(rand.NewSource(2))

	hexString := func(length int) string {
		buf := make([]byte, length/2)
		_, _ = random.Read(buf)
		return hex.EncodeToString(buf)
	}

	var fields []map[string]interface{}
	for i := 0; i < number; i++ {
		tx := map[string]interface{}{
			record.FieldSender:    hexString(record.AddressLength),
			record.FieldRecipient: hexString(record.AddressLength),
			record.FieldAmount:    uint64(i+1) * 1000,
			record.FieldSignature: hexString(record.SignatureLength),
			record.FieldTimestamp: uint64(1700000000 + i),
		}
		if i%2 == 1 {
			tx[record.FieldMemo] = "payment"
		}
		fields = append(fields, tx)
	}

	return fields
}

func GenericTransactions(t *testing.T, number int) []record.Transaction {
	t.Helper()

	v := record.NewValidator(record.WithHexDigits(true))

	var txs []record.Transaction
	for _, fields := range GenericTransactionFields(number) {
		tx, err := v.Transaction(fields)
		require.NoError(t, err)

		txs = append(txs, tx)
	}

	return txs
}

func GenericTransaction(t *testing.T, index int) record.Transaction {
	return GenericTransactions(t, index+1)[index]
}

// GenericBlockFields returns the untyped fields of a valid strict block with
// the given number of transactions.
func GenericBlockFields(t *testing.T, number int) map[string]interface{} {
	t.Helper()

	transactions := make([]interface{}, 0, number)
	for _, fields := range GenericTransactionFields(number) {
		transactions = append(transactions, fields)
	}

	fields := map[string]interface{}{
		record.FieldTransactions:      transactions,
		record.FieldParentSlot:        GenericSlot,
		record.FieldPreviousBlockhash: GenericIdentifier(0).String(),
		record.FieldBlockTimestamp:    int64(1700000001),
		record.FieldValidatorAddress:  GenericAddress,
		record.FieldPoHInformation: []interface{}{
			map[string]interface{}{
				"hash":       GenericIdentifier(1).String(),
				"num_hashes": uint64(12500),
			},
		},
	}

	return fields
}

func GenericBlock(t *testing.T, number int) record.Block {
	t.Helper()

	v := record.NewValidator(record.WithHexDigits(true))
	block, err := v.Block(GenericBlockFields(t, number))
	require.NoError(t, err)

	return block
}

// GenericPermissiveBlock returns a permissive block whose transactions are
// opaque records holding every supported kind of value.
func GenericPermissiveBlock(t *testing.T) record.Block {
	t.Helper()

	fields := GenericBlockFields(t, 0)
	fields[record.FieldTransactions] = []interface{}{
		map[string]interface{}{
			"signatures": []interface{}{GenericIdentifier(2).String()},
			"message": map[string]interface{}{
				"fee":       uint64(5000),
				"delta":     int64(-5000),
				"ratio":     0.25,
				"data":      []byte{0xde, 0xad, 0xbe, 0xef},
				"confirmed": true,
				"memo":      nil,
			},
		},
		map[string]interface{}{},
	}

	v := record.NewValidator(record.WithMode(record.ModePermissive))
	block, err := v.Block(fields)
	require.NoError(t, err)

	return block
}
