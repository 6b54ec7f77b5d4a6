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

// Package transport adapts the record codecs to gRPC, so that records can be
// sent over the network without protobuf definitions.
package transport

import (
	"fmt"

	"google.golang.org/grpc/encoding"

	"github.com/optakt/arcane/codec/canonical"
	"github.com/optakt/arcane/codec/zbor"
	"github.com/optakt/arcane/record"
)

// Name is the content subtype under which the codec is registered.
const Name = "arcane-cbor"

// Codec implements the gRPC codec interface. Transactions and blocks use their
// canonical encoding and are validated when received; any other message is
// encoded as canonical CBOR.
type Codec struct {
	records *canonical.Codec
	values  *zbor.Codec
}

// NewCodec creates a gRPC codec on top of the given record and value codecs.
func NewCodec(records *canonical.Codec, values *zbor.Codec) *Codec {
	c := Codec{
		records: records,
		values:  values,
	}
	return &c
}

// Register makes the codec available to gRPC clients and servers.
func Register(c *Codec) {
	encoding.RegisterCodec(c)
}

func (c *Codec) Name() string {
	return Name
}

func (c *Codec) Marshal(v interface{}) ([]byte, error) {
	switch msg := v.(type) {
	case record.Transaction:
		return c.records.EncodeTransaction(msg), nil
	case *record.Transaction:
		return c.records.EncodeTransaction(*msg), nil
	case record.Block:
		return c.records.EncodeBlock(msg), nil
	case *record.Block:
		return c.records.EncodeBlock(*msg), nil
	}

	data, err := c.values.Encode(v)
	if err != nil {
		return nil, fmt.Errorf("could not encode message (%T): %w", v, err)
	}
	return data, nil
}

func (c *Codec) Unmarshal(data []byte, v interface{}) error {
	switch msg := v.(type) {
	case *record.Transaction:
		tx, err := c.records.DecodeTransaction(data)
		if err != nil {
			return fmt.Errorf("could not decode transaction: %w", err)
		}
		*msg = tx
		return nil
	case *record.Block:
		block, err := c.records.DecodeBlock(data)
		if err != nil {
			return fmt.Errorf("could not decode block: %w", err)
		}
		*msg = block
		return nil
	}

	err := c.values.Decode(data, v)
	if err != nil {
		return fmt.Errorf("could not decode message (%T): %w", v, err)
	}
	return nil
}
