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

package zbor

import (
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
)

// Codec combines canonical CBOR encoding with Zstandard compression. It is
// safe for concurrent use.
type Codec struct {
	encoder      cbor.EncMode
	decoder      cbor.DecMode
	compressor   *zstd.Encoder
	decompressor *zstd.Decoder
}

// EncOptions returns the CBOR encoding options shared by all codecs: RFC 7049
// canonical encoding with indefinite lengths forbidden.
func EncOptions() cbor.EncOptions {
	options := cbor.CanonicalEncOptions()
	options.IndefLength = cbor.IndefLengthForbidden
	options.Time = cbor.TimeRFC3339Nano
	return options
}

// DecOptions returns the CBOR decoding options shared by all codecs. Maps
// decoded into empty interfaces use text keys, duplicate keys, indefinite
// lengths and tags are rejected.
func DecOptions() cbor.DecOptions {
	return cbor.DecOptions{
		DupMapKey:       cbor.DupMapKeyEnforcedAPF,
		IndefLength:     cbor.IndefLengthForbidden,
		TagsMd:          cbor.TagsForbidden,
		MaxNestedLevels: 32,
		DefaultMapType:  reflect.TypeOf(map[string]interface{}(nil)),
	}
}

// NewCodec creates a new Codec.
func NewCodec() (*Codec, error) {

	encoder, err := EncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("could not initialize encoder: %w", err)
	}
	decoder, err := DecOptions().DecMode()
	if err != nil {
		return nil, fmt.Errorf("could not initialize decoder: %w", err)
	}
	compressor, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
	)
	if err != nil {
		return nil, fmt.Errorf("could not initialize compressor: %w", err)
	}
	decompressor, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("could not initialize decompressor: %w", err)
	}

	c := Codec{
		encoder:      encoder,
		decoder:      decoder,
		compressor:   compressor,
		decompressor: decompressor,
	}

	return &c, nil
}

// Encode encodes the value as canonical CBOR.
func (c *Codec) Encode(value interface{}) ([]byte, error) {
	return c.encoder.Marshal(value)
}

// Decode decodes CBOR into the value pointed to.
func (c *Codec) Decode(data []byte, value interface{}) error {
	return c.decoder.Unmarshal(data, value)
}

func (c *Codec) Compress(data []byte) ([]byte, error) {
	compressed := c.compressor.EncodeAll(data, nil)
	return compressed, nil
}

func (c *Codec) Decompress(compressed []byte) ([]byte, error) {
	data, err := c.decompressor.DecodeAll(compressed, nil)
	return data, err
}

// Marshal encodes and then compresses the value.
func (c *Codec) Marshal(value interface{}) ([]byte, error) {
	data, err := c.Encode(value)
	if err != nil {
		return nil, fmt.Errorf("could not encode value: %w", err)
	}
	compressed, err := c.Compress(data)
	if err != nil {
		return nil, fmt.Errorf("could not compress data: %w", err)
	}
	return compressed, nil
}

// Unmarshal decompresses and then decodes into the value pointed to.
func (c *Codec) Unmarshal(compressed []byte, value interface{}) error {
	data, err := c.Decompress(compressed)
	if err != nil {
		return fmt.Errorf("could not decompress data: %w", err)
	}
	err = c.Decode(data, value)
	if err != nil {
		return fmt.Errorf("could not decode value: %w", err)
	}
	return nil
}
