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
	"bytes"
	"encoding/json"
	"io"
)

// DecodeJSON parses a JSON object into untyped fields. Numbers are kept as
// json.Number, so that integers are never rounded through floating point.
func DecodeJSON(data []byte) (map[string]interface{}, error) {

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]interface{}
	err := dec.Decode(&raw)
	if err != nil {
		return nil, malformed("could not decode JSON object", err)
	}
	if raw == nil {
		return nil, malformed("JSON value is not an object", nil)
	}

	// Anything after the object means the input was not a single record.
	_, err = dec.Token()
	if err != io.EOF {
		return nil, malformed("unexpected data after JSON object", nil)
	}

	return raw, nil
}

// ParseTransaction builds a transaction from a JSON object.
func (v *Validator) ParseTransaction(data []byte) (Transaction, error) {
	raw, err := DecodeJSON(data)
	if err != nil {
		return Transaction{}, err
	}
	return v.Transaction(raw)
}

// ParseBlock builds a block from a JSON object.
func (v *Validator) ParseBlock(data []byte) (Block, error) {
	raw, err := DecodeJSON(data)
	if err != nil {
		return Block{}, err
	}
	return v.Block(raw)
}
