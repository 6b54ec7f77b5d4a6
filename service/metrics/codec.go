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

package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/optakt/arcane/record"
	"github.com/optakt/arcane/service/storage"
)

// Values is a storage codec that can also encode without compressing.
type Values interface {
	storage.Codec
	Encode(value interface{}) ([]byte, error)
}

// Codec wraps a storage codec and observes the size of the values it writes,
// before and after compression.
type Codec struct {
	Values
	original   *prometheus.HistogramVec
	compressed *prometheus.HistogramVec
}

// NewCodec wraps the given codec and registers its size histograms.
func NewCodec(codec Values, reg prometheus.Registerer) *Codec {
	factory := promauto.With(reg)

	original := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "stored_value_bytes",
		Help:      "size of stored values before compression",
		Buckets:   prometheus.ExponentialBuckets(16, 4, 8),
	}, []string{"category"})

	compressed := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "stored_value_compressed_bytes",
		Help:      "size of stored values after compression",
		Buckets:   prometheus.ExponentialBuckets(16, 4, 8),
	}, []string{"category"})

	c := Codec{
		Values:     codec,
		original:   original,
		compressed: compressed,
	}

	return &c
}

// Compress is used for encoded records.
func (c *Codec) Compress(data []byte) ([]byte, error) {
	compressed, err := c.Values.Compress(data)
	if err != nil {
		return nil, err
	}
	c.observe("record", len(data), len(compressed))
	return compressed, nil
}

func (c *Codec) Marshal(value interface{}) ([]byte, error) {
	data, err := c.Encode(value)
	if err != nil {
		return nil, fmt.Errorf("could not encode value: %w", err)
	}
	compressed, err := c.Values.Compress(data)
	if err != nil {
		return nil, fmt.Errorf("could not compress data: %w", err)
	}

	name := "unknown"
	switch value.(type) {
	case uint64:
		name = "slot"
	case string:
		name = "address"
	case record.Identifier:
		name = "identifier"
	case []record.Identifier:
		name = "identifiers"
	}
	c.observe(name, len(data), len(compressed))

	return compressed, nil
}

func (c *Codec) observe(category string, original int, compressed int) {
	c.original.WithLabelValues(category).Observe(float64(original))
	c.compressed.WithLabelValues(category).Observe(float64(compressed))
}
