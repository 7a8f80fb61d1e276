// Copyright 2026 The reqwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package reqwire

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewBytesProducer(t *testing.T) {
	t.Run("Chunks", func(t *testing.T) {
		p := NewBytesProducer([]byte("abcdefg"), 3)
		var parts []string
		for {
			part, err := p.NextPart()
			if err == io.EOF {
				break
			}
			assert.NoError(t, err)
			parts = append(parts, string(part.Data))
		}
		assert.Equal(t, []string{"abc", "def", "g"}, parts)
	})
	t.Run("Empty", func(t *testing.T) {
		p := NewBytesProducer(nil, 16)
		_, err := p.NextPart()
		assert.Same(t, io.EOF, err)
	})
	t.Run("BadChunkSize", func(t *testing.T) {
		assert.PanicsWithValue(t, "reqwire: chunk size must be at least 1", func() {
			NewBytesProducer([]byte("x"), 0)
		})
	})
}
