// Copyright 2026 The reqwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"net/http"
	urlpkg "net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}

func TestHeadValidate(t *testing.T) {
	u, err := urlpkg.Parse("https://example.com/upload")
	require.NoError(t, err)

	t.Run("Valid", func(t *testing.T) {
		h := Head{
			Method: "POST",
			URL:    u,
			Header: http.Header{"Content-Type": {"application/json"}},
		}
		assert.NoError(t, h.Validate())
	})
	t.Run("NoURL", func(t *testing.T) {
		h := Head{Method: "GET"}
		assert.Error(t, h.Validate())
	})
	t.Run("BadFieldName", func(t *testing.T) {
		h := Head{
			URL:    u,
			Header: http.Header{"Bad Name": {"x"}},
		}
		assert.Error(t, h.Validate())
	})
	t.Run("BadFieldValue", func(t *testing.T) {
		h := Head{
			URL:    u,
			Header: http.Header{"X-Custom": {"a\x00b"}},
		}
		assert.Error(t, h.Validate())
	})
}

func TestResponseHeadInformational(t *testing.T) {
	assert.True(t, ResponseHead{Status: 100}.Informational())
	assert.True(t, ResponseHead{Status: 103}.Informational())
	assert.False(t, ResponseHead{Status: 200}.Informational())
	assert.False(t, ResponseHead{Status: 404}.Informational())
}

func TestPart(t *testing.T) {
	p := PartOf([]byte("hello"))
	assert.Equal(t, 5, p.Len())
	assert.Equal(t, 0, Part{}.Len())
}
