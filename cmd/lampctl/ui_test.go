package main

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedInputClosesPipe(t *testing.T) {
	r, w := io.Pipe()
	go feedInput(w, strings.NewReader("s 50\n"))

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "s 50\n", string(data))

	_, err = w.Write([]byte("p 1\n"))
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}
