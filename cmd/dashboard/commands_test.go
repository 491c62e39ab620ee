package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrowseReadsIndices(t *testing.T) {
	var shown []int
	show := func(i int) error {
		shown = append(shown, i)
		if i > 1 {
			return errors.New("out of range")
		}
		return nil
	}

	var out, errOut bytes.Buffer
	err := browse(strings.NewReader("1\n\nabc\n5\n0\nq\n3\n"), &out, &errOut, 2, show)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 5, 0}, shown)
	assert.Contains(t, errOut.String(), `invalid index "abc"`)
	assert.Contains(t, errOut.String(), "out of range")
	assert.Contains(t, out.String(), "patient [0-1, q to quit]> ")
}

func TestBrowseStopsAtEOF(t *testing.T) {
	var shown []int
	err := browse(strings.NewReader("0"), &bytes.Buffer{}, &bytes.Buffer{}, 1, func(i int) error {
		shown = append(shown, i)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, shown)
}
