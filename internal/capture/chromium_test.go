package capture

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsNormalize(t *testing.T) {
	opts := Options{URL: "http://127.0.0.1:8080/day", OutputPath: "/tmp/preview.png"}
	require.NoError(t, opts.normalize())

	assert.Equal(t, DefaultWidth, opts.Width)
	assert.Equal(t, DefaultHeight, opts.Height)
	assert.Equal(t, DefaultTimeout, opts.Timeout)

	custom := Options{URL: "x", OutputPath: "y", Width: 800, Height: 600}
	require.NoError(t, custom.normalize())
	assert.Equal(t, 800, custom.Width)
	assert.Equal(t, 600, custom.Height)
}

func TestDayPNG_RequiresTargets(t *testing.T) {
	assert.Error(t, DayPNG(context.Background(), Options{OutputPath: "out.png"}))
	assert.Error(t, DayPNG(context.Background(), Options{URL: "http://127.0.0.1/day"}))
}
