package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextOptionsDefaults(t *testing.T) {
	t.Parallel()

	opts := NewContextOptions()
	require.NoError(t, opts.Validate())
	assert.Equal(t, DefaultLocale, opts.Locale)
	assert.Equal(t, &Viewport{Width: 1280, Height: 720}, opts.Viewport)
	assert.Empty(t, opts.StorageStatePath)
}

func TestContextOptionsValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*ContextOptions)
		wantErr string
	}{
		{
			name:   "nil_viewport",
			mutate: func(o *ContextOptions) { o.Viewport = nil },
		},
		{
			name:    "zero_width",
			mutate:  func(o *ContextOptions) { o.Viewport = &Viewport{Width: 0, Height: 10} },
			wantErr: `invalid viewport "0x10"`,
		},
		{
			name:    "empty_locale",
			mutate:  func(o *ContextOptions) { o.Locale = "" },
			wantErr: "locale must not be empty",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := NewContextOptions()
			tt.mutate(opts)
			err := opts.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestContextOptionsWithStorageState(t *testing.T) {
	t.Parallel()

	base := NewContextOptions()
	withState := base.WithStorageState("out/.auth/3.json")

	assert.Equal(t, "out/.auth/3.json", withState.StorageStatePath)
	assert.Empty(t, base.StorageStatePath, "original options must not change")
}
