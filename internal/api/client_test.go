package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "github.com/diogo/agi/internal/errors"
	"github.com/diogo/agi/internal/models"
)

func TestNewRESTGateway(t *testing.T) {
	tests := []struct {
		name         string
		apiKey       string
		opts         []RESTOption
		wantErr      error
		wantEndpoint string
	}{
		{
			name:         "defaults",
			apiKey:       "key",
			wantEndpoint: models.EndpointGeminiREST,
		},
		{
			name:         "custom endpoint trims trailing slash",
			apiKey:       "key",
			opts:         []RESTOption{WithEndpoint("http://localhost:9999/v1beta/models/")},
			wantEndpoint: "http://localhost:9999/v1beta/models",
		},
		{
			name:    "missing key",
			apiKey:  "  ",
			wantErr: apierrors.ErrNoAPIKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewRESTGateway(tt.apiKey, tt.opts...)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantEndpoint, g.endpoint)
			assert.NotNil(t, g.httpClient, "httpClient should be initialized")
		})
	}
}

func TestRESTGateway_WithHTTPClient(t *testing.T) {
	doer := &fakeDoer{}
	g, err := NewRESTGateway("key", WithHTTPClient(doer))
	require.NoError(t, err)
	assert.Same(t, doer, g.httpClient, "WithHTTPClient should replace the default client")
}

func TestRESTGateway_Close(t *testing.T) {
	g, err := NewRESTGateway("key", WithHTTPClient(&fakeDoer{}))
	require.NoError(t, err)

	assert.False(t, g.IsClosed(), "new gateway should not be closed")
	assert.NoError(t, g.Close())
	assert.NoError(t, g.Close(), "Close is idempotent")
	assert.True(t, g.IsClosed())
}
