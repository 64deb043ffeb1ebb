package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridhaven/kraken/pkg/adaptor"
)

func TestRespondWithErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "not found",
			err:        adaptor.NewError(adaptor.ErrNotFound, "local", "Stat", "missing", nil),
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
		{
			name:       "location",
			err:        adaptor.NewError(adaptor.ErrLocation, "gridengine", "NewScheduler", "bad scheme", nil),
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_ARGUMENT",
		},
		{
			name:       "configuration",
			err:        adaptor.NewError(adaptor.ErrConfiguration, "s3", "NewFileSystem", "unknown key", nil),
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_ARGUMENT",
		},
		{
			name:       "already closed",
			err:        adaptor.NewError(adaptor.ErrAlreadyClosed, "ftp", "Read", "handle closed", nil),
			wantStatus: http.StatusConflict,
			wantCode:   "ALREADY_CLOSED",
		},
		{
			name:       "transport",
			err:        adaptor.NewError(adaptor.ErrTransport, "gridengine", "QueueStatus", "ssh failed", nil),
			wantStatus: http.StatusBadGateway,
			wantCode:   "BACKEND_FAILURE",
		},
		{
			name:       "unclassified",
			err:        errors.New("plain"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondWithError(rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.wantCode, body.Error.Code)
			assert.NotEmpty(t, body.Error.Message)
		})
	}
}
