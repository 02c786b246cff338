package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpstreamEnvelopeDetectsSentinel(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		isError bool
		text    string
	}{
		{
			name:    "error sentinel with string result",
			body:    `{"status":"0","message":"NOTOK","result":"Max rate limit reached"}`,
			isError: true,
			text:    "Max rate limit reached",
		},
		{
			name:    "success envelope",
			body:    `{"status":"1","message":"OK","result":[{"hash":"0xabc"}]}`,
			isError: false,
		},
		{
			name:    "zero status without NOTOK is not the sentinel",
			body:    `{"status":"0","message":"No transactions found","result":[]}`,
			isError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var envelope UpstreamEnvelope
			require.NoError(t, json.Unmarshal([]byte(tt.body), &envelope))

			assert.Equal(t, tt.isError, envelope.IsError())
			if tt.isError {
				assert.Equal(t, tt.text, envelope.ErrorText())
			}
		})
	}
}

func TestNewErrorEnvelopeShape(t *testing.T) {
	envelope := NewErrorEnvelope("upstream unreachable")

	encoded, err := json.Marshal(envelope)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"0","message":"NOTOK","result":"upstream unreachable"}`, string(encoded))
}

func TestSessionRecordAge(t *testing.T) {
	now := time.Now()
	record := &SessionRecord{
		WalletAddress: "0xabc",
		LastConnected: now.Add(-2 * time.Hour).UnixMilli(),
	}

	age := record.Age(now)
	assert.InDelta(t, (2 * time.Hour).Seconds(), age.Seconds(), 1)
}

func TestProfileNormalize(t *testing.T) {
	p := ProfileSettings{}
	p.Normalize()
	assert.Equal(t, DefaultUsername, p.Username)

	p = ProfileSettings{Username: "alice"}
	p.Normalize()
	assert.Equal(t, "alice", p.Username)
}

func TestProfileEqual(t *testing.T) {
	img := "avatar.png"
	other := "other.png"

	a := ProfileSettings{Username: "alice", ProfileImage: &img}
	b := ProfileSettings{Username: "alice", ProfileImage: &img}
	assert.True(t, a.Equal(b))

	b.ProfileImage = &other
	assert.False(t, a.Equal(b))

	b.ProfileImage = nil
	assert.False(t, a.Equal(b))
}

func TestAppErrorStatusCodes(t *testing.T) {
	assert.Equal(t, 403, ErrorCodeConnectionRejected.HTTPStatusCode())
	assert.Equal(t, 503, ErrorCodeProviderUnavailable.HTTPStatusCode())
	assert.Equal(t, 400, ErrorCodeInvalidAddress.HTTPStatusCode())
	assert.Equal(t, 500, ErrorCodeStoreError.HTTPStatusCode())
}

func TestSyncReportHelpers(t *testing.T) {
	report := &SyncReport{Inserted: 2, Updated: 1}
	assert.False(t, report.Failed())
	assert.Equal(t, 3, report.Mutations())

	report.Failures = append(report.Failures, SyncFailure{Op: "insert_wallet"})
	assert.True(t, report.Failed())
	assert.Equal(t, 4, report.Mutations())
}
