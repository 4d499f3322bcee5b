package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		env       string
		json      bool
		debugSeen bool
	}{
		{env: "local", json: false, debugSeen: true},
		{env: "dev", json: true, debugSeen: true},
		{env: "prod", json: true, debugSeen: false},
		{env: "unknown", json: true, debugSeen: false},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			var buf bytes.Buffer
			log := New(tt.env, &buf)

			log.Debug("debug line")
			assert.Equal(t, tt.debugSeen, buf.Len() > 0)

			buf.Reset()
			log.Info("info line")
			if tt.json {
				var rec map[string]any
				require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
				assert.Equal(t, "info line", rec["msg"])
			} else {
				assert.Contains(t, buf.String(), "msg=\"info line\"")
			}
		})
	}
}
