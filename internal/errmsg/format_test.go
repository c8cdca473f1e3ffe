//nolint:goconst // test cases intentionally repeat strings for readability
package errmsg

import (
	"errors"
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		op       Op
		err      error
		expected string
	}{
		{
			name:     "nil error returns empty string",
			op:       OpSendNotification,
			err:      nil,
			expected: "",
		},
		{
			name:     "formats error with operation",
			op:       OpSendNotification,
			err:      errors.New("service unknown"),
			expected: "Failed to send notification: service unknown",
		},
		{
			name:     "bus connection",
			op:       OpConnectBus,
			err:      errors.New("no such file or directory"),
			expected: "Failed to connect to session bus: no such file or directory",
		},
		{
			name:     "name ownership",
			op:       OpOwnName,
			err:      errors.New("already owned"),
			expected: "Failed to own bus name: already owned",
		},
		{
			name:     "history operation",
			op:       OpReadHistory,
			err:      errors.New("database is locked"),
			expected: "Failed to read notification history: database is locked",
		},
		{
			name:     "config operation",
			op:       OpLoadConfig,
			err:      errors.New("invalid toml"),
			expected: "Failed to load configuration: invalid toml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Format(tt.op, tt.err)
			if result != tt.expected {
				t.Errorf("Format(%q, %v) = %q, want %q", tt.op, tt.err, result, tt.expected)
			}
		})
	}
}

func TestFormatWith(t *testing.T) {
	tests := []struct {
		name     string
		op       Op
		context  string
		err      error
		expected string
	}{
		{
			name:     "nil error returns empty string",
			op:       OpCloseNotification,
			context:  "12",
			err:      nil,
			expected: "",
		},
		{
			name:     "formats error with context",
			op:       OpCloseNotification,
			context:  "12",
			err:      errors.New("no reply"),
			expected: "Failed to close notification '12': no reply",
		},
		{
			name:     "empty context falls back to Format",
			op:       OpCloseNotification,
			context:  "",
			err:      errors.New("no reply"),
			expected: "Failed to close notification: no reply",
		},
		{
			name:     "config with path context",
			op:       OpLoadConfig,
			context:  "/etc/notifyd.toml",
			err:      errors.New("permission denied"),
			expected: "Failed to load configuration '/etc/notifyd.toml': permission denied",
		},
		{
			name:     "history with path context",
			op:       OpOpenHistory,
			context:  "/home/user/.local/share/notifyd/history.db",
			err:      errors.New("disk full"),
			expected: "Failed to open notification history '/home/user/.local/share/notifyd/history.db': disk full",
		},
		{
			name:     "id parse with argument context",
			op:       OpParseID,
			context:  "abc",
			err:      errors.New("invalid syntax"),
			expected: "Failed to parse notification id 'abc': invalid syntax",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatWith(tt.op, tt.context, tt.err)
			if result != tt.expected {
				t.Errorf("FormatWith(%q, %q, %v) = %q, want %q", tt.op, tt.context, tt.err, result, tt.expected)
			}
		})
	}
}

func TestOpConstants(t *testing.T) {
	// Verify that Op constants are non-empty and produce valid messages
	ops := []Op{
		OpLoadConfig, OpSetupLogging, OpConnectBus, OpOwnName, OpOpenHistory, OpServe,
		OpSendNotification, OpCloseNotification, OpQueryServer,
		OpReadHistory,
		OpParseID,
	}

	testErr := errors.New("test error")

	for _, op := range ops {
		t.Run(string(op), func(t *testing.T) {
			if op == "" {
				t.Error("Op constant should not be empty")
			}

			result := Format(op, testErr)
			if result == "" {
				t.Error("Format should return non-empty string for non-nil error")
			}

			// Verify the format includes the operation
			expected := "Failed to " + string(op) + ": test error"
			if result != expected {
				t.Errorf("Format = %q, want %q", result, expected)
			}
		})
	}
}
