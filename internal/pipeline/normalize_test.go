package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmko-sec/secdash/internal/domain"
)

func TestNormalizeDeviceCandidateKeyOrder(t *testing.T) {
	// First candidate wins even when later candidates are present.
	d := NormalizeDevice(domain.RawRecord{
		"Username": "alice",
		"username": "shadowed",
		"Platform": "macOS",
	}, 0)
	assert.Equal(t, "alice", d.Username)
	assert.Equal(t, "macOS", d.Platform)

	// Lower-case spelling is picked up when the primary key is absent.
	d = NormalizeDevice(domain.RawRecord{"username": "bob"}, 0)
	assert.Equal(t, "bob", d.Username)

	// Empty string does not count as present.
	d = NormalizeDevice(domain.RawRecord{"Username": "", "User": "carol"}, 0)
	assert.Equal(t, "carol", d.Username)
}

func TestNormalizeDeviceDefaults(t *testing.T) {
	d := NormalizeDevice(domain.RawRecord{}, 4)
	assert.Equal(t, "User5", d.Username)
	assert.Equal(t, "Unknown", d.Platform)
	assert.Equal(t, "Unknown", d.Enrollment)
	assert.NotEmpty(t, d.SerialNumber)
	assert.False(t, d.Encrypted)
}

func TestNormalizeDeviceDeterministic(t *testing.T) {
	raw := domain.RawRecord{"Platform": "iOS", "Compliance": "Compliant"}
	first := NormalizeDevice(raw, 7)
	second := NormalizeDevice(raw, 7)
	require.Equal(t, first, second)
}

func TestNormalizeDeviceMalformedValues(t *testing.T) {
	// Wrong types fall through to defaults instead of panicking.
	d := NormalizeDevice(domain.RawRecord{
		"Username":  map[string]any{"nested": true},
		"Platform":  42.0,
		"Encrypted": "Y",
	}, 0)
	assert.Equal(t, "User1", d.Username)
	assert.Equal(t, "42", d.Platform)
	assert.True(t, d.Encrypted)
}

func TestClassifyRisk(t *testing.T) {
	tests := []struct {
		name       string
		category   string
		compliance string
		want       domain.RiskLevel
	}{
		{"compromised always critical", "compromised", "Compliant", domain.RiskCritical},
		{"compromised non-compliant still critical", "compromised", "Non-Compliant", domain.RiskCritical},
		{"no password", "no_password", "Compliant", domain.RiskHigh},
		{"not encrypted", "not_encrypted", "Compliant", domain.RiskMedium},
		{"non-compliant without violation", "", "Non-Compliant", domain.RiskMedium},
		{"clean", "", "Compliant", domain.RiskLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyRisk(tt.category, tt.compliance))
		})
	}
}

func TestNormalizeViolation(t *testing.T) {
	v := NormalizeViolation(domain.RawRecord{
		"User":     "dave",
		"Category": "Compromised",
		"Resolved": "N",
		"Date":     "01/15/2024",
	}, 0)
	assert.Equal(t, "dave", v.Username)
	assert.Equal(t, "compromised", v.Category)
	assert.False(t, v.Resolved)
	assert.Equal(t, "01/15/2024", v.DetectedAt)
}

func TestNormalizeIncidentGeneratedID(t *testing.T) {
	i := NormalizeIncident(domain.RawRecord{"Title": "Phishing burst"}, 2)
	assert.Equal(t, "INC-0003", i.ID)
	assert.Equal(t, "open", i.Status)
}
