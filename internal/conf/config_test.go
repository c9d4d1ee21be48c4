package conf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testSettings returns a settings struct that passes validation.
func testSettings() *Settings {
	return &Settings{
		Main: MainSettings{Name: "test-node"},
		Identity: IdentitySettings{
			Epsilon:            0.0001,
			SurrogatePrecision: 6,
		},
		Legend: LegendSettings{Title: "Flagged locations", Position: "bottomleft"},
		Style: StyleSettings{
			FlaggedRadius: 10,
			DefaultRadius: 6,
			FlaggedColor:  "#d33682",
			FlaggedStroke: "#ffffff",
			DefaultColor:  "#268bd2",
		},
		Dataset: DatasetSettings{
			FetchTimeout: 30 * time.Second,
			MaxRetries:   3,
			RetryDelay:   time.Second,
			CacheTTL:     30 * time.Second,
		},
		API: APISettings{Enabled: true, Host: "127.0.0.1", Port: "8080", Metrics: true},
	}
}

func TestValidateSettingsAcceptsDefaults(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateSettings(testSettings()))
}

func TestValidateSettingsEpsilonRange(t *testing.T) {
	t.Parallel()

	s := testSettings()
	s.Identity.Epsilon = 0.5
	err := ValidateSettings(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "identity.epsilon")

	s.Identity.Epsilon = 0
	require.Error(t, ValidateSettings(s))
}

func TestValidateSettingsSurrogatePrecision(t *testing.T) {
	t.Parallel()

	s := testSettings()
	s.Identity.SurrogatePrecision = 0
	require.Error(t, ValidateSettings(s))

	s.Identity.SurrogatePrecision = 12
	require.Error(t, ValidateSettings(s))
}

func TestValidateSettingsLegendPosition(t *testing.T) {
	t.Parallel()

	s := testSettings()
	s.Legend.Position = "center"
	err := ValidateSettings(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "legend.position")
}

func TestValidateSettingsPort(t *testing.T) {
	t.Parallel()

	s := testSettings()
	s.API.Port = "not-a-port"
	require.Error(t, ValidateSettings(s))

	// Disabled API skips port validation
	s.API.Enabled = false
	require.NoError(t, ValidateSettings(s))
}

func TestSetTestSettings(t *testing.T) {
	s := testSettings()
	SetTestSettings(s)
	assert.Same(t, s, GetSettings())
}
