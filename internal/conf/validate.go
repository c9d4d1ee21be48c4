package conf

import (
	"fmt"
	"slices"
	"strconv"
)

// Epsilon bounds. Below the floor the tolerance no longer absorbs float
// re-serialization noise, above the ceiling it starts merging genuinely
// distinct nearby points.
const (
	MinEpsilon = 1e-7
	MaxEpsilon = 0.01
)

var validLegendPositions = []string{"topleft", "topright", "bottomleft", "bottomright"}

// ValidateSettings checks the loaded settings for values that would break
// the synchronizer at runtime.
func ValidateSettings(settings *Settings) error {
	if settings.Identity.Epsilon < MinEpsilon || settings.Identity.Epsilon > MaxEpsilon {
		return fmt.Errorf("identity.epsilon %g out of range [%g, %g]",
			settings.Identity.Epsilon, MinEpsilon, MaxEpsilon)
	}

	if settings.Identity.SurrogatePrecision < 1 || settings.Identity.SurrogatePrecision > 9 {
		return fmt.Errorf("identity.surrogateprecision %d out of range [1, 9]",
			settings.Identity.SurrogatePrecision)
	}

	if !slices.Contains(validLegendPositions, settings.Legend.Position) {
		return fmt.Errorf("legend.position %q is not one of %v",
			settings.Legend.Position, validLegendPositions)
	}

	if settings.Style.FlaggedRadius <= 0 || settings.Style.DefaultRadius <= 0 {
		return fmt.Errorf("style radii must be positive, got flagged=%d default=%d",
			settings.Style.FlaggedRadius, settings.Style.DefaultRadius)
	}

	if settings.Dataset.MaxRetries < 1 {
		return fmt.Errorf("dataset.maxretries must be at least 1, got %d", settings.Dataset.MaxRetries)
	}

	if settings.API.Enabled {
		port, err := strconv.Atoi(settings.API.Port)
		if err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("api.port %q is not a valid port number", settings.API.Port)
		}
	}

	return nil
}
