package dataset

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/geopin-go/internal/conf"
	"github.com/tphakala/geopin-go/internal/errors"
)

const testFeatureCollection = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "geometry": {"type": "Point", "coordinates": [-7.5, 53.0]},
      "properties": {"name": "A", "category": "pub", "rating": 4}
    },
    {
      "type": "Feature",
      "geometry": {"type": "Point", "coordinates": [-7.6, 53.1]},
      "properties": {"title": "B", "category": "castle"}
    },
    {
      "type": "Feature",
      "geometry": {"type": "LineString", "coordinates": []},
      "properties": {"name": "named only"}
    },
    {
      "type": "Feature",
      "geometry": {"type": "Polygon", "coordinates": []},
      "properties": {}
    }
  ]
}`

const testYAMLDocument = `
- name: A
  lat: 53.0
  lng: -7.5
  category: pub
  properties:
    rating: 4
- name: no-coords
  category: misc
`

func loaderTestSettings() *conf.Settings {
	s := &conf.Settings{}
	s.Identity.SurrogatePrecision = 6
	s.Dataset.FetchTimeout = 5 * time.Second
	s.Dataset.CacheTTL = time.Minute
	s.Dataset.MaxRetries = 2
	s.Dataset.RetryDelay = time.Millisecond
	return s
}

func setupHTTPMock(t *testing.T) {
	t.Helper()
	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)
}

func TestLoaderParsesGeoJSON(t *testing.T) {
	setupHTTPMock(t)

	httpmock.RegisterResponder(http.MethodGet, "https://example.org/points.geojson",
		httpmock.NewStringResponder(http.StatusOK, testFeatureCollection))

	loader := NewLoader(loaderTestSettings(), nil)
	snapshot, err := loader.Load(context.Background(), "https://example.org/points.geojson")
	require.NoError(t, err)

	// Polygon feature without a name is dropped, the rest survive
	require.Len(t, snapshot, 3)

	assert.Equal(t, "A", snapshot[0].Name)
	assert.True(t, snapshot[0].HasCoords)
	assert.InDelta(t, 53.0, snapshot[0].Lat, 1e-9)
	assert.InDelta(t, -7.5, snapshot[0].Lng, 1e-9)
	assert.Equal(t, "pub", snapshot[0].Category)

	// title property is the fallback name
	assert.Equal(t, "B", snapshot[1].Name)

	assert.Equal(t, "named only", snapshot[2].Name)
	assert.False(t, snapshot[2].HasCoords)
}

func TestLoaderCachesRemoteDocument(t *testing.T) {
	setupHTTPMock(t)

	url := "https://example.org/points.geojson"
	httpmock.RegisterResponder(http.MethodGet, url,
		httpmock.NewStringResponder(http.StatusOK, testFeatureCollection))

	loader := NewLoader(loaderTestSettings(), nil)
	_, err := loader.Load(context.Background(), url)
	require.NoError(t, err)
	_, err = loader.Load(context.Background(), url)
	require.NoError(t, err)

	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestLoaderRetriesOnServerError(t *testing.T) {
	setupHTTPMock(t)

	url := "https://example.org/flaky.geojson"
	calls := 0
	httpmock.RegisterResponder(http.MethodGet, url,
		func(*http.Request) (*http.Response, error) {
			calls++
			if calls == 1 {
				return httpmock.NewStringResponse(http.StatusInternalServerError, "boom"), nil
			}
			return httpmock.NewStringResponse(http.StatusOK, testFeatureCollection), nil
		})

	loader := NewLoader(loaderTestSettings(), nil)
	snapshot, err := loader.Load(context.Background(), url)
	require.NoError(t, err)
	assert.Len(t, snapshot, 3)
	assert.Equal(t, 2, calls)
}

func TestLoaderExhaustedRetriesFail(t *testing.T) {
	setupHTTPMock(t)

	url := "https://example.org/down.geojson"
	httpmock.RegisterResponder(http.MethodGet, url,
		httpmock.NewStringResponder(http.StatusServiceUnavailable, "down"))

	loader := NewLoader(loaderTestSettings(), nil)
	_, err := loader.Load(context.Background(), url)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryNetwork))
}

func TestLoaderReadsLocalYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "points.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testYAMLDocument), 0o644))

	loader := NewLoader(loaderTestSettings(), nil)
	snapshot, err := loader.Load(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, snapshot, 2)
	assert.Equal(t, "A", snapshot[0].Name)
	assert.True(t, snapshot[0].HasCoords)
	assert.Equal(t, 4, snapshot[0].Properties["rating"])
	assert.False(t, snapshot[1].HasCoords)
}

func TestLoaderRejectsMalformedDocument(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "broken.geojson")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	loader := NewLoader(loaderTestSettings(), nil)
	_, err := loader.Load(context.Background(), path)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileParsing))
}

func TestLoaderNoSourceConfigured(t *testing.T) {
	t.Parallel()

	loader := NewLoader(loaderTestSettings(), nil)
	_, err := loader.Load(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}

func TestLoaderMissingFile(t *testing.T) {
	t.Parallel()

	loader := NewLoader(loaderTestSettings(), nil)
	_, err := loader.Load(context.Background(), filepath.Join(t.TempDir(), "absent.geojson"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileIO))
}
