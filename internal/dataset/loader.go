package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"gopkg.in/yaml.v3"

	"github.com/tphakala/geopin-go/internal/conf"
	"github.com/tphakala/geopin-go/internal/errors"
	"github.com/tphakala/geopin-go/internal/geo"
	"github.com/tphakala/geopin-go/internal/observability/metrics"
)

const loaderUserAgent = "GeoPin-Go"

// geoJSONDocument mirrors the subset of a GeoJSON FeatureCollection the
// loader consumes. Only Point geometries become records; other geometry
// types are skipped.
type geoJSONDocument struct {
	Type     string `json:"type"`
	Features []struct {
		Type     string `json:"type"`
		Geometry struct {
			Type        string    `json:"type"`
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties map[string]any `json:"properties"`
	} `json:"features"`
}

// yamlPoint is one entry of a YAML point collection document.
type yamlPoint struct {
	Name       string         `yaml:"name"`
	Lat        *float64       `yaml:"lat"`
	Lng        *float64       `yaml:"lng"`
	Category   string         `yaml:"category"`
	Properties map[string]any `yaml:"properties"`
}

// Loader produces point record snapshots from local files or remote HTTP
// sources. It does not install them; callers hand the result to the
// synchronizer, which owns the swap.
type Loader struct {
	settings *conf.Settings
	client   *http.Client
	docCache *cache.Cache
	metrics  *metrics.DatasetMetrics
}

// NewLoader creates a dataset loader. Remote documents are cached briefly so
// repeated filter/reload cycles against the same source do not refetch.
func NewLoader(settings *conf.Settings, m *metrics.DatasetMetrics) *Loader {
	timeout := 30 * time.Second
	ttl := 30 * time.Second
	if settings != nil {
		if settings.Dataset.FetchTimeout > 0 {
			timeout = settings.Dataset.FetchTimeout
		}
		if settings.Dataset.CacheTTL > 0 {
			ttl = settings.Dataset.CacheTTL
		}
	}

	return &Loader{
		settings: settings,
		client:   &http.Client{Timeout: timeout},
		docCache: cache.New(ttl, 2*ttl),
		metrics:  m,
	}
}

// Load reads the source named in settings (or the explicit source argument
// when non-empty) and returns a fresh snapshot.
func (l *Loader) Load(ctx context.Context, source string) (geo.Snapshot, error) {
	if source == "" && l.settings != nil {
		source = l.settings.Dataset.Source
	}
	if source == "" {
		return nil, errors.Newf("no dataset source configured").
			Component("dataset").
			Category(errors.CategoryConfiguration).
			Build()
	}

	var data []byte
	var err error
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		data, err = l.fetchRemote(ctx, source)
	} else {
		data, err = os.ReadFile(source)
		if err != nil {
			err = errors.New(fmt.Errorf("error reading dataset file: %w", err)).
				Component("dataset").
				Category(errors.CategoryFileIO).
				Build()
		}
	}
	if err != nil {
		return nil, err
	}

	return l.parse(data, l.formatFor(source))
}

// formatFor resolves the document format: explicit configuration wins,
// otherwise the source extension decides, defaulting to GeoJSON.
func (l *Loader) formatFor(source string) string {
	if l.settings != nil && l.settings.Dataset.Format != "" {
		return l.settings.Dataset.Format
	}
	switch strings.ToLower(filepath.Ext(strings.TrimSuffix(source, "/"))) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "geojson"
	}
}

// fetchRemote downloads a dataset document with retries. Responses are
// cached for a short TTL keyed by URL.
func (l *Loader) fetchRemote(ctx context.Context, url string) ([]byte, error) {
	if cached, found := l.docCache.Get(url); found {
		return cached.([]byte), nil
	}

	maxRetries := 3
	retryDelay := 2 * time.Second
	if l.settings != nil {
		if l.settings.Dataset.MaxRetries > 0 {
			maxRetries = l.settings.Dataset.MaxRetries
		}
		if l.settings.Dataset.RetryDelay > 0 {
			retryDelay = l.settings.Dataset.RetryDelay
		}
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
		if err != nil {
			return nil, errors.New(fmt.Errorf("error creating request: %w", err)).
				Component("dataset").
				Category(errors.CategoryNetwork).
				Build()
		}
		req.Header.Set("User-Agent", loaderUserAgent)

		resp, err := l.client.Do(req)
		if err != nil {
			lastErr = err
			if l.metrics != nil {
				l.metrics.RecordFetchError("transport")
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			lastErr = fmt.Errorf("received non-200 response: %d", resp.StatusCode)
			if l.metrics != nil {
				l.metrics.RecordFetchError("status")
			}
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			if l.metrics != nil {
				l.metrics.RecordFetchError("read")
			}
			continue
		}

		l.docCache.SetDefault(url, body)
		return body, nil
	}

	return nil, errors.New(fmt.Errorf("error fetching dataset: %w", lastErr)).
		Component("dataset").
		Category(errors.CategoryNetwork).
		Context("attempts", maxRetries).
		Build()
}

// parse turns a raw document into a snapshot.
func (l *Loader) parse(data []byte, format string) (geo.Snapshot, error) {
	switch format {
	case "yaml":
		return parseYAML(data)
	case "geojson", "json", "":
		return parseGeoJSON(data)
	default:
		return nil, errors.Newf("unsupported dataset format %q", format).
			Component("dataset").
			Category(errors.CategoryConfiguration).
			Build()
	}
}

// parseGeoJSON builds records from a FeatureCollection. The feature name
// comes from the "name" property (falling back to "title"), the category
// from the "category" property.
func parseGeoJSON(data []byte) (geo.Snapshot, error) {
	var doc geoJSONDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.New(fmt.Errorf("error unmarshaling GeoJSON: %w", err)).
			Component("dataset").
			Category(errors.CategoryFileParsing).
			Build()
	}

	snapshot := make(geo.Snapshot, 0, len(doc.Features))
	for _, f := range doc.Features {
		name := stringProperty(f.Properties, "name")
		if name == "" {
			name = stringProperty(f.Properties, "title")
		}
		category := stringProperty(f.Properties, "category")

		var r *geo.PointRecord
		if f.Geometry.Type == "Point" && len(f.Geometry.Coordinates) >= 2 {
			// GeoJSON positions are [lng, lat]
			r = geo.NewPointRecord(f.Geometry.Coordinates[1], f.Geometry.Coordinates[0], name, category)
		} else {
			if name == "" {
				// Neither coordinates nor a name, the record could never be
				// addressed again
				continue
			}
			r = geo.NewNamedRecord(name, category)
		}
		if len(f.Properties) > 0 {
			r.Properties = f.Properties
		}
		snapshot = append(snapshot, r)
	}

	return snapshot, nil
}

// parseYAML builds records from a YAML sequence of points.
func parseYAML(data []byte) (geo.Snapshot, error) {
	var points []yamlPoint
	if err := yaml.Unmarshal(data, &points); err != nil {
		return nil, errors.New(fmt.Errorf("error unmarshaling YAML dataset: %w", err)).
			Component("dataset").
			Category(errors.CategoryFileParsing).
			Build()
	}

	snapshot := make(geo.Snapshot, 0, len(points))
	for _, p := range points {
		var r *geo.PointRecord
		if p.Lat != nil && p.Lng != nil {
			r = geo.NewPointRecord(*p.Lat, *p.Lng, p.Name, p.Category)
		} else {
			if p.Name == "" {
				continue
			}
			r = geo.NewNamedRecord(p.Name, p.Category)
		}
		if len(p.Properties) > 0 {
			r.Properties = p.Properties
		}
		snapshot = append(snapshot, r)
	}

	return snapshot, nil
}

func stringProperty(props map[string]any, key string) string {
	if props == nil {
		return ""
	}
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}
