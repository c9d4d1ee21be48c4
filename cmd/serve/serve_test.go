package serve

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tphakala/geopin-go/internal/annotation"
	"github.com/tphakala/geopin-go/internal/conf"
	"github.com/tphakala/geopin-go/internal/dataset"
	"github.com/tphakala/geopin-go/internal/overlay"
	"github.com/tphakala/geopin-go/internal/render"
)

func TestRegisterSurfacesWiresAllThree(t *testing.T) {
	t.Parallel()

	settings := &conf.Settings{}
	settings.Identity.Epsilon = 0.0001
	settings.Identity.SurrogatePrecision = 6
	settings.Style.FlaggedColor = "#d33682"

	manager := dataset.NewManager(settings, nil)
	dispatcher := render.NewDispatcher(nil)
	svc := annotation.NewService(settings, manager, dispatcher, nil)
	t.Cleanup(svc.Shutdown)
	overlayMgr := overlay.NewManager(svc, nil, nil)

	registerSurfaces(dispatcher, overlayMgr, settings)

	assert.Equal(t, []string{"map", "list", "overlay"}, dispatcher.SurfaceNames())
}
