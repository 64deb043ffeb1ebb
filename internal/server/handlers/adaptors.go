package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gridhaven/kraken/pkg/adaptor"
	"github.com/gridhaven/kraken/pkg/engine"
)

// AdaptorInfo is the JSON shape of one adaptor catalog entry.
type AdaptorInfo struct {
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Schemes      []string       `json:"schemes"`
	Capabilities CapabilityInfo `json:"capabilities"`
	Properties   []PropertyInfo `json:"properties"`
}

// CapabilityInfo mirrors adaptor.Capabilities.
type CapabilityInfo struct {
	InteractiveJobs  bool `json:"interactive_jobs"`
	DetachedJobs     bool `json:"detached_jobs"`
	StrictProperties bool `json:"strict_properties"`
}

// PropertyInfo describes one recognized configuration key.
type PropertyInfo struct {
	Key         string   `json:"key"`
	Levels      []string `json:"levels"`
	Default     string   `json:"default,omitempty"`
	Description string   `json:"description"`
}

func adaptorInfo(a adaptor.Adaptor) AdaptorInfo {
	caps := a.Capabilities()
	info := AdaptorInfo{
		Name:        a.Name(),
		Description: a.Description(),
		Schemes:     a.Schemes(),
		Capabilities: CapabilityInfo{
			InteractiveJobs:  caps.InteractiveJobs,
			DetachedJobs:     caps.DetachedJobs,
			StrictProperties: caps.StrictProperties,
		},
	}
	for _, p := range a.SupportedProperties() {
		levels := make([]string, 0, len(p.Levels))
		for _, l := range p.Levels {
			levels = append(levels, string(l))
		}
		info.Properties = append(info.Properties, PropertyInfo{
			Key:         p.Key,
			Levels:      levels,
			Default:     p.Default,
			Description: p.Description,
		})
	}
	return info
}

// ListAdaptors serves the adaptor catalog in routing order.
func ListAdaptors(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adaptors := eng.Adaptors()
		infos := make([]AdaptorInfo, 0, len(adaptors))
		for _, a := range adaptors {
			infos = append(infos, adaptorInfo(a))
		}
		writeJSON(w, http.StatusOK, infos)
	}
}

// GetAdaptor serves a single catalog entry by name.
func GetAdaptor(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := eng.Adaptor(chi.URLParam(r, "name"))
		if err != nil {
			respondWithError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, adaptorInfo(a))
	}
}
