package profile

import (
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/goccy/go-yaml"
	"github.com/signadot/binpatch/debug"
)

// Overlay returns s with the JSON merge patch in patch applied. patch
// may be written as JSON or YAML. An empty patch returns s unchanged.
func (s Spec) Overlay(patch []byte) (Spec, error) {
	if len(patch) == 0 {
		return s, nil
	}
	jPatch, err := yaml.YAMLToJSON(patch)
	if err != nil {
		return Spec{}, fmt.Errorf("%w: overlay: %w", ErrProfile, err)
	}
	doc, err := json.Marshal(s)
	if err != nil {
		return Spec{}, err
	}
	merged, err := jsonpatch.MergePatch(doc, jPatch)
	if err != nil {
		return Spec{}, fmt.Errorf("%w: overlay: %w", ErrProfile, err)
	}
	if debug.Profile() {
		debug.Logf("overlay %s gave %s\n", string(jPatch), string(merged))
	}
	res := Spec{}
	if err := json.Unmarshal(merged, &res); err != nil {
		return Spec{}, fmt.Errorf("%w: overlay: %w", ErrProfile, err)
	}
	return res, nil
}
