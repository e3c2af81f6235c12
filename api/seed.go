package api

import (
	"fmt"

	"github.com/mailru/easyjson"
	"github.com/mailru/easyjson/jwriter"
)

// seededMarker guards the seed script so a reload does not overwrite local
// storage the page has changed since.
const seededMarker = "__ecom_seeded"

// seedPayload is the local storage a new document gets when its origin has
// entries in a restored storage state.
type seedPayload []Origin

// MarshalEasyJSON writes the payload as {"origin": [[name, value], ...]}.
func (s seedPayload) MarshalEasyJSON(w *jwriter.Writer) {
	w.RawByte('{')
	for i, o := range s {
		if i > 0 {
			w.RawByte(',')
		}
		w.String(o.Origin)
		w.RawByte(':')
		w.RawByte('[')
		for j, nv := range o.LocalStorage {
			if j > 0 {
				w.RawByte(',')
			}
			w.RawByte('[')
			w.String(nv.Name)
			w.RawByte(',')
			w.String(nv.Value)
			w.RawByte(']')
		}
		w.RawByte(']')
	}
	w.RawByte('}')
}

// LocalStorageSeedScript returns a script for new documents that restores the
// local storage of origins. It is empty when there is nothing to restore.
func LocalStorageSeedScript(origins []Origin) (string, error) {
	if len(origins) == 0 {
		return "", nil
	}
	payload, err := easyjson.Marshal(seedPayload(origins))
	if err != nil {
		return "", fmt.Errorf("encoding local storage seed: %w", err)
	}
	return fmt.Sprintf(`(() => {
  const seed = %s;
  const entries = seed[window.location.origin];
  if (!entries || window.sessionStorage.getItem(%q)) return;
  for (const [name, value] of entries) window.localStorage.setItem(name, value);
  window.sessionStorage.setItem(%q, "1");
})();`, payload, seededMarker, seededMarker), nil
}
