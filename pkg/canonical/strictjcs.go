package canonical

import (
	"encoding/json"

	"github.com/gowebpki/jcs"
)

// StrictJCSDivergence re-canonicalizes v using a strict RFC 8785
// implementation and reports whether it differs from our documented
// subset (Marshal). This is a lint-only diagnostic (spec §9: "this is
// explicitly a documented subset of RFC 8785") — operators can use it to
// see exactly where the two disagree, almost always in number formatting.
func StrictJCSDivergence(v any) (ours, strict []byte, diverges bool, err error) {
	ours, err = Marshal(v)
	if err != nil {
		return nil, nil, false, err
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return nil, nil, false, err
	}
	strict, err = jcs.Transform(raw)
	if err != nil {
		return ours, nil, false, err
	}
	return ours, strict, string(ours) != string(strict), nil
}
