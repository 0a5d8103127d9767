package attestor

import (
	"fmt"
	"strings"
)

// ParseSeeds parses the ATTESTOR_SEEDS environment value: semicolon-joined
// "alg:kid:seed" triples. alg is currently always "ed25519" and is only
// validated, not branched on, leaving room for a future algorithm without
// changing the wire format.
func ParseSeeds(raw string) (map[string][]byte, error) {
	seeds := make(map[string][]byte)
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("attestor: malformed seed entry %q, want alg:kid:seed", entry)
		}
		alg, kid, seed := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), parts[2]
		if alg != "ed25519" {
			return nil, fmt.Errorf("attestor: unsupported alg %q in seed entry %q", alg, entry)
		}
		if kid == "" || seed == "" {
			return nil, fmt.Errorf("attestor: empty kid or seed in entry %q", entry)
		}
		seeds[kid] = []byte(seed)
	}
	return seeds, nil
}
