package auth

import "github.com/rhuss/einlass/pkg/api"

// Require checks that the principal holds every required scope. A
// principal with the wildcard scope passes any check; an empty
// requirement always passes. On failure the returned error lists exactly
// the missing scopes, in requirement order.
func Require(p *Principal, required ...string) error {
	if len(required) == 0 {
		return nil
	}

	var missing []string
	for _, scope := range required {
		if !p.HasScope(scope) {
			missing = append(missing, scope)
		}
	}
	if len(missing) > 0 {
		return api.NewMissingScopesError(missing)
	}
	return nil
}
