package config

import "github.com/georgepadayatti/gopades/sign/pades"

// AlgorithmPolicy builds the algorithm policy the configuration describes.
// A nil PolicyConfig yields the default policy.
func (c *PolicyConfig) AlgorithmPolicy() *pades.AlgorithmPolicy {
	if c == nil {
		return pades.DefaultAlgorithmPolicy()
	}

	policy := pades.DefaultAlgorithmPolicy()
	if c.IgnoreDefaults {
		policy = pades.NewAlgorithmPolicy()
	}
	for _, e := range c.Forbidden {
		policy.WithForbidden(e.OID, e.Name)
	}
	for _, e := range c.Discouraged {
		policy.WithDiscouraged(e.OID, e.Name)
	}
	for _, e := range c.Accepted {
		policy.WithAccepted(e.OID)
	}
	return policy
}
