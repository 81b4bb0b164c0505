// SPDX-License-Identifier: MPL-2.0

package sdm

// SoftwareReport is one installed package as reported by an environment.
type SoftwareReport struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// String returns "name@version", or just the name when the version is unknown.
func (r SoftwareReport) String() string {
	if r.Version == "" {
		return r.Name
	}
	return r.Name + "@" + r.Version
}
