// Package embedded provides access to embedded catalog data files.
package embedded

import _ "embed"

// ProvidersCatalogData contains the embedded provider catalog YAML data.
//
//go:embed providers.yaml
var ProvidersCatalogData []byte
