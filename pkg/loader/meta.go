// SPDX-License-Identifier: Apache-2.0

package loader

import (
	"bytes"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"sigs.k8s.io/yaml"

	"github.com/franciscoabsampaio/swellow/pkg/swerrs"
	"github.com/franciscoabsampaio/swellow/pkg/swmigration"
)

const metaFile = "meta.yaml"

// metaSchema constrains the optional meta.yaml sidecar a migration
// directory may carry: free-form operator metadata alongside the raw SQL
// migration, never interpreted by the loader beyond this shape check.
const metaSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"properties": {
		"description": {"type": "string"},
		"author": {"type": "string"},
		"breaking": {"type": "boolean"}
	},
	"additionalProperties": false
}`

var compiledMetaSchema = mustCompileMetaSchema()

func mustCompileMetaSchema() *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(metaSchema))
	if err != nil {
		panic(err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("meta.json", doc); err != nil {
		panic(err)
	}
	return c.MustCompile("meta.json")
}

// parseMeta validates b against metaSchema and decodes it into a
// swmigration.Meta.
func parseMeta(versionID int64, b []byte) (*swmigration.Meta, error) {
	jsonBytes, err := yaml.YAMLToJSON(b)
	if err != nil {
		return nil, swerrs.InvalidMetadataError{VersionID: versionID, Cause: err}
	}

	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(jsonBytes))
	if err != nil {
		return nil, swerrs.InvalidMetadataError{VersionID: versionID, Cause: err}
	}
	if err := compiledMetaSchema.Validate(instance); err != nil {
		return nil, swerrs.InvalidMetadataError{VersionID: versionID, Cause: err}
	}

	var m swmigration.Meta
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, swerrs.InvalidMetadataError{VersionID: versionID, Cause: err}
	}
	return &m, nil
}
