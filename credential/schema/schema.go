// Package schema validates credential documents against JSON schemas
// referenced by credentialSchema entries. The validators never consult
// schemas; this is a caller-side helper.
package schema

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/veridian/go-identity-sdk/credential/vc"
)

// JSONSchemaTypes are the credentialSchema type tags this package
// understands.
var JSONSchemaTypes = map[string]struct{}{
	"JsonSchema":              {},
	"JsonSchemaValidator2018": {},
	"JsonSchemaValidator2019": {},
}

// Validate validates a JSON document against a JSON schema document.
func Validate(document, schemaJSON []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewBytesLoader(document),
	)
	if err != nil {
		return fmt.Errorf("failed to run schema validation: %w", err)
	}
	return resultErr(result)
}

// ValidateCredential validates a decoded credential's claims against a
// schema fetched from each JsonSchema-typed credentialSchema reference.
func ValidateCredential(decoded *vc.DecodedCredential) error {
	document, err := decoded.Claims.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize credential claims: %w", err)
	}

	for _, entry := range decoded.Claims.Objects("credentialSchema") {
		if _, ok := JSONSchemaTypes[entry.String("type")]; !ok {
			continue
		}
		schemaID := entry.String("id")
		if schemaID == "" {
			return fmt.Errorf("credentialSchema entry carries no id")
		}

		result, err := gojsonschema.Validate(
			gojsonschema.NewReferenceLoader(schemaID),
			gojsonschema.NewBytesLoader(document),
		)
		if err != nil {
			return fmt.Errorf("failed to validate against schema %q: %w", schemaID, err)
		}
		if err := resultErr(result); err != nil {
			return fmt.Errorf("schema %q: %w", schemaID, err)
		}
	}
	return nil
}

func resultErr(result *gojsonschema.Result) error {
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}
	return fmt.Errorf("document does not match schema: %s", strings.Join(msgs, "; "))
}
