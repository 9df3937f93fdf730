package runner

import (
	"fmt"
	"path/filepath"

	"github.com/abdul-hamid-achik/shapespec/packages/shape"
	"github.com/xeipuuv/gojsonschema"
)

// CheckSchema is the check name of JSON schema results.
const CheckSchema = "schema"

// validateSchema reports one failed result per schema violation, or a
// single passing result when value conforms.
func validateSchema(r shape.Reporter, name, schemaPath string, value any) error {
	absPath, err := filepath.Abs(schemaPath)
	if err != nil {
		return fmt.Errorf("resolving schema path: %w", err)
	}

	schemaLoader := gojsonschema.NewReferenceLoader("file://" + filepath.ToSlash(absPath))
	documentLoader := gojsonschema.NewGoLoader(value)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if result.Valid() {
		r.Report(&shape.Result{
			Passed:   true,
			Subject:  name,
			Check:    CheckSchema,
			Expected: filepath.Base(schemaPath),
			Message:  fmt.Sprintf("[%s] matches schema [%s]", name, filepath.Base(schemaPath)),
		})
		return nil
	}

	for _, e := range result.Errors() {
		r.Report(&shape.Result{
			Passed:   false,
			Subject:  name + "." + e.Field(),
			Check:    CheckSchema,
			Expected: e.Type(),
			Actual:   e.Value(),
			Message:  e.String(),
		})
	}
	return nil
}
