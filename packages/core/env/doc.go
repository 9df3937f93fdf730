// Package env resolves variables in shapespec suite files.
//
// It provides functionality for:
//   - Loading .env files
//   - Variable interpolation using {{variable}} syntax
//   - Environment variables using {{$NAME}}
//   - Built-in function evaluation ({{isoDate(2000, 1, 1)}}, {{uuid()}}, ...)
//   - Typed resolution of values that consist of a single expression
package env
