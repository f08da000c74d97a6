// Package elements is a small catalogue of concrete form elements.
//
// The dispatch engine only needs the form.Element contract; these kinds are
// what form definitions and tests build trees from:
//   - Text: single-line input with required / max length checks
//   - File: upload input that claims its upload into a directory it owns
//   - Toggle: on/off checkbox, the usual trigger of dependency rules
//   - Select: single or multi-valued choice from fixed options
//   - Submit: button that requests a full submit
//   - Button: button that only runs a callback
//
// Validation results are error keys, not messages. Keys used here:
// "required", "maxlength", "filetoolarge", "mimetype", "invalidoption".
package elements
