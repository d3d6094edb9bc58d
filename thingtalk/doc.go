// Package thingtalk holds the value representation shared by every stage of
// the compiler: the closed Type tagged variant, the tagged Value variant,
// and the identity/interning helpers used to keep kind names and qualified
// names cheap to compare.
//
// File organization:
//   - type.go: the Type tagged variant and its equality/subtyping rules
//   - value.go: the Value tagged variant and constructors
//   - js.go: ToJS/FromJS, the host-value boundary conversions
//   - compare.go: CompareValues, the value ordering for Sort/ArgMinMax tuple cells
//   - intern.go: interning for kind and qualified-name strings
package thingtalk
